package portfolio

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

type DeletePortfolioUseCase struct {
	repo      portfolio.Repository
	publisher service.PortfolioEventPublisher
	archive   resumeArchive
	logger    logger.Logger
}

// NewDeletePortfolioUseCase builds the use case. uploader may be nil.
func NewDeletePortfolioUseCase(repo portfolio.Repository, publisher service.PortfolioEventPublisher, uploader service.Uploader, archiveFolder string, log logger.Logger) *DeletePortfolioUseCase {
	return &DeletePortfolioUseCase{
		repo:      repo,
		publisher: publisher,
		archive:   resumeArchive{uploader: uploader, folder: archiveFolder, logger: log},
		logger:    log,
	}
}

func (uc *DeletePortfolioUseCase) Execute(ctx context.Context, ownerID string) error {
	ctx, span := tracer.Start(ctx, "DeletePortfolio")
	defer span.End()

	// Read first so the event can carry the username being released.
	rec, err := uc.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return fail(span, err)
	}
	if err := uc.repo.DeleteByOwner(ctx, ownerID); err != nil {
		return fail(span, err)
	}

	uc.archive.purge(ctx, ownerID)
	uc.logger.Info("Portfolio deleted", zap.String("owner_id", ownerID))
	publishEvent(uc.publisher, uc.logger, rec, portfolio.EventDeleted)
	return nil
}
