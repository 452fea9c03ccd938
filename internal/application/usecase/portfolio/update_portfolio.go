package portfolio

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

type UpdatePortfolioUseCase struct {
	repo      portfolio.Repository
	publisher service.PortfolioEventPublisher
	logger    logger.Logger
}

func NewUpdatePortfolioUseCase(repo portfolio.Repository, publisher service.PortfolioEventPublisher, log logger.Logger) *UpdatePortfolioUseCase {
	return &UpdatePortfolioUseCase{repo: repo, publisher: publisher, logger: log}
}

type UpdatePortfolioInput struct {
	OwnerID  string
	Username string
	Document any
}

// Execute replaces the owner's portfolio, creating it when absent. The
// privacy flag is kept.
func (uc *UpdatePortfolioUseCase) Execute(ctx context.Context, input UpdatePortfolioInput) (*portfolio.Record, error) {
	ctx, span := tracer.Start(ctx, "UpdatePortfolio")
	defer span.End()
	span.SetAttributes(attribute.String("owner_id", input.OwnerID))

	p, err := validate(span, input.Document)
	if err != nil {
		return nil, err
	}

	rec, err := uc.repo.UpsertByOwner(ctx, input.OwnerID, input.Username, p)
	if err != nil {
		return nil, fail(span, err)
	}

	uc.logger.Info("Portfolio updated", zap.String("owner_id", rec.OwnerID))
	publishEvent(uc.publisher, uc.logger, rec, portfolio.EventUpdated)
	return rec, nil
}
