package portfolio

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

type SetPrivacyUseCase struct {
	repo      portfolio.Repository
	publisher service.PortfolioEventPublisher
	logger    logger.Logger
}

func NewSetPrivacyUseCase(repo portfolio.Repository, publisher service.PortfolioEventPublisher, log logger.Logger) *SetPrivacyUseCase {
	return &SetPrivacyUseCase{repo: repo, publisher: publisher, logger: log}
}

type SetPrivacyInput struct {
	OwnerID   string
	IsPrivate bool
}

func (uc *SetPrivacyUseCase) Execute(ctx context.Context, input SetPrivacyInput) (*portfolio.Record, error) {
	ctx, span := tracer.Start(ctx, "SetPrivacy")
	defer span.End()
	span.SetAttributes(attribute.String("owner_id", input.OwnerID), attribute.Bool("is_private", input.IsPrivate))

	rec, err := uc.repo.SetPrivacy(ctx, input.OwnerID, input.IsPrivate)
	if err != nil {
		return nil, fail(span, err)
	}

	uc.logger.Info("Portfolio privacy changed", zap.String("owner_id", rec.OwnerID), zap.Bool("is_private", rec.IsPrivate))
	publishEvent(uc.publisher, uc.logger, rec, portfolio.EventPrivacyChanged)
	return rec, nil
}
