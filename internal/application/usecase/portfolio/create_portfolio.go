package portfolio

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

type CreatePortfolioUseCase struct {
	repo      portfolio.Repository
	publisher service.PortfolioEventPublisher
	logger    logger.Logger
}

func NewCreatePortfolioUseCase(repo portfolio.Repository, publisher service.PortfolioEventPublisher, log logger.Logger) *CreatePortfolioUseCase {
	return &CreatePortfolioUseCase{repo: repo, publisher: publisher, logger: log}
}

type CreatePortfolioInput struct {
	OwnerID  string
	Username string
	// Document is the decoded request body, validated here.
	Document any
}

// Execute validates and stores a first portfolio for the owner. A second
// create for the same owner is a conflict.
func (uc *CreatePortfolioUseCase) Execute(ctx context.Context, input CreatePortfolioInput) (*portfolio.Record, error) {
	ctx, span := tracer.Start(ctx, "CreatePortfolio")
	defer span.End()
	span.SetAttributes(attribute.String("owner_id", input.OwnerID))

	p, err := validate(span, input.Document)
	if err != nil {
		return nil, err
	}

	rec, err := uc.repo.Create(ctx, input.OwnerID, input.Username, p)
	if err != nil {
		return nil, fail(span, err)
	}

	uc.logger.Info("Portfolio created", zap.String("owner_id", rec.OwnerID), zap.String("username", rec.Username))
	publishEvent(uc.publisher, uc.logger, rec, portfolio.EventCreated)
	return rec, nil
}
