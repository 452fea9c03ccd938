package portfolio

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/folio/internal/domain/portfolio"
)

type GetPublicPortfolioUseCase struct {
	repo portfolio.Repository
}

func NewGetPublicPortfolioUseCase(repo portfolio.Repository) *GetPublicPortfolioUseCase {
	return &GetPublicPortfolioUseCase{repo: repo}
}

type GetPublicPortfolioInput struct {
	Username string
	// ViewerID is the signed-in caller, empty for anonymous visitors.
	ViewerID string
}

func (uc *GetPublicPortfolioUseCase) Execute(ctx context.Context, input GetPublicPortfolioInput) (*portfolio.Record, error) {
	ctx, span := tracer.Start(ctx, "GetPublicPortfolio")
	defer span.End()
	span.SetAttributes(attribute.String("username", input.Username))

	rec, err := uc.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, fail(span, err)
	}
	if !rec.VisibleTo(input.ViewerID) {
		return nil, fail(span, hidden(input.Username))
	}
	return rec, nil
}

type GetOwnPortfolioUseCase struct {
	repo portfolio.Repository
}

func NewGetOwnPortfolioUseCase(repo portfolio.Repository) *GetOwnPortfolioUseCase {
	return &GetOwnPortfolioUseCase{repo: repo}
}

func (uc *GetOwnPortfolioUseCase) Execute(ctx context.Context, ownerID string) (*portfolio.Record, error) {
	ctx, span := tracer.Start(ctx, "GetOwnPortfolio")
	defer span.End()

	rec, err := uc.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fail(span, err)
	}
	return rec, nil
}

type PortfolioExistsUseCase struct {
	repo portfolio.Repository
}

func NewPortfolioExistsUseCase(repo portfolio.Repository) *PortfolioExistsUseCase {
	return &PortfolioExistsUseCase{repo: repo}
}

func (uc *PortfolioExistsUseCase) Execute(ctx context.Context, ownerID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "PortfolioExists")
	defer span.End()

	exists, err := uc.repo.ExistsByOwner(ctx, ownerID)
	if err != nil {
		return false, fail(span, err)
	}
	span.SetAttributes(attribute.Bool("exists", exists))
	return exists, nil
}
