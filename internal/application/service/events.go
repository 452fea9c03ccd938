package service

import (
	"context"

	"github.com/khoahotran/folio/internal/domain/portfolio"
)

type PortfolioEventPublisher interface {
	PublishPortfolioEvent(ctx context.Context, e portfolio.Event) error
}
