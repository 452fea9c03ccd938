package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

var tracer = otel.Tracer("portfolio_usecase")

// publishEvent sends e in the background. Delivery failures are logged and
// never fail the write that caused them.
func publishEvent(publisher service.PortfolioEventPublisher, log logger.Logger, rec *portfolio.Record, typ portfolio.EventType) {
	e := portfolio.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OwnerID:    rec.OwnerID,
		Username:   rec.Username,
		IsPrivate:  rec.IsPrivate,
		OccurredAt: time.Now().UTC(),
	}
	go func() {
		if err := publisher.PublishPortfolioEvent(context.Background(), e); err != nil {
			log.Error("Failed to publish portfolio event", err,
				zap.String("event_type", string(typ)),
				zap.String("owner_id", e.OwnerID),
			)
		}
	}()
}

// validate runs the portfolio schema over a decoded request body.
func validate(span trace.Span, raw any) (portfolio.Portfolio, error) {
	res := portfolio.Validate(raw)
	if !res.OK() {
		err := apperror.NewValidation(res.Issues)
		span.RecordError(err)
		span.SetAttributes(attribute.Int("validation.issues", len(res.Issues)))
		return portfolio.Portfolio{}, err
	}
	return res.Value, nil
}

// hidden reports a private record exactly like a missing one.
func hidden(username string) error {
	err := apperror.NewNotFound("Portfolio", username)
	err.Message = portfolio.MsgNotFound
	return err
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	return err
}
