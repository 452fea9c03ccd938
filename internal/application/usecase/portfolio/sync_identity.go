package portfolio

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/identity"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const MsgMissingUsername = "Username is missing in webhook data for user.updated event"

// SyncIdentityUseCase keeps stored portfolios in line with account changes
// made in the identity provider.
type SyncIdentityUseCase struct {
	repo      portfolio.Repository
	publisher service.PortfolioEventPublisher
	archive   resumeArchive
	logger    logger.Logger
}

func NewSyncIdentityUseCase(repo portfolio.Repository, publisher service.PortfolioEventPublisher, uploader service.Uploader, archiveFolder string, log logger.Logger) *SyncIdentityUseCase {
	return &SyncIdentityUseCase{
		repo:      repo,
		publisher: publisher,
		archive:   resumeArchive{uploader: uploader, folder: archiveFolder, logger: log},
		logger:    log,
	}
}

func (uc *SyncIdentityUseCase) Execute(ctx context.Context, e identity.Event) error {
	ctx, span := tracer.Start(ctx, "SyncIdentity")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", string(e.Type)), attribute.String("owner_id", e.Data.ID))

	switch e.Type {
	case identity.UserUpdated:
		return uc.rename(ctx, e.Data)
	case identity.UserDeleted:
		return uc.remove(ctx, e.Data.ID)
	default:
		uc.logger.Debug("Ignoring identity event", zap.String("type", string(e.Type)))
		return nil
	}
}

func (uc *SyncIdentityUseCase) rename(ctx context.Context, u identity.User) error {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return apperror.NewAppError(apperror.ErrInvalidInput, MsgMissingUsername, "user "+u.ID, nil)
	}

	updated, err := uc.repo.UpdateUsername(ctx, u.ID, username)
	if err != nil {
		return err
	}
	if !updated {
		return nil
	}

	rec, err := uc.repo.FindByOwner(ctx, u.ID)
	if err != nil {
		uc.logger.Warn("Renamed portfolio vanished before event publish", zap.String("owner_id", u.ID), zap.Error(err))
		return nil
	}
	uc.logger.Info("Portfolio username synced", zap.String("owner_id", u.ID), zap.String("username", username))
	publishEvent(uc.publisher, uc.logger, rec, portfolio.EventUpdated)
	return nil
}

// remove deletes the owner's record and archived resume if there are any.
func (uc *SyncIdentityUseCase) remove(ctx context.Context, ownerID string) error {
	rec, err := uc.repo.FindByOwner(ctx, ownerID)
	if errors.Is(err, apperror.ErrNotFound) {
		uc.archive.purge(ctx, ownerID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteByOwner(ctx, ownerID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	uc.archive.purge(ctx, ownerID)
	uc.logger.Info("Portfolio removed after account deletion", zap.String("owner_id", ownerID))
	publishEvent(uc.publisher, uc.logger, rec, portfolio.EventDeleted)
	return nil
}
