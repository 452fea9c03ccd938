package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/domain/identity"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

func seed(t *testing.T, repo portfolio.Repository, ownerID, username string) {
	t.Helper()
	res := portfolio.Validate(document("Jane"))
	require.True(t, res.OK(), res.Issues.Error())
	_, err := repo.Create(context.Background(), ownerID, username, res.Value)
	require.NoError(t, err)
}

func TestSyncIdentity_UserUpdatedRenames(t *testing.T) {
	repo := newRepo(t)
	pub := newRecordingPublisher()
	uc := NewSyncIdentityUseCase(repo, pub, nil, "resumes", logger.NewNopLogger())
	seed(t, repo, "user_1", "jane")

	err := uc.Execute(context.Background(), identity.Event{Type: identity.UserUpdated, Data: identity.User{ID: "user_1", Username: "jane-doe"}})
	require.NoError(t, err)

	rec, err := repo.FindByUsername(context.Background(), "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "user_1", rec.OwnerID)

	e := pub.next(t)
	assert.Equal(t, portfolio.EventUpdated, e.Type)
	assert.Equal(t, "jane-doe", e.Username)
}

func TestSyncIdentity_UserUpdatedWithoutRecordIsNoop(t *testing.T) {
	pub := newRecordingPublisher()
	uc := NewSyncIdentityUseCase(newRepo(t), pub, nil, "resumes", logger.NewNopLogger())

	err := uc.Execute(context.Background(), identity.Event{Type: identity.UserUpdated, Data: identity.User{ID: "ghost", Username: "ghost"}})
	require.NoError(t, err)
	pub.none(t)
}

func TestSyncIdentity_UserUpdatedRequiresUsername(t *testing.T) {
	uc := NewSyncIdentityUseCase(newRepo(t), newRecordingPublisher(), nil, "resumes", logger.NewNopLogger())

	err := uc.Execute(context.Background(), identity.Event{Type: identity.UserUpdated, Data: identity.User{ID: "user_1"}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, MsgMissingUsername, appMessage(t, err))
}

func TestSyncIdentity_UserDeleted(t *testing.T) {
	repo := newRepo(t)
	pub := newRecordingPublisher()
	uploader := &stubUploader{}
	uc := NewSyncIdentityUseCase(repo, pub, uploader, "resumes", logger.NewNopLogger())
	seed(t, repo, "user_1", "jane")

	ev := identity.Event{Type: identity.UserDeleted, Data: identity.User{ID: "user_1"}}
	require.NoError(t, uc.Execute(context.Background(), ev))
	assert.Equal(t, portfolio.EventDeleted, pub.next(t).Type)

	exists, err := repo.ExistsByOwner(context.Background(), "user_1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, uc.Execute(context.Background(), ev), "deleting twice is a no-op")
	pub.none(t)
	assert.Equal(t, []string{"resumes/user_1/resume", "resumes/user_1/resume"}, uploader.deleted,
		"archived resume is removed even when no portfolio was saved")
}

func TestSyncIdentity_UnknownTypeIgnored(t *testing.T) {
	uc := NewSyncIdentityUseCase(newRepo(t), newRecordingPublisher(), nil, "resumes", logger.NewNopLogger())

	err := uc.Execute(context.Background(), identity.Event{Type: "session.created", Data: identity.User{ID: "user_1"}})
	assert.NoError(t, err)
}
