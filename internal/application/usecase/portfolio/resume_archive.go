package portfolio

import (
	"bytes"
	"context"
	"path"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/logger"
)

// ResumePublicID names the one archived upload kept per owner. A new upload
// overwrites it.
const ResumePublicID = "resume"

// resumeArchive keeps the latest uploaded resume of each owner under
// <folder>/<owner>/resume. A nil uploader turns every call into a no-op.
type resumeArchive struct {
	uploader service.Uploader
	folder   string
	logger   logger.Logger
}

func (a resumeArchive) dir(ownerID string) string {
	return path.Join(a.folder, ownerID)
}

// store returns the archive URL, or "" when archiving is off or failed.
func (a resumeArchive) store(ctx context.Context, ownerID string, data []byte) string {
	if a.uploader == nil || ownerID == "" {
		return ""
	}
	url, err := a.uploader.Upload(ctx, bytes.NewReader(data), a.dir(ownerID), ResumePublicID)
	if err != nil {
		a.logger.Warn("Failed to archive resume", zap.String("owner_id", ownerID), zap.Error(err))
		return ""
	}
	return url
}

// purge removes the owner's archived resume. Failures are logged only.
func (a resumeArchive) purge(ctx context.Context, ownerID string) {
	if a.uploader == nil || ownerID == "" {
		return
	}
	publicID := path.Join(a.dir(ownerID), ResumePublicID)
	if err := a.uploader.Delete(ctx, publicID); err != nil {
		a.logger.Warn("Failed to delete archived resume", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
