package portfolio

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/legacy"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type ImportDocumentsUseCase struct {
	repo   portfolio.Repository
	logger logger.Logger
}

func NewImportDocumentsUseCase(repo portfolio.Repository, log logger.Logger) *ImportDocumentsUseCase {
	return &ImportDocumentsUseCase{repo: repo, logger: log}
}

type ImportFailure struct {
	Line    int
	OwnerID string
	Message string
}

type ImportDocumentsOutput struct {
	Imported int
	Skipped  []ImportFailure
}

// Execute validates and upserts each exported document. Invalid documents are
// reported and skipped; only context cancellation stops the run.
func (uc *ImportDocumentsUseCase) Execute(ctx context.Context, docs []legacy.Document) (*ImportDocumentsOutput, error) {
	ctx, span := tracer.Start(ctx, "ImportDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("documents", len(docs)))

	out := &ImportDocumentsOutput{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return out, fail(span, err)
		}
		if msg := uc.importOne(ctx, doc); msg != "" {
			uc.logger.Warn("Skipped legacy document",
				zap.Int("line", doc.Line),
				zap.String("owner_id", doc.OwnerID),
				zap.String("reason", msg),
			)
			out.Skipped = append(out.Skipped, ImportFailure{Line: doc.Line, OwnerID: doc.OwnerID, Message: msg})
			continue
		}
		out.Imported++
	}

	span.SetAttributes(attribute.Int("imported", out.Imported), attribute.Int("skipped", len(out.Skipped)))
	return out, nil
}

// importOne returns the reason a document was skipped, or "".
func (uc *ImportDocumentsUseCase) importOne(ctx context.Context, doc legacy.Document) string {
	if strings.TrimSpace(doc.OwnerID) == "" {
		return "clerkId is required"
	}
	if strings.TrimSpace(doc.Username) == "" {
		return "username is required"
	}

	res := portfolio.Validate(doc.Fields)
	if !res.OK() {
		first, _ := res.Issues.First()
		if p := first.Path.String(); p != "" {
			return p + ": " + first.Message
		}
		return first.Message
	}

	rec, err := uc.repo.UpsertByOwner(ctx, doc.OwnerID, doc.Username, res.Value)
	if err != nil {
		return errorMessage(err)
	}
	if rec.IsPrivate != doc.IsPrivate {
		if _, err := uc.repo.SetPrivacy(ctx, doc.OwnerID, doc.IsPrivate); err != nil {
			return errorMessage(err)
		}
	}
	return ""
}

func errorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
