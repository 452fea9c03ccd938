package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	pgUniqueViolation        = "23505"
	constraintOwnerUnique    = "portfolios_owner_id_key"
	constraintUsernameUnique = "portfolios_username_key"
)

var portfolioColumns = []string{
	"id", "revision", "owner_id", "username", "is_private", "template",
	"personal", "professional_summary", "education", "experience", "skills",
	"projects", "certifications", "created_at", "updated_at",
}

type postgresPortfolioRepo struct {
	db     *pgxpool.Pool
	psql   sq.StatementBuilderType
	logger logger.Logger
}

func NewPostgresPortfolioRepo(db *pgxpool.Pool, log logger.Logger) portfolio.Repository {
	return &postgresPortfolioRepo{
		db:     db,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: log,
	}
}

// portfolioRow mirrors the table, bookkeeping columns included.
type portfolioRow struct {
	ID        uuid.UUID
	Revision  int
	OwnerID   string
	Username  string
	IsPrivate bool
	Template  int
	Summary   *string
	CreatedAt time.Time
	UpdatedAt time.Time

	personal, education, experience, skills, projects, certifications []byte
}

func (r *portfolioRow) scanTargets() []any {
	return []any{
		&r.ID, &r.Revision, &r.OwnerID, &r.Username, &r.IsPrivate, &r.Template,
		&r.personal, &r.Summary, &r.education, &r.experience, &r.skills,
		&r.projects, &r.certifications, &r.CreatedAt, &r.UpdatedAt,
	}
}

// toRecord decodes the JSONB documents into the typed portfolio shape and
// drops the row id and revision. Keys outside the shape are discarded.
func (r *portfolioRow) toRecord() (*portfolio.Record, error) {
	var p portfolio.Portfolio
	p.Template = r.Template
	p.ProfessionalSummary = r.Summary

	docs := []struct {
		name string
		data []byte
		dst  any
	}{
		{"personal", r.personal, &p.Personal},
		{"education", r.education, &p.Education},
		{"experience", r.experience, &p.Experience},
		{"skills", r.skills, &p.Skills},
		{"projects", r.projects, &p.Projects},
		{"certifications", r.certifications, &p.Certifications},
	}
	for _, d := range docs {
		if len(d.data) == 0 {
			continue
		}
		if err := json.Unmarshal(d.data, d.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.name, err)
		}
	}

	return &portfolio.Record{
		Portfolio: withDefaults(p),
		OwnerID:   r.OwnerID,
		Username:  r.Username,
		IsPrivate: r.IsPrivate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

type portfolioDocs struct {
	personal, education, experience, skills, projects, certifications []byte
}

func marshalDocs(p portfolio.Portfolio) (portfolioDocs, error) {
	p = withDefaults(p)
	var docs portfolioDocs
	var err error
	if docs.personal, err = json.Marshal(p.Personal); err != nil {
		return docs, err
	}
	if docs.education, err = json.Marshal(p.Education); err != nil {
		return docs, err
	}
	if docs.experience, err = json.Marshal(p.Experience); err != nil {
		return docs, err
	}
	if docs.skills, err = json.Marshal(p.Skills); err != nil {
		return docs, err
	}
	if docs.projects, err = json.Marshal(p.Projects); err != nil {
		return docs, err
	}
	docs.certifications, err = json.Marshal(p.Certifications)
	return docs, err
}

// scanRecord returns driver errors untouched so callers can tell reads from
// conflicting writes.
func (r *postgresPortfolioRepo) scanRecord(row pgx.Row) (*portfolio.Record, error) {
	var pr portfolioRow
	if err := row.Scan(pr.scanTargets()...); err != nil {
		return nil, err
	}
	rec, err := pr.toRecord()
	if err != nil {
		r.logger.Error("Stored portfolio is unreadable", err, zap.String("owner_id", pr.OwnerID))
		return nil, apperror.NewInternal("failed to decode portfolio", err)
	}
	return rec, nil
}

func translateReadError(err error, identifier string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(identifier)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal("failed to read portfolio", err)
}

// translateWriteError maps unique violations onto conflicts.
func translateWriteError(err error, ownerID, username string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == constraintUsernameUnique {
			return usernameConflict(username)
		}
		return ownerConflict(ownerID)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal("failed to write portfolio", err)
}

const insertPortfolioSQL = `
	INSERT INTO portfolios (
		id, owner_id, username, is_private, template, personal, professional_summary,
		education, experience, skills, projects, certifications
	) VALUES ($1, $2, $3, FALSE, $4, $5, $6, $7, $8, $9, $10, $11)`

const returningPortfolio = `
	RETURNING id, revision, owner_id, username, is_private, template, personal,
		professional_summary, education, experience, skills, projects, certifications,
		created_at, updated_at`

func (r *postgresPortfolioRepo) Create(ctx context.Context, ownerID, username string, p portfolio.Portfolio) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	if err := requireKey("username", username); err != nil {
		return nil, err
	}

	docs, err := marshalDocs(p)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal portfolio", err)
	}

	// A plain INSERT: the owner_id unique constraint decides concurrent creates.
	row := r.db.QueryRow(ctx, insertPortfolioSQL+returningPortfolio,
		uuid.New(), ownerID, username, p.Template, docs.personal, p.ProfessionalSummary,
		docs.education, docs.experience, docs.skills, docs.projects, docs.certifications,
	)
	rec, err := r.scanRecord(row)
	if err != nil {
		return nil, translateWriteError(err, ownerID, username)
	}
	return rec, nil
}

func (r *postgresPortfolioRepo) UpsertByOwner(ctx context.Context, ownerID, username string, p portfolio.Portfolio) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	if err := requireKey("username", username); err != nil {
		return nil, err
	}

	docs, err := marshalDocs(p)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal portfolio", err)
	}

	query := insertPortfolioSQL + `
		ON CONFLICT (owner_id) DO UPDATE SET
			username = EXCLUDED.username,
			template = EXCLUDED.template,
			personal = EXCLUDED.personal,
			professional_summary = EXCLUDED.professional_summary,
			education = EXCLUDED.education,
			experience = EXCLUDED.experience,
			skills = EXCLUDED.skills,
			projects = EXCLUDED.projects,
			certifications = EXCLUDED.certifications,
			revision = portfolios.revision + 1,
			updated_at = NOW()` + returningPortfolio

	row := r.db.QueryRow(ctx, query,
		uuid.New(), ownerID, username, p.Template, docs.personal, p.ProfessionalSummary,
		docs.education, docs.experience, docs.skills, docs.projects, docs.certifications,
	)
	rec, err := r.scanRecord(row)
	if err != nil {
		return nil, translateWriteError(err, ownerID, username)
	}
	return rec, nil
}

func (r *postgresPortfolioRepo) findOne(ctx context.Context, column, value string) (*portfolio.Record, error) {
	query, args, err := r.psql.Select(portfolioColumns...).
		From("portfolios").
		Where(sq.Eq{column: value}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build portfolio query", err)
	}
	rec, err := r.scanRecord(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateReadError(err, value)
	}
	return rec, nil
}

func (r *postgresPortfolioRepo) FindByUsername(ctx context.Context, username string) (*portfolio.Record, error) {
	if err := requireKey("username", username); err != nil {
		return nil, err
	}
	return r.findOne(ctx, "username", username)
}

func (r *postgresPortfolioRepo) FindByOwner(ctx context.Context, ownerID string) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	return r.findOne(ctx, "owner_id", ownerID)
}

func (r *postgresPortfolioRepo) ExistsByOwner(ctx context.Context, ownerID string) (bool, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return false, err
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM portfolios WHERE owner_id = $1)`, ownerID).Scan(&exists)
	if err != nil {
		return false, apperror.NewInternal("failed to check portfolio existence", err)
	}
	return exists, nil
}

func (r *postgresPortfolioRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if err := requireKey("owner_id", ownerID); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolios WHERE owner_id = $1`, ownerID)
	if err != nil {
		return apperror.NewInternal("failed to delete portfolio", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(ownerID)
	}
	return nil
}

func (r *postgresPortfolioRepo) SetPrivacy(ctx context.Context, ownerID string, isPrivate bool) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	query := `
		UPDATE portfolios
		SET is_private = $2, revision = revision + 1, updated_at = NOW()
		WHERE owner_id = $1` + returningPortfolio
	rec, err := r.scanRecord(r.db.QueryRow(ctx, query, ownerID, isPrivate))
	if err != nil {
		return nil, translateReadError(err, ownerID)
	}
	return rec, nil
}

func (r *postgresPortfolioRepo) UpdateUsername(ctx context.Context, ownerID, username string) (bool, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return false, err
	}
	if err := requireKey("username", username); err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE portfolios
		SET username = $2, revision = revision + 1, updated_at = NOW()
		WHERE owner_id = $1 AND username <> $2`, ownerID, username)
	if err != nil {
		return false, translateWriteError(err, ownerID, username)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	// Either no record or the username is unchanged.
	return r.ExistsByOwner(ctx, ownerID)
}
