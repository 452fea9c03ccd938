package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// portfolioModel is the gorm row for the embedded store. ID and Revision are
// bookkeeping and stay inside this package.
type portfolioModel struct {
	ID             string                    `gorm:"column:id;primaryKey;size:36"`
	Revision       int                       `gorm:"column:revision;not null;default:1"`
	OwnerID        string                    `gorm:"column:owner_id;size:191;not null;uniqueIndex:idx_portfolios_owner_id"`
	Username       string                    `gorm:"column:username;size:191;not null;uniqueIndex:idx_portfolios_username"`
	IsPrivate      bool                      `gorm:"column:is_private;not null;default:false"`
	Template       int                       `gorm:"column:template;not null"`
	Personal       portfolio.Personal        `gorm:"column:personal;type:text;serializer:json;not null"`
	Summary        *string                   `gorm:"column:professional_summary;type:text"`
	Education      []portfolio.Education     `gorm:"column:education;type:text;serializer:json;not null"`
	Experience     []portfolio.Experience    `gorm:"column:experience;type:text;serializer:json;not null"`
	Skills         portfolio.Skills          `gorm:"column:skills;type:text;serializer:json;not null"`
	Projects       []portfolio.Project       `gorm:"column:projects;type:text;serializer:json;not null"`
	Certifications []portfolio.Certification `gorm:"column:certifications;type:text;serializer:json;not null"`
	CreatedAt      time.Time                 `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;not null"`
}

func (portfolioModel) TableName() string {
	return "portfolios"
}

var replacedColumns = []string{
	"username", "template", "personal", "professional_summary", "education",
	"experience", "skills", "projects", "certifications", "updated_at",
}

func newPortfolioModel(ownerID, username string, p portfolio.Portfolio) portfolioModel {
	p = withDefaults(p)
	return portfolioModel{
		ID:             uuid.NewString(),
		Revision:       1,
		OwnerID:        ownerID,
		Username:       username,
		Template:       p.Template,
		Personal:       p.Personal,
		Summary:        p.ProfessionalSummary,
		Education:      p.Education,
		Experience:     p.Experience,
		Skills:         p.Skills,
		Projects:       p.Projects,
		Certifications: p.Certifications,
	}
}

func (m *portfolioModel) toRecord() *portfolio.Record {
	return &portfolio.Record{
		Portfolio: withDefaults(portfolio.Portfolio{
			Template:            m.Template,
			Personal:            m.Personal,
			ProfessionalSummary: m.Summary,
			Education:           m.Education,
			Experience:          m.Experience,
			Skills:              m.Skills,
			Projects:            m.Projects,
			Certifications:      m.Certifications,
		}),
		OwnerID:   m.OwnerID,
		Username:  m.Username,
		IsPrivate: m.IsPrivate,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type sqlitePortfolioRepo struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewSQLitePortfolioRepo(db *gorm.DB, log logger.Logger) portfolio.Repository {
	return &sqlitePortfolioRepo{db: db, logger: log}
}

// isUniqueViolation matches the driver's constraint message, which names the
// offending column.
func isUniqueViolation(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "portfolios."+column)
}

func sqliteWriteError(err error, ownerID, username string) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case isUniqueViolation(err, "username"):
		return usernameConflict(username)
	case isUniqueViolation(err, "owner_id"):
		return ownerConflict(ownerID)
	default:
		return apperror.NewInternal("failed to write portfolio", err)
	}
}

func (r *sqlitePortfolioRepo) first(db *gorm.DB, column, value string) (*portfolio.Record, error) {
	var m portfolioModel
	if err := db.Where(column+" = ?", value).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(value)
		}
		return nil, apperror.NewInternal("failed to read portfolio", err)
	}
	return m.toRecord(), nil
}

func (r *sqlitePortfolioRepo) Create(ctx context.Context, ownerID, username string, p portfolio.Portfolio) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	if err := requireKey("username", username); err != nil {
		return nil, err
	}

	m := newPortfolioModel(ownerID, username, p)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, sqliteWriteError(err, ownerID, username)
	}
	return m.toRecord(), nil
}

func (r *sqlitePortfolioRepo) UpsertByOwner(ctx context.Context, ownerID, username string, p portfolio.Portfolio) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	if err := requireKey("username", username); err != nil {
		return nil, err
	}

	var rec *portfolio.Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := newPortfolioModel(ownerID, username, p)
		updates := append(clause.AssignmentColumns(replacedColumns), clause.Assignment{
			Column: clause.Column{Name: "revision"},
			Value:  gorm.Expr("portfolios.revision + 1"),
		})
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			DoUpdates: updates,
		}).Create(&m).Error
		if err != nil {
			return err
		}
		rec, err = r.first(tx, "owner_id", ownerID)
		return err
	})
	if err != nil {
		return nil, sqliteWriteError(err, ownerID, username)
	}
	return rec, nil
}

func (r *sqlitePortfolioRepo) FindByUsername(ctx context.Context, username string) (*portfolio.Record, error) {
	if err := requireKey("username", username); err != nil {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx), "username", username)
}

func (r *sqlitePortfolioRepo) FindByOwner(ctx context.Context, ownerID string) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx), "owner_id", ownerID)
}

func (r *sqlitePortfolioRepo) ExistsByOwner(ctx context.Context, ownerID string) (bool, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return false, err
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&portfolioModel{}).Where("owner_id = ?", ownerID).Count(&n).Error
	if err != nil {
		return false, apperror.NewInternal("failed to check portfolio existence", err)
	}
	return n > 0, nil
}

func (r *sqlitePortfolioRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if err := requireKey("owner_id", ownerID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&portfolioModel{})
	if res.Error != nil {
		return apperror.NewInternal("failed to delete portfolio", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(ownerID)
	}
	return nil
}

func (r *sqlitePortfolioRepo) SetPrivacy(ctx context.Context, ownerID string, isPrivate bool) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}

	var rec *portfolio.Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&portfolioModel{}).Where("owner_id = ?", ownerID).Updates(map[string]any{
			"is_private": isPrivate,
			"revision":   gorm.Expr("revision + 1"),
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return apperror.NewInternal("failed to update portfolio privacy", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound(ownerID)
		}
		var err error
		rec, err = r.first(tx, "owner_id", ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *sqlitePortfolioRepo) UpdateUsername(ctx context.Context, ownerID, username string) (bool, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return false, err
	}
	if err := requireKey("username", username); err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).Model(&portfolioModel{}).
		Where("owner_id = ? AND username <> ?", ownerID, username).
		Updates(map[string]any{
			"username":   username,
			"revision":   gorm.Expr("revision + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, sqliteWriteError(res.Error, ownerID, username)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	return r.ExistsByOwner(ctx, ownerID)
}
