package portfolio

import (
	"context"
	"time"
)

// Portfolio is the validated, fully populated profile built from a resume.
type Portfolio struct {
	Template            int             `json:"template"`
	Personal            Personal        `json:"personal"`
	ProfessionalSummary *string         `json:"professional_summary"`
	Education           []Education     `json:"education"`
	Experience          []Experience    `json:"experience"`
	Skills              Skills          `json:"skills"`
	Projects            []Project       `json:"projects"`
	Certifications      []Certification `json:"certifications"`
}

type Personal struct {
	Name     string  `json:"name"`
	JobTitle string  `json:"job_title"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	LinkedIn *string `json:"linkedin"`
	GitHub   *string `json:"github"`
	Location *string `json:"location"`
}

type Education struct {
	Degree      string  `json:"degree"`
	Institution *string `json:"institution"`
	Grade       *string `json:"grade"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

type Experience struct {
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type Skills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          *string  `json:"url"`
	Repo         *string  `json:"repo"`
}

type Certification struct {
	Name     string  `json:"name"`
	IssuedBy *string `json:"issued_by"`
	Date     *string `json:"date"`
}

// Record is a stored portfolio as seen by callers of a Repository. Storage
// bookkeeping (row ids, revision counters) never appears here.
type Record struct {
	Portfolio
	OwnerID   string    `json:"owner_id"`
	Username  string    `json:"username"`
	IsPrivate bool      `json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleTo reports whether viewerID may read the record. Private records are
// only visible to their owner.
func (r *Record) VisibleTo(viewerID string) bool {
	return !r.IsPrivate || (viewerID != "" && viewerID == r.OwnerID)
}

// Repository persists one portfolio per owner. Implementations enforce unique
// owner ids and usernames in storage, not by check-then-write.
type Repository interface {
	// Create fails with a conflict if the owner already has a record.
	Create(ctx context.Context, ownerID, username string, p Portfolio) (*Record, error)
	// UpsertByOwner inserts or fully replaces the owner's portfolio.
	UpsertByOwner(ctx context.Context, ownerID, username string, p Portfolio) (*Record, error)
	FindByUsername(ctx context.Context, username string) (*Record, error)
	FindByOwner(ctx context.Context, ownerID string) (*Record, error)
	// ExistsByOwner never reports not found; absence is false.
	ExistsByOwner(ctx context.Context, ownerID string) (bool, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
	// SetPrivacy patches only the privacy flag.
	SetPrivacy(ctx context.Context, ownerID string, isPrivate bool) (*Record, error)
	// UpdateUsername renames the owner's record; (false, nil) when there is none.
	UpdateUsername(ctx context.Context, ownerID, username string) (bool, error)
}

// Messages shown to callers for storage conditions.
const (
	MsgNotFound = "Portfolio not found"
	MsgConflict = "A portfolio already exists for this user"
	MsgUsername = "This username is already taken"
)
