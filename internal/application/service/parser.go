package service

import (
	"context"

	"github.com/khoahotran/folio/internal/domain/portfolio"
)

// ResumeFile is an uploaded resume document.
type ResumeFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ResumeParser interface {
	Parse(ctx context.Context, file ResumeFile) (*portfolio.ParsedResume, error)
}
