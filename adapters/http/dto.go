package http

import (
	"github.com/khoahotran/folio/internal/domain/portfolio"
)

// PortfolioResponse is a stored portfolio as returned to clients.
type PortfolioResponse = portfolio.Record

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type UpdatePrivacyRequest struct {
	IsPrivate *bool `json:"is_private" binding:"required"`
}

type PrivacyResponse struct {
	IsPrivate bool `json:"is_private"`
}

type EnhanceRequest struct {
	Section string  `json:"section" binding:"required"`
	Text    *string `json:"text" binding:"required"`
}

type EnhanceResponse struct {
	Text string `json:"text"`
}

type ParseResumeResponse struct {
	Portfolio  portfolio.Portfolio `json:"portfolio"`
	ArchiveURL string              `json:"archive_url,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
