package persistence

import (
	"strings"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

// requireKey rejects blank key arguments before any storage round trip.
func requireKey(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.NewInvalidArgument(name)
	}
	return nil
}

func notFound(identifier string) error {
	err := apperror.NewNotFound("Portfolio", identifier)
	err.Message = portfolio.MsgNotFound
	return err
}

func ownerConflict(ownerID string) error {
	err := apperror.NewConflict("Portfolio", "owner_id", ownerID)
	err.Message = portfolio.MsgConflict
	return err
}

func usernameConflict(username string) error {
	err := apperror.NewConflict("Portfolio", "username", username)
	err.Message = portfolio.MsgUsername
	return err
}

// withDefaults keeps collections non-nil for records decoded from storage.
func withDefaults(p portfolio.Portfolio) portfolio.Portfolio {
	if p.Education == nil {
		p.Education = []portfolio.Education{}
	}
	if p.Experience == nil {
		p.Experience = []portfolio.Experience{}
	}
	if p.Skills.Technical == nil {
		p.Skills.Technical = []string{}
	}
	if p.Skills.Soft == nil {
		p.Skills.Soft = []string{}
	}
	if p.Projects == nil {
		p.Projects = []portfolio.Project{}
	}
	for i := range p.Projects {
		if p.Projects[i].Technologies == nil {
			p.Projects[i].Technologies = []string{}
		}
	}
	if p.Certifications == nil {
		p.Certifications = []portfolio.Certification{}
	}
	return p
}
