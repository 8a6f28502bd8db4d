package mailtm

import (
	"time"

	"github.com/pryvon/mailtm-go/internal/api"
)

// Domain is a provider domain usable for new addresses.
type Domain struct {
	ID        string
	Domain    string
	IsActive  bool
	IsPrivate bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newDomains(ds []api.Domain) []Domain {
	out := make([]Domain, 0, len(ds))
	for _, d := range ds {
		out = append(out, Domain{
			ID:        d.ID,
			Domain:    d.Domain,
			IsActive:  d.IsActive,
			IsPrivate: d.IsPrivate,
			CreatedAt: parseTime(d.CreatedAt),
			UpdatedAt: parseTime(d.UpdatedAt),
		})
	}
	return out
}
