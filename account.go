package mailtm

import (
	"time"

	"github.com/pryvon/mailtm-go/internal/api"
)

// Account is a read-only projection of a provider account.
type Account struct {
	ID         string
	Address    string
	Quota      int64
	Used       int64
	IsDisabled bool
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AccountStats summarizes quota usage for the logged-in account plus
// client-side counters.
type AccountStats struct {
	Address         string
	QuotaUsed       int64
	QuotaTotal      int64
	QuotaPercentage float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	RequestCount    int64
	Cache           CacheStats
}

func newAccount(a *api.Account) *Account {
	if a == nil {
		return nil
	}
	return &Account{
		ID:         a.ID,
		Address:    a.Address,
		Quota:      a.Quota,
		Used:       a.Used,
		IsDisabled: a.IsDisabled,
		IsDeleted:  a.IsDeleted,
		CreatedAt:  parseTime(a.CreatedAt),
		UpdatedAt:  parseTime(a.UpdatedAt),
	}
}

// parseTime decodes a provider timestamp. Missing or malformed values
// degrade to the zero time rather than failing the response.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
