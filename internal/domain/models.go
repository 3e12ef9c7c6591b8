package domain

import "time"

type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

// AllowedStatus reports whether s is one of the statuses an account may
// carry. Anything else is rejected at login rather than treated as active.
func AllowedStatus(s AccountStatus) bool {
	switch s {
	case AccountStatusPending, AccountStatusActive, AccountStatusInactive:
		return true
	}
	return false
}

type Account struct {
	ID                 int64
	Username           string
	DisplayName        string
	Status             AccountStatus
	MustChangePassword bool
	CreatedAt          time.Time
	LastLoginAt        *time.Time
}

type AccountWithPassword struct {
	Account
	PasswordHash string
}

type Session struct {
	ID         string
	AccountID  int64
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Contract is the tracked entity. Nullable columns are pointers so that
// absent values survive the round trip to JSON as null.
type Contract struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	Vendor            *string    `json:"vendor"`
	ContractNumber    *string    `json:"contract_number"`
	ValueCents        *int64     `json:"value_cents"`
	RenewalNoticeDays *int64     `json:"renewal_notice_days"`
	AutoRenew         *bool      `json:"auto_renew"`
	StartsOn          *time.Time `json:"starts_on"`
	ExpiresOn         *time.Time `json:"expires_on"`
	CategoryID        *int64     `json:"category_id"`
	StatusID          *int64     `json:"status_id"`
	CreatedBy         *int64     `json:"created_by"`
	UpdatedBy         *int64     `json:"updated_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LookupRow is one entry of a name-keyed lookup table (categories, statuses).
type LookupRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Field is one column/value pair of a sanitized mutation. The mutation
// layer only emits whitelisted column names; values always travel as
// statement parameters.
type Field struct {
	Column string
	Value  any
}
