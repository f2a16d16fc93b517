// Package models defines user plan and credit tracking fields.
package models

import (
	"database/sql"
	"time"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
)

// ProCreditsLimit is the sentinel limit for effectively unlimited usage.
const ProCreditsLimit = 999999

type User struct {
	ID                 string         `db:"id"`
	Email              sql.NullString `db:"email"`
	Plan               Plan           `db:"plan"`
	CreditsUsed        int            `db:"credits_used"`
	CreditsLimit       int            `db:"credits_limit"`
	LSCustomerID       sql.NullString `db:"ls_customer_id"`
	LSSubscriptionID   sql.NullString `db:"ls_subscription_id"`
	SubscriptionStatus sql.NullString `db:"subscription_status"`
	UpdatedAt          time.Time      `db:"updated_at"`
}
