// Package app provides user persistence helpers for authenticated requests.
package app

import (
	"context"
	"database/sql"
	"strings"

	"github.com/besservanja-cell/OutreachAI/app/models"
	"github.com/besservanja-cell/OutreachAI/auth"
)

// UpsertUserFromClaims creates a user row if it does not already exist.
// New users start on the free plan with the default credit limit.
func UpsertUserFromClaims(ctx context.Context, claims *auth.Claims) error {
	if db == nil {
		return nil
	}
	if claims == nil || claims.Subject == "" {
		return nil
	}

	email := readStringClaim(claims.Raw, "email")

	const q = `
		INSERT INTO users (id, email, plan, credits_used, credits_limit)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING;
	`

	_, err := db.ExecContext(
		ctx,
		q,
		claims.Subject,
		nullIfEmpty(email),
		models.PlanFree,
		0,
		creditsLimitForPlan(models.PlanFree),
	)
	return err
}

func readStringClaim(raw map[string]any, key string) string {
	if raw == nil {
		return ""
	}
	val, ok := raw[key]
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func getUserByID(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, `
		SELECT email, plan, credits_used, credits_limit,
			ls_customer_id, ls_subscription_id, subscription_status, updated_at
		FROM users
		WHERE id = $1;
	`, userID).Scan(
		&user.Email,
		&user.Plan,
		&user.CreditsUsed,
		&user.CreditsLimit,
		&user.LSCustomerID,
		&user.LSSubscriptionID,
		&user.SubscriptionStatus,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	user.ID = userID
	return user, nil
}

// getUserBySubscription locates a user by the stored billing subscription id.
func getUserBySubscription(ctx context.Context, subscriptionID string) (models.User, error) {
	var userID string
	err := db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE ls_subscription_id = $1;
	`, subscriptionID).Scan(&userID)
	if err != nil {
		return models.User{}, err
	}
	return getUserByID(ctx, userID)
}
