// Package app enforces per-user generation credit limits.
package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/besservanja-cell/OutreachAI/app/models"
)

const FreeCreditsLimit = 5

type quotaError struct {
	Limit int
	Used  int
}

func (e quotaError) Error() string {
	return "credit quota exceeded"
}

func creditsLimitForPlan(plan models.Plan) int {
	switch plan {
	case models.PlanStarter:
		return 100
	case models.PlanPro:
		return models.ProCreditsLimit
	default:
		return FreeCreditsLimit
	}
}

// checkQuota loads the user's credit counters and returns a quotaError when
// used >= limit. The check and the later increment are deliberately separate
// statements: two concurrent requests can both pass before either increments,
// allowing at most one extra unit per burst. We accept that over cross-request
// locking.
func checkQuota(ctx context.Context, userID string) (models.User, error) {
	if db == nil {
		return models.User{Plan: models.PlanFree, CreditsLimit: FreeCreditsLimit}, nil
	}

	user, err := getUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if user.CreditsUsed >= user.CreditsLimit {
		return user, quotaError{Limit: user.CreditsLimit, Used: user.CreditsUsed}
	}
	return user, nil
}

// incrementUsage burns one credit. Callers decide what a failure means; a
// generation already delivered to the user is never taken back.
func incrementUsage(ctx context.Context, userID string) error {
	if db == nil {
		return nil
	}
	res, err := db.ExecContext(ctx, `
		UPDATE users
		SET credits_used = credits_used + 1, updated_at = now()
		WHERE id = $1;
	`, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// applyPlan writes the billing-controlled columns of an account in one
// statement: plan, credit counters, and subscription identity. Only the
// billing webhook path calls this; request handlers never touch these
// columns directly.
func applyPlan(ctx context.Context, user models.User) error {
	if db == nil {
		return errors.New("db not initialized")
	}
	_, err := db.ExecContext(ctx, `
		UPDATE users
		SET plan = $1,
			credits_limit = $2,
			credits_used = $3,
			ls_customer_id = $4,
			ls_subscription_id = $5,
			subscription_status = $6,
			updated_at = now()
		WHERE id = $7;
	`,
		user.Plan,
		user.CreditsLimit,
		user.CreditsUsed,
		user.LSCustomerID,
		user.LSSubscriptionID,
		user.SubscriptionStatus,
		user.ID,
	)
	return err
}
