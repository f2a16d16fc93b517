package app

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/besservanja-cell/OutreachAI/app/config"
	"github.com/besservanja-cell/OutreachAI/app/models"
)

// subscriptionEvent is the normalized form of a billing webhook payload.
type subscriptionEvent struct {
	Name           string
	SubscriptionID string
	CustomerID     string
	VariantID      string
	Status         string
	UserID         string // correlator, present on subscription_created only
}

func eventFromPayload(p models.WebhookPayload) subscriptionEvent {
	variantID := p.Data.Attributes.VariantID.String()
	if variantID == "" || variantID == "0" {
		variantID = p.Data.Attributes.FirstOrderItem.VariantID.String()
	}

	status := p.Data.Attributes.Status
	if status == "" {
		status = "active"
	}

	customerID := p.Data.Attributes.CustomerID.String()
	if customerID == "" || customerID == "0" {
		customerID = p.Data.ID.String()
	}

	return subscriptionEvent{
		Name:           p.Meta.EventName,
		SubscriptionID: p.Data.ID.String(),
		CustomerID:     customerID,
		VariantID:      variantID,
		Status:         status,
		UserID:         p.Meta.CustomData.UserID,
	}
}

// planFromVariant maps a billing variant id to a plan. Unknown variants fall
// back to starter rather than rejecting the event.
func planFromVariant(cfg config.BillingConfig, variantID string) models.Plan {
	switch variantID {
	case cfg.ProVariantID:
		return models.PlanPro
	case cfg.StarterVariantID:
		return models.PlanStarter
	default:
		return models.PlanStarter
	}
}

// reduceSubscription applies one billing event to an account. It is a pure
// function of (current state, event), so replaying the same event converges
// to the same state. The second return reports whether anything changed.
func reduceSubscription(user models.User, ev subscriptionEvent, cfg config.BillingConfig) (models.User, bool) {
	switch ev.Name {
	case "subscription_created":
		plan := planFromVariant(cfg, ev.VariantID)
		user.Plan = plan
		user.CreditsLimit = creditsLimitForPlan(plan)
		user.CreditsUsed = 0
		user.LSCustomerID = sql.NullString{String: ev.CustomerID, Valid: ev.CustomerID != ""}
		user.LSSubscriptionID = sql.NullString{String: ev.SubscriptionID, Valid: ev.SubscriptionID != ""}
		user.SubscriptionStatus = sql.NullString{String: ev.Status, Valid: true}
		return user, true

	case "subscription_updated":
		// Plan may change; used credits are preserved.
		plan := planFromVariant(cfg, ev.VariantID)
		user.Plan = plan
		user.CreditsLimit = creditsLimitForPlan(plan)
		user.SubscriptionStatus = sql.NullString{String: ev.Status, Valid: true}
		return user, true

	case "subscription_cancelled":
		user.Plan = models.PlanFree
		user.CreditsLimit = FreeCreditsLimit
		user.LSSubscriptionID = sql.NullString{}
		user.SubscriptionStatus = sql.NullString{String: "cancelled", Valid: true}
		return user, true
	}

	return user, false
}

// applySubscriptionEvent locates the target account and writes the reduced
// state. Events that cannot be correlated to a user are acknowledged without
// mutation.
func applySubscriptionEvent(ctx context.Context, cfg config.BillingConfig, ev subscriptionEvent) error {
	if db == nil {
		return errors.New("db not initialized")
	}

	var user models.User
	var err error
	switch ev.Name {
	case "subscription_created":
		if ev.UserID == "" {
			log.Printf("billing event %s missing user correlator, ignoring", ev.Name)
			return nil
		}
		user, err = getUserByID(ctx, ev.UserID)
	case "subscription_updated", "subscription_cancelled":
		user, err = getUserBySubscription(ctx, ev.SubscriptionID)
	default:
		return nil
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("billing event %s has no matching user, ignoring", ev.Name)
			return nil
		}
		return err
	}

	next, changed := reduceSubscription(user, ev, cfg)
	if !changed {
		return nil
	}
	return applyPlan(ctx, next)
}
