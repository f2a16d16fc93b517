// Package app tests the subscription event reducer and webhook handling.
package app

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/besservanja-cell/OutreachAI/app/config"
	"github.com/besservanja-cell/OutreachAI/app/models"
)

func billingConfig() config.BillingConfig {
	return config.BillingConfig{
		StarterVariantID: "v1",
		ProVariantID:     "v2",
		WebhookSecret:    "whsec",
	}
}

func TestPlanFromVariant(t *testing.T) {
	cfg := billingConfig()
	if got := planFromVariant(cfg, "v2"); got != models.PlanPro {
		t.Fatalf("planFromVariant(v2) = %q, want pro", got)
	}
	if got := planFromVariant(cfg, "v1"); got != models.PlanStarter {
		t.Fatalf("planFromVariant(v1) = %q, want starter", got)
	}
	if got := planFromVariant(cfg, "v999"); got != models.PlanStarter {
		t.Fatalf("unknown variant should default to starter, got %q", got)
	}
}

func TestReduceSubscriptionCreated(t *testing.T) {
	user := models.User{ID: "user-1", Plan: models.PlanFree, CreditsUsed: 4, CreditsLimit: 5}
	ev := subscriptionEvent{
		Name:           "subscription_created",
		SubscriptionID: "sub-9",
		CustomerID:     "cust-3",
		VariantID:      "v2",
		Status:         "active",
		UserID:         "user-1",
	}

	next, changed := reduceSubscription(user, ev, billingConfig())
	if !changed {
		t.Fatalf("expected change")
	}
	if next.Plan != models.PlanPro || next.CreditsLimit != models.ProCreditsLimit {
		t.Fatalf("unexpected plan/limit: %+v", next)
	}
	if next.CreditsUsed != 0 {
		t.Fatalf("created event must reset usage, got %d", next.CreditsUsed)
	}
	if next.LSSubscriptionID.String != "sub-9" || next.LSCustomerID.String != "cust-3" {
		t.Fatalf("ids not stored: %+v", next)
	}
}

func TestReduceSubscriptionUpdatedKeepsUsage(t *testing.T) {
	user := models.User{
		ID:               "user-1",
		Plan:             models.PlanStarter,
		CreditsUsed:      42,
		CreditsLimit:     100,
		LSSubscriptionID: sql.NullString{String: "sub-9", Valid: true},
	}
	ev := subscriptionEvent{
		Name:           "subscription_updated",
		SubscriptionID: "sub-9",
		VariantID:      "v2",
		Status:         "active",
	}

	next, changed := reduceSubscription(user, ev, billingConfig())
	if !changed {
		t.Fatalf("expected change")
	}
	if next.Plan != models.PlanPro || next.CreditsLimit != models.ProCreditsLimit {
		t.Fatalf("unexpected plan/limit: %+v", next)
	}
	if next.CreditsUsed != 42 {
		t.Fatalf("updated event must keep usage, got %d", next.CreditsUsed)
	}
}

func TestReduceSubscriptionCancelledIdempotent(t *testing.T) {
	user := models.User{
		ID:               "user-1",
		Plan:             models.PlanPro,
		CreditsUsed:      7,
		CreditsLimit:     models.ProCreditsLimit,
		LSSubscriptionID: sql.NullString{String: "sub-9", Valid: true},
	}
	ev := subscriptionEvent{Name: "subscription_cancelled", SubscriptionID: "sub-9"}

	once, _ := reduceSubscription(user, ev, billingConfig())
	twice, _ := reduceSubscription(once, ev, billingConfig())

	if once != twice {
		t.Fatalf("replay diverged:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if twice.Plan != models.PlanFree || twice.CreditsLimit != FreeCreditsLimit {
		t.Fatalf("cancel should reset plan/limit: %+v", twice)
	}
	if twice.LSSubscriptionID.Valid {
		t.Fatalf("cancel should clear subscription id")
	}
	if twice.CreditsUsed != 7 {
		t.Fatalf("cancel must keep usage, got %d", twice.CreditsUsed)
	}
	if twice.SubscriptionStatus.String != "cancelled" {
		t.Fatalf("status = %q, want cancelled", twice.SubscriptionStatus.String)
	}
}

func TestReduceSubscriptionUnknownEvent(t *testing.T) {
	user := models.User{ID: "user-1", Plan: models.PlanStarter, CreditsUsed: 3, CreditsLimit: 100}
	next, changed := reduceSubscription(user, subscriptionEvent{Name: "order_refunded"}, billingConfig())
	if changed {
		t.Fatalf("unknown event must not mutate state")
	}
	if next != user {
		t.Fatalf("unknown event changed user: %+v", next)
	}
}

func TestEventFromPayloadVariantFallback(t *testing.T) {
	raw := `{
		"meta": {"event_name": "subscription_created", "custom_data": {"user_id": "user-1"}},
		"data": {
			"id": "sub-9",
			"type": "subscriptions",
			"attributes": {
				"customer_id": 123,
				"status": "active",
				"first_order_item": {"variant_id": 777}
			}
		}
	}`
	var payload models.WebhookPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	ev := eventFromPayload(payload)
	if ev.VariantID != "777" {
		t.Fatalf("variant fallback failed, got %q", ev.VariantID)
	}
	if ev.CustomerID != "123" || ev.UserID != "user-1" || ev.SubscriptionID != "sub-9" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestEventFromPayloadDefaultsStatus(t *testing.T) {
	var payload models.WebhookPayload
	payload.Meta.EventName = "subscription_created"
	payload.Data.ID = "sub-1"

	ev := eventFromPayload(payload)
	if ev.Status != "active" {
		t.Fatalf("status default = %q, want active", ev.Status)
	}
}
