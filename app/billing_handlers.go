package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/besservanja-cell/OutreachAI/app/config"
	"github.com/besservanja-cell/OutreachAI/app/models"
	"github.com/besservanja-cell/OutreachAI/auth"

	"github.com/gin-gonic/gin"
)

type checkoutBody struct {
	PlanID string `json:"planId"`
}

// CreateCheckout starts a hosted checkout for the requested plan and returns
// the redirect URL.
func CreateCheckout(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid planId"})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("checkout config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	var variantID string
	switch body.PlanID {
	case "starter":
		variantID = cfg.Billing.StarterVariantID
	case "pro":
		variantID = cfg.Billing.ProVariantID
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
		return
	}
	if variantID == "" {
		log.Printf("checkout variant id missing for plan=%s", body.PlanID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	if billing == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	email := readStringClaim(claims.Raw, "email")
	url, err := billing.CreateCheckout(c.Request.Context(), variantID, claims.Subject, email)
	if err != nil {
		log.Printf("checkout create failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// verifyWebhookSignature checks the hex-encoded HMAC-SHA256 of the raw body
// in constant time.
func verifyWebhookSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// BillingWebhook handles LemonSqueezy subscription events. Once the signature
// verifies, the provider always gets a 200 acknowledgment, even for event
// kinds we do not act on, so it stops retrying.
func BillingWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		log.Printf("billing webhook read failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("billing webhook config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}
	if cfg.Billing.WebhookSecret == "" {
		log.Printf("billing webhook secret missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	signature := c.GetHeader("X-Signature")
	if !verifyWebhookSignature(body, signature, cfg.Billing.WebhookSecret) {
		log.Printf("billing webhook signature mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// A verified but unparseable body is acked rather than errored.
		// The provider would retry an error response and the same bytes
		// will never parse any better; the log line is the alert.
		log.Printf("billing webhook unmarshal failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ev := eventFromPayload(payload)
	if ev.Name == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := applySubscriptionEvent(c.Request.Context(), cfg.Billing, ev); err != nil {
		log.Printf("billing event %s apply failed: %v", ev.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GetBillingInfo returns the plan and subscription state shown on the
// billing view.
func GetBillingInfo(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if db == nil {
		c.JSON(http.StatusOK, gin.H{
			"plan":               models.PlanFree,
			"creditsUsed":        0,
			"creditsLimit":       FreeCreditsLimit,
			"subscriptionStatus": "",
			"subscribed":         false,
		})
		return
	}

	user, err := getUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Printf("billing info lookup failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	status := ""
	if user.SubscriptionStatus.Valid {
		status = user.SubscriptionStatus.String
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":               user.Plan,
		"creditsUsed":        user.CreditsUsed,
		"creditsLimit":       user.CreditsLimit,
		"subscriptionStatus": status,
		"subscribed":         user.LSSubscriptionID.Valid,
	})
}
