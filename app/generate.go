package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/besservanja-cell/OutreachAI/app/models"
	"github.com/besservanja-cell/OutreachAI/auth"

	"github.com/gin-gonic/gin"
)

// GenerateEmails handles POST /api/generate: quota check, model fallback,
// history append, then credit increment. Ordering matters: a record that the
// user cannot retrieve again must not cost a credit, and a credit that fails
// to burn after a delivered result is logged but never surfaced.
func GenerateEmails(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validateGenerateRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 90*time.Second)
	defer cancel()

	// Deny before any model call is made.
	if _, err := checkQuota(ctx, claims.Subject); err != nil {
		var qe quotaError
		if errors.As(err, &qe) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "no credits remaining, please upgrade your plan"})
			return
		}
		log.Printf("quota check failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	if generator == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation not configured"})
		return
	}

	variants, err := generator.Generate(ctx, req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI service is temporarily busy, please try again in a few minutes"})
		return
	}

	if _, err := saveEmail(ctx, claims.Subject, req, variants); err != nil {
		log.Printf("saveEmail failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save email"})
		return
	}

	if err := incrementUsage(ctx, claims.Subject); err != nil {
		// The user already has their variants; never take back a delivered result.
		log.Printf("incrementUsage failed user=%s err=%v", claims.Subject, err)
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

func validateGenerateRequest(req models.GenerateRequest) error {
	fields := map[string]string{
		"product":      req.Product,
		"prospectName": req.ProspectName,
		"company":      req.Company,
		"industry":     req.Industry,
		"tone":         req.Tone,
	}
	for _, name := range []string{"product", "prospectName", "company", "industry", "tone"} {
		if strings.TrimSpace(fields[name]) == "" {
			return errors.New("missing required field: " + name)
		}
	}
	return nil
}
