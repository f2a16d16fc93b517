// Package app records and serves the per-user generation history.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/besservanja-cell/OutreachAI/app/models"
	"github.com/besservanja-cell/OutreachAI/auth"

	"github.com/gin-gonic/gin"
)

// HistoryPageSize is the fixed page size for history display.
const HistoryPageSize = 20

// saveEmail appends one generation record and returns its id. Records are
// never updated or deleted.
func saveEmail(ctx context.Context, userID string, req models.GenerateRequest, variants []models.EmailVariant) (string, error) {
	if db == nil {
		return "", nil
	}

	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return "", err
	}

	var id string
	err = db.QueryRowContext(ctx, `
		INSERT INTO emails (user_id, prospect_name, prospect_company, industry, tone, variants)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`, userID, req.ProspectName, req.Company, req.Industry, req.Tone, variantsJSON).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func listEmails(ctx context.Context, userID string, limit int) ([]models.EmailRecord, error) {
	if db == nil {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, prospect_name, prospect_company, industry, tone, variants, created_at
		FROM emails
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmailRecord
	for rows.Next() {
		var rec models.EmailRecord
		var variantsJSON []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.ProspectName,
			&rec.ProspectCompany,
			&rec.Industry,
			&rec.Tone,
			&variantsJSON,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(variantsJSON, &rec.Variants); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEmailHistory returns the newest page of generation records for the
// authenticated user.
func GetEmailHistory(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	records, err := listEmails(ctx, claims.Subject, HistoryPageSize)
	if err != nil {
		log.Printf("listEmails failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(records),
		"emails": records,
	})
}

// Me returns plan and credit usage for the authenticated user.
func Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if db == nil {
		c.JSON(http.StatusOK, gin.H{
			"plan":         models.PlanFree,
			"creditsUsed":  0,
			"creditsLimit": FreeCreditsLimit,
			"remaining":    FreeCreditsLimit,
		})
		return
	}

	user, err := getUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if err == sql.ErrNoRows {
			_ = UpsertUserFromClaims(c.Request.Context(), claims)
			user, err = getUserByID(c.Request.Context(), claims.Subject)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
	}

	remaining := user.CreditsLimit - user.CreditsUsed
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":         user.Plan,
		"creditsUsed":  user.CreditsUsed,
		"creditsLimit": user.CreditsLimit,
		"remaining":    remaining,
	})
}

// Dashboard returns the credit summary plus the latest history page in one
// response, mirroring what the dashboard view renders.
func Dashboard(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if db == nil {
		c.JSON(http.StatusOK, gin.H{
			"plan":         models.PlanFree,
			"creditsUsed":  0,
			"creditsLimit": FreeCreditsLimit,
			"history":      []models.EmailRecord{},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := getUserByID(ctx, claims.Subject)
	if err != nil {
		log.Printf("dashboard user lookup failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	records, err := listEmails(ctx, claims.Subject, HistoryPageSize)
	if err != nil {
		log.Printf("dashboard history failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":         user.Plan,
		"creditsUsed":  user.CreditsUsed,
		"creditsLimit": user.CreditsLimit,
		"history":      records,
	})
}
