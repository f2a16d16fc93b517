package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/besservanja-cell/OutreachAI/app/models"

	"github.com/gin-gonic/gin"
)

func TestSaveEmailReturnsRecordID(t *testing.T) {
	mock := useMockDB(t)

	variants := []models.EmailVariant{{Subject: "S", Body: "B", Tone: "bold"}}
	variantsJSON, _ := json.Marshal(variants)

	mock.ExpectQuery("INSERT INTO emails").
		WithArgs("user-1", "Alice", "PipeCo", "plumbing", "professional", variantsJSON).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("rec-1"))

	id, err := saveEmail(context.Background(), "user-1", testRequest(), variants)
	if err != nil {
		t.Fatalf("saveEmail error = %v", err)
	}
	if id != "rec-1" {
		t.Fatalf("saveEmail id = %q, want rec-1", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListEmailsDecodesVariants(t *testing.T) {
	mock := useMockDB(t)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, prospect_name").
		WithArgs("user-1", HistoryPageSize).
		WillReturnRows(mock.NewRows([]string{
			"id", "prospect_name", "prospect_company", "industry", "tone", "variants", "created_at",
		}).AddRow(
			"rec-1", "Alice", "PipeCo", "plumbing", "professional",
			[]byte(`[{"subject":"S","body":"B","tone":"bold"}]`), created,
		))

	records, err := listEmails(context.Background(), "user-1", HistoryPageSize)
	if err != nil {
		t.Fatalf("listEmails error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ID != "rec-1" || len(rec.Variants) != 1 || rec.Variants[0].Tone != "bold" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", rec.CreatedAt, created)
	}
}

func TestDashboardWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/dashboard", claimsMiddleware("user-1"), Dashboard)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out struct {
		Plan         string `json:"plan"`
		CreditsLimit int    `json:"creditsLimit"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Plan != "free" || out.CreditsLimit != FreeCreditsLimit {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestMeReportsRemainingCredits(t *testing.T) {
	mock := useMockDB(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", claimsMiddleware("user-1"), Me)

	mock.ExpectQuery("SELECT email, plan").
		WithArgs("user-1").
		WillReturnRows(userRow(mock, models.PlanStarter, 30, 100))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out struct {
		Plan      string `json:"plan"`
		Remaining int    `json:"remaining"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Plan != "starter" || out.Remaining != 70 {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}
