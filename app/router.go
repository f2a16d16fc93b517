// Package app wires the HTTP routes for the outreach API.
package app

import (
	"net/http"
	"time"

	"github.com/besservanja-cell/OutreachAI/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// NewRouter builds the HTTP router. The billing webhook stays public (it is
// authenticated by its signature); everything else under /api requires a
// session, and the page routes redirect to the entry point instead of
// answering 401.
func NewRouter() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", Health)
	router.POST("/api/billing/webhook", BillingWebhook)

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil && !auth.AuthDisabled() {
		return nil, err
	}

	protected := router.Group("/")
	protected.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return UpsertUserFromClaims(c.Request.Context(), claims)
		},
	}))
	protected.GET("/me", Me)
	protected.POST("/api/generate", GenerateEmails)
	protected.GET("/api/emails", GetEmailHistory)
	protected.POST("/api/billing/checkout", CreateCheckout)

	pages := router.Group("/")
	pages.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		RedirectTo: "/",
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return UpsertUserFromClaims(c.Request.Context(), claims)
		},
	}))
	pages.GET("/dashboard", Dashboard)
	pages.GET("/billing", GetBillingInfo)

	return router, nil
}
