// Package app talks to the LemonSqueezy API for subscription checkout.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/besservanja-cell/OutreachAI/app/config"
)

// BillingClient creates hosted checkout sessions against the LemonSqueezy
// JSON:API. The checkout carries our user id as custom data so the webhook
// can correlate the subscription back to an account.
type BillingClient struct {
	apiKey  string
	storeID string
	baseURL string
	appURL  string
	httpc   *http.Client
}

var billing *BillingClient

// MustInitBilling wires the billing client from the environment.
func MustInitBilling() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for billing: %v", err)
	}
	if cfg.Billing.APIKey == "" || cfg.Billing.StoreID == "" {
		log.Fatalf("LEMONSQUEEZY_API_KEY and LEMONSQUEEZY_STORE_ID must be set")
	}
	billing = NewBillingClient(cfg)
}

// NewBillingClient builds a client from explicit config so tests can point it
// at a fake upstream.
func NewBillingClient(cfg *config.Config) *BillingClient {
	return &BillingClient{
		apiKey:  cfg.Billing.APIKey,
		storeID: cfg.Billing.StoreID,
		baseURL: strings.TrimRight(cfg.Billing.BaseURL, "/"),
		appURL:  cfg.AppURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

type checkoutRequest struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			CheckoutData struct {
				Email  string            `json:"email,omitempty"`
				Custom map[string]string `json:"custom"`
			} `json:"checkout_data"`
			ProductOptions struct {
				RedirectURL       string `json:"redirect_url"`
				ReceiptLinkURL    string `json:"receipt_link_url"`
				ReceiptButtonText string `json:"receipt_button_text"`
			} `json:"product_options"`
		} `json:"attributes"`
		Relationships struct {
			Store   relationship `json:"store"`
			Variant relationship `json:"variant"`
		} `json:"relationships"`
	} `json:"data"`
}

type relationship struct {
	Data struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"data"`
}

type checkoutResponse struct {
	Data struct {
		Attributes struct {
			URL string `json:"url"`
		} `json:"attributes"`
	} `json:"data"`
}

// CreateCheckout returns a hosted checkout URL for the given variant.
func (b *BillingClient) CreateCheckout(ctx context.Context, variantID, userID, email string) (string, error) {
	var req checkoutRequest
	req.Data.Type = "checkouts"
	req.Data.Attributes.CheckoutData.Email = email
	req.Data.Attributes.CheckoutData.Custom = map[string]string{"user_id": userID}
	req.Data.Attributes.ProductOptions.RedirectURL = b.appURL + "/dashboard?success=true"
	req.Data.Attributes.ProductOptions.ReceiptLinkURL = b.appURL + "/dashboard"
	req.Data.Attributes.ProductOptions.ReceiptButtonText = "Back to Dashboard"
	req.Data.Relationships.Store.Data.Type = "stores"
	req.Data.Relationships.Store.Data.ID = b.storeID
	req.Data.Relationships.Variant.Data.Type = "variants"
	req.Data.Relationships.Variant.Data.ID = variantID

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	httpReq.Header.Set("Accept", "application/vnd.api+json")
	httpReq.Header.Set("Content-Type", "application/vnd.api+json")

	res, err := b.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lemonsqueezy http %d", res.StatusCode)
	}

	var out checkoutResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Data.Attributes.URL == "" {
		return "", errors.New("checkout response missing url")
	}
	return out.Data.Attributes.URL, nil
}
