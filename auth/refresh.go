package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var refreshClient = &http.Client{Timeout: 10 * time.Second}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// refreshSession exchanges a refresh token at the auth provider's token
// endpoint for a new access/refresh pair.
func refreshSession(ctx context.Context, issuer, refreshToken string) (tokenPair, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return tokenPair{}, err
	}

	url := issuer + "token?grant_type=refresh_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return tokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := refreshClient.Do(req)
	if err != nil {
		return tokenPair{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return tokenPair{}, fmt.Errorf("token refresh http %d", res.StatusCode)
	}

	var pair tokenPair
	if err := json.NewDecoder(res.Body).Decode(&pair); err != nil {
		return tokenPair{}, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return tokenPair{}, errors.New("token refresh response incomplete")
	}
	return pair, nil
}
