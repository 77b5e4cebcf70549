package vendors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientCredentialsRefresh returns a token refresh callback performing an
// OAuth client-credentials grant against the vendor's token endpoint.
func ClientCredentialsRefresh(tokenURL, clientID, clientSecret string) func(ctx context.Context) (string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	return func(ctx context.Context) (string, error) {
		if tokenURL == "" {
			return "", errors.New("vendors: empty token url")
		}
		form := url.Values{
			"grant_type": {"client_credentials"},
			"scope":      {"Partner"},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", err
		}
		req.SetBasicAuth(clientID, clientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return "", fmt.Errorf("vendors: token endpoint status %d", resp.StatusCode)
		}
		var payload struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", err
		}
		if payload.AccessToken == "" {
			return "", errors.New("vendors: empty access token")
		}
		return payload.AccessToken, nil
	}
}

// StaticToken returns a refresh callback that always yields the same token.
func StaticToken(token string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if token == "" {
			return "", errors.New("vendors: empty static token")
		}
		return token, nil
	}
}
