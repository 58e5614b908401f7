// Package identity talks to the identity provider for account management.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	stderrors "partner-onboarding/internal/common/errors"
)

// Service is the narrow identity contract the onboarding workflow consumes.
type Service interface {
	// CreateAccount provisions an account and returns the new identity id.
	CreateAccount(ctx context.Context, email, password string, attrs Attributes) (string, error)
	// CurrentIdentity returns the id of the signed-in identity, or empty
	// when no session exists.
	CurrentIdentity(ctx context.Context) (string, error)
	// RequestPasswordReset triggers the provider's reset flow for email.
	RequestPasswordReset(ctx context.Context, email string) error
}

// Attributes carries the profile attributes set at account creation.
type Attributes struct {
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Country     string `json:"country"`
}

type sessionTokenKey struct{}

// WithSessionToken returns a context carrying an applicant's bearer token.
// CurrentIdentity resolves the signed-in identity from this token only; the
// client's own service credential is never treated as an applicant session.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey{}, token)
}

func sessionTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey{}).(string)
	return token
}

// Client provides methods to interact with a Keycloak-style identity provider.
// One Client is shared by every applicant session; the cached service token
// is guarded by mu and applicant credentials are never stored on it.
type Client struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu                 sync.Mutex
	serviceToken       string
	serviceTokenExpiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// NewClient creates a new identity provider client.
func NewClient(baseURL, realm, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// getServiceToken returns a valid service token for admin calls, fetching one
// via the client credentials flow when the cached token is missing or stale.
func (c *Client) getServiceToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.serviceTokenExpiry.After(time.Now()) && c.serviceToken != "" {
		return c.serviceToken, nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.baseURL, c.realm)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("identity token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.serviceToken = tok.AccessToken
	c.serviceTokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)

	return c.serviceToken, nil
}

type createUserPayload struct {
	Email         string              `json:"email"`
	Username      string              `json:"username"`
	Enabled       bool                `json:"enabled"`
	EmailVerified bool                `json:"emailVerified"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
	Credentials   []credential        `json:"credentials"`
}

type credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// CreateAccount provisions a new account with the given credentials and
// attributes. The identity id is parsed from the provider's Location header.
func (c *Client) CreateAccount(ctx context.Context, email, password string, attrs Attributes) (string, error) {
	token, err := c.getServiceToken(ctx)
	if err != nil {
		return "", stderrors.NewIdentityCreateFailedError(err)
	}

	payload := createUserPayload{
		Email:         email,
		Username:      email,
		Enabled:       true,
		EmailVerified: false,
		Attributes: map[string][]string{
			"displayName": {attrs.DisplayName},
			"role":        {attrs.Role},
			"phone":       {attrs.Phone},
			"country":     {attrs.Country},
		},
		Credentials: []credential{{Type: "password", Value: password, Temporary: false}},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", stderrors.NewIdentityCreateFailedError(err)
	}

	userURL := fmt.Sprintf("%s/admin/realms/%s/users", c.baseURL, c.realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, userURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", stderrors.NewIdentityCreateFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", stderrors.NewIdentityCreateFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", stderrors.NewIdentityCreateFailedError(
			fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(body)))
	}

	// Location: .../users/<id>
	location := resp.Header.Get("Location")
	parts := strings.Split(strings.TrimSuffix(location, "/"), "/")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return "", stderrors.NewIdentityCreateFailedError(fmt.Errorf("missing identity id in response location %q", location))
	}

	return parts[len(parts)-1], nil
}

type userInfo struct {
	Sub string `json:"sub"`
}

// CurrentIdentity resolves the signed-in identity from the userinfo endpoint
// using the applicant bearer carried on ctx. The service credential only
// authorizes admin calls; without an applicant token there is no session and
// the answer is empty.
func (c *Client) CurrentIdentity(ctx context.Context) (string, error) {
	token := sessionTokenFrom(ctx)
	if token == "" {
		return "", nil
	}

	infoURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/userinfo", c.baseURL, c.realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("userinfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return info.Sub, nil
}

// RequestPasswordReset triggers the provider's execute-actions-email flow.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	token, err := c.getServiceToken(ctx)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/realms/%s/login-actions/reset-credentials?email=%s",
		c.baseURL, c.realm, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resetURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("password reset request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
