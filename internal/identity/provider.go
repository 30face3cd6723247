package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
)

// providerClaims is the verified-claims shape returned by the provider.
type providerClaims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Subject   string `json:"sub"`
}

// ProviderClient calls the external identity provider's verification endpoint.
type ProviderClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewProviderClient creates a client with a request timeout.
func NewProviderClient(baseURL string, timeout time.Duration) *ProviderClient {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &ProviderClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Verify sends the token and returns the verified claims.
func (c *ProviderClient) Verify(ctx context.Context, token string) (providerClaims, error) {
	body, _ := json.Marshal(map[string]string{"token": token})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return providerClaims{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return providerClaims{}, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return providerClaims{}, apperr.Unauthenticatedf("invalid provider token")
	}
	if resp.StatusCode != http.StatusOK {
		return providerClaims{}, fmt.Errorf("provider status %d", resp.StatusCode)
	}
	var claims providerClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return providerClaims{}, fmt.Errorf("provider response: %w", err)
	}
	return claims, nil
}

// displayName assembles a display name from whichever claims are present.
func (p providerClaims) displayName() string {
	if p.Name != "" {
		return p.Name
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	return "User"
}

// ProviderResolver verifies tokens against the external provider and
// find-or-creates a local identity by verified email.
type ProviderResolver struct {
	users  UserStore
	client *ProviderClient
}

// NewProviderResolver creates the external-provider backend.
func NewProviderResolver(users UserStore, client *ProviderClient) *ProviderResolver {
	return &ProviderResolver{users: users, client: client}
}

// Resolve implements Resolver.
func (r *ProviderResolver) Resolve(ctx context.Context, token string) (model.User, error) {
	claims, err := r.client.Verify(ctx, token)
	if err != nil {
		if apperr.KindOf(err) == apperr.Unauthenticated {
			return model.User{}, err
		}
		return model.User{}, apperr.Unauthenticatedf("token verification failed")
	}
	email := claims.Email
	if email == "" {
		email = claims.Subject
	}
	u, err := r.users.FindOrCreateByEmail(ctx, email, claims.displayName())
	if err != nil {
		return model.User{}, err
	}
	return requireActive(u)
}
