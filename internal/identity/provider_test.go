package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
)

func providerServer(t *testing.T, handler http.HandlerFunc) *ProviderClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProviderClient(srv.URL, 2*time.Second)
}

func TestProviderClientVerify(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/verify", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok-123", body["token"])

		json.NewEncoder(w).Encode(providerClaims{
			Email: "sam@school.test",
			Name:  "Sam Doe",
		})
	})

	claims, err := client.Verify(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "sam@school.test", claims.Email)
	assert.Equal(t, "Sam Doe", claims.displayName())
}

func TestProviderClientRejections(t *testing.T) {
	unauthorized := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := unauthorized.Verify(context.Background(), "bad")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	broken := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = broken.Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.NotEqual(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestProviderResolverProvisionsOnFirstSight(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(providerClaims{
			Email:     "new@school.test",
			FirstName: "Nia",
			LastName:  "Ng",
		})
	})
	users := newStubUsers()
	r := NewProviderResolver(users, client)

	u, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "new@school.test", u.Email)
	assert.Equal(t, "Nia Ng", u.Name)
	assert.Equal(t, model.RoleStudent, u.Role, "provisioned identities default to student")
	assert.Equal(t, []string{"new@school.test"}, users.created)

	// Second resolve reuses the identity.
	_, err = r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Len(t, users.created, 1)
}

func TestProviderResolverKeepsAssignedRole(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(providerClaims{Email: "tom@school.test", Name: "Tom"})
	})
	users := newStubUsers(model.User{
		ID: "u-1", Name: "Tom", Email: "tom@school.test",
		Role: model.RoleTeacher, Status: model.StatusActive,
	})
	r := NewProviderResolver(users, client)

	u, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, u.Role)
}

func TestProviderResolverRejectsInactive(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(providerClaims{Email: "ida@school.test", Name: "Ida"})
	})
	users := newStubUsers(model.User{
		ID: "u-2", Name: "Ida", Email: "ida@school.test",
		Role: model.RoleTeacher, Status: model.StatusInactive,
	})
	r := NewProviderResolver(users, client)

	_, err := r.Resolve(context.Background(), "tok")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Full Name", providerClaims{Name: "Full Name", FirstName: "F"}.displayName())
	assert.Equal(t, "Ann Lee", providerClaims{FirstName: "Ann", LastName: "Lee"}.displayName())
	assert.Equal(t, "Ann", providerClaims{FirstName: "Ann"}.displayName())
	assert.Equal(t, "User", providerClaims{}.displayName())
}
