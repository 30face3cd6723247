package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
)

type stubUsers struct {
	byID    map[string]model.User
	byEmail map[string]model.User
	created []string
}

func newStubUsers(users ...model.User) *stubUsers {
	s := &stubUsers{byID: make(map[string]model.User), byEmail: make(map[string]model.User)}
	for _, u := range users {
		s.byID[u.ID] = u
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *stubUsers) Get(_ context.Context, id string) (model.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return model.User{}, apperr.NotFoundf("user not found with id of %s", id)
}

func (s *stubUsers) FindOrCreateByEmail(_ context.Context, email, name string) (model.User, error) {
	if u, ok := s.byEmail[email]; ok {
		u.Name = name
		s.byEmail[email] = u
		s.byID[u.ID] = u
		return u, nil
	}
	u := model.User{
		ID:     "u-" + email,
		Name:   name,
		Email:  email,
		Role:   model.RoleStudent,
		Status: model.StatusActive,
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u
	s.created = append(s.created, email)
	return u, nil
}

const (
	testKey    = "test-signing-key"
	testIssuer = "classtrack"
)

func TestIssueParseRoundtrip(t *testing.T) {
	token, exp, err := Issue("u-1", "teacher", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseToken(token, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "teacher", claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	token, _, err := Issue("u-1", "student", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "wrong-key", testIssuer)
	assert.Error(t, err, "bad signature")

	_, err = ParseToken(token, testKey, "someone-else")
	assert.Error(t, err, "issuer mismatch")

	expired, _, err := Issue("u-1", "student", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, testKey, testIssuer)
	assert.Error(t, err, "expired token")

	_, err = ParseToken("not.a.token", testKey, testIssuer)
	assert.Error(t, err)
}

func TestLocalResolver(t *testing.T) {
	active := model.User{ID: "u-1", Name: "Sam", Email: "sam@school.test", Role: model.RoleStudent, Status: model.StatusActive}
	inactive := model.User{ID: "u-2", Name: "Ida", Email: "ida@school.test", Role: model.RoleTeacher, Status: model.StatusInactive}
	users := newStubUsers(active, inactive)
	r := NewLocalResolver(users, testKey, testIssuer)
	ctx := context.Background()

	token, _, err := Issue(active.ID, string(active.Role), testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	got, err := r.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, active, got)

	// Valid signature but the identity was removed since issuance.
	orphan, _, err := Issue("u-gone", "student", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, orphan)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	// Inactive accounts resolve to an authentication failure, not Forbidden.
	deactivated, _, err := Issue(inactive.ID, string(inactive.Role), testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, deactivated)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	_, err = r.Resolve(ctx, "garbage")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}
