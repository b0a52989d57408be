package auth

import (
	"context"
	"testing"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/memrepo"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *testclock.FakeClock) {
	t.Helper()
	clk := testclock.NewFakeClock(time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC))
	store := memrepo.NewSeeded(clk)
	hash, err := HashPassword("locked")
	require.NoError(t, err)
	store.Load(repository.Fixtures{
		Operators: []models.Operator{{ID: "OP-900", Name: "Former", PasswordHash: hash, Facility: "WH1"}},
	})
	return NewAuthenticator(store, "test-secret", time.Hour, clk), clk
}

func TestLogin(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	testCases := []struct {
		name     string
		operator string
		password string
		wantErr  error
	}{
		{name: "valid", operator: repository.DemoOperatorID, password: repository.DemoOperatorPassword},
		{name: "lowercase id", operator: " op-001 ", password: repository.DemoOperatorPassword},
		{name: "wrong password", operator: repository.DemoOperatorID, password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown operator", operator: "OP-404", password: "x", wantErr: ErrInvalidCredentials},
		{name: "empty password", operator: repository.DemoOperatorID, wantErr: ErrInvalidCredentials},
		{name: "inactive operator", operator: "OP-900", password: "locked", wantErr: ErrInactiveOperator},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, claims, err := a.Login(ctx, tc.operator, tc.password, "T01")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, repository.DemoOperatorID, claims.OperatorID)
			assert.Equal(t, repository.DemoFacility, claims.Facility)
			assert.Equal(t, "T01", claims.TerminalID)
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	a, clk := newTestAuthenticator(t)
	token, _, err := a.Login(context.Background(), repository.DemoOperatorID, repository.DemoOperatorPassword, "T01")
	require.NoError(t, err)

	claims, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, repository.DemoOperatorID, claims.OperatorID)
	assert.Equal(t, "T01", claims.TerminalID)

	clk.Step(2 * time.Hour)
	_, err = a.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "token must expire after its ttl")
}

func TestParseRejectsForeignSecret(t *testing.T) {
	a, clk := newTestAuthenticator(t)
	other := NewAuthenticator(memrepo.NewSeeded(clk), "another-secret", time.Hour, clk)
	token, _, err := other.Login(context.Background(), repository.DemoOperatorID, repository.DemoOperatorPassword, "T01")
	require.NoError(t, err)

	_, err = a.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = BearerToken("abc.def")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}
