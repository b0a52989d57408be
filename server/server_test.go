package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/auth"
	"github.com/ahmadzakiakmal/rf-receiving/receiving"
	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/memrepo"
	"github.com/ahmadzakiakmal/rf-receiving/session"
	"github.com/ahmadzakiakmal/rf-receiving/srvreg"
	"github.com/ahmadzakiakmal/rf-receiving/taskqueue"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	clk := testclock.NewFakeClock(time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC))
	logger := cmtlog.NewNopLogger()
	store := memrepo.NewSeeded(clk)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	engine := receiving.NewEngine(receiving.Options{
		Store:    store,
		Sessions: session.NewStore(db, logger),
		Tasks:    taskqueue.NewQueue(db, logger, clk, taskqueue.Config{}),
		Clock:    clk,
		Logger:   logger,
	})
	authenticator := auth.NewAuthenticator(store, "test-secret", time.Hour, clk)

	registry := srvreg.NewServiceRegistry(engine, authenticator, store, "rf-test", repository.DemoFacility, logger)
	registry.RegisterDefaultServices()

	ws := NewWebServer("0", registry, "rf-test", repository.DemoFacility, logger)
	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	status, out := call(t, srv, "POST", "/auth/login", "", map[string]string{
		"operator_id": repository.DemoOperatorID,
		"password":    repository.DemoOperatorPassword,
		"terminal_id": "T01",
	})
	require.Equal(t, http.StatusOK, status, out)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestLoginAndReceive(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	steps := []struct {
		value string
		want  string
	}{
		{"CONF-1002", "product"},
		{"P-300", "purchase-order"},
		{"", "pallet-id"},
		{"PLT-1", "quantity"},
		{"72", "best-before"},
	}
	for _, s := range steps {
		status, out := call(t, srv, "POST", "/rf/receiving", token, map[string]string{"value": s.value})
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, s.want, out["next_step"], "after %q: %v", s.value, out)
	}

	status, out := call(t, srv, "GET", "/rf/receiving/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "best-before", out["next_step"])

	status, out = call(t, srv, "GET", "/batch/B-1002-1", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["open"])
	assert.EqualValues(t, 1, out["pallets_temporary"])
	assert.EqualValues(t, 0, out["pallets_committed"])
}

func TestUnauthorizedAndUnknownRoutes(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{name: "keystroke without token", method: "POST", path: "/rf/receiving", body: map[string]string{"value": "x"}, want: http.StatusUnauthorized},
		{name: "bad token", method: "GET", path: "/rf/receiving/session", token: "garbage", want: http.StatusUnauthorized},
		{name: "wrong password", method: "POST", path: "/auth/login", body: map[string]string{"operator_id": "OP-001", "password": "x", "terminal_id": "T01"}, want: http.StatusUnauthorized},
		{name: "unknown route", method: "GET", path: "/rf/unknown", want: http.StatusNotFound},
		{name: "info", method: "GET", path: "/info", want: http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := call(t, srv, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, status, out)
		})
	}
}

func TestUnknownBatch(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	status, out := call(t, srv, "GET", "/batch/B-404", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Batch not found", out["error"])
}
