package printclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintLabel(t *testing.T) {
	var got struct {
		Facility string `json:"facility"`
		Label    Label  `json:"label"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/labels", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"data":{"job_id":"J1","printer":"ZB1"},"meta":{"status":"queued"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "WH1", time.Second, cmtlog.NewNopLogger())
	err := c.PrintLabel(context.Background(), Label{PalletID: "PAL-1", Quantity: 50})
	require.NoError(t, err)
	assert.Equal(t, "WH1", got.Facility)
	assert.Equal(t, "PAL-1", got.Label.PalletID)
	assert.Equal(t, 50, got.Label.Quantity)
}

func TestPrintLabelServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "printer offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "WH1", time.Second, cmtlog.NewNopLogger())
	err := c.PrintLabel(context.Background(), Label{PalletID: "PAL-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
