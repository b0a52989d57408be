package printclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Label is the pallet tag sent to the print server
type Label struct {
	PalletID    string    `json:"pallet_id"`
	BatchID     string    `json:"batch_id"`
	ProductCode string    `json:"product_code"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	Lot         string    `json:"lot,omitempty"`
	CodeDate    string    `json:"code_date,omitempty"`
	HoldCode    string    `json:"hold_code,omitempty"`
	Destination string    `json:"destination,omitempty"`
	TerminalID  string    `json:"terminal_id"`
	PrintedAt   time.Time `json:"printed_at"`
}

// PrintResponse represents the response from the print server
type PrintResponse struct {
	Data struct {
		JobID   string `json:"job_id"`
		Printer string `json:"printer"`
	} `json:"data"`
	Meta struct {
		Status  string    `json:"status"`
		QueueAt time.Time `json:"queued_at"`
	} `json:"meta"`
}

// Client handles communication with the label print server
type Client struct {
	endpoint   string
	httpClient *http.Client
	facility   string
	logger     cmtlog.Logger
}

// NewClient creates a new print client
func NewClient(endpoint, facility string, timeout time.Duration, logger cmtlog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		facility: facility,
		logger:   logger.With("module", "printclient"),
	}
}

// PrintLabel queues a pallet label on the facility printer
func (c *Client) PrintLabel(ctx context.Context, label Label) error {
	body := struct {
		Facility string `json:"facility"`
		Label    Label  `json:"label"`
	}{Facility: c.facility, Label: label}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal print request: %w", err)
	}

	url := fmt.Sprintf("%s/labels", c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to print server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read print server response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("print server returned error status %d: %s", resp.StatusCode, string(respBody))
	}

	var printResp PrintResponse
	if err := json.Unmarshal(respBody, &printResp); err != nil {
		return fmt.Errorf("failed to parse print server response: %w", err)
	}

	c.logger.Debug("Label queued", "pallet", label.PalletID, "job", printResp.Data.JobID, "printer", printResp.Data.Printer)
	return nil
}

// Nop drops every label; used when no print server is configured
type Nop struct{}

func (Nop) PrintLabel(ctx context.Context, label Label) error { return nil }
