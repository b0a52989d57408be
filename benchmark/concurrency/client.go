package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPClient) GET(endpoint string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	return c.client.Do(req)
}

func (c *HTTPClient) POST(endpoint string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest("POST", c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)
	return c.client.Do(req)
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Cache-Control", "no-cache")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Login signs the operator in and keeps the token for later calls
func (c *HTTPClient) Login(operatorID, password, terminalID string) error {
	resp, err := c.POST("/auth/login", map[string]string{
		"operator_id": operatorID,
		"password":    password,
		"terminal_id": terminalID,
	})
	if err != nil {
		return err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := UnmarshalBody(resp, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Screen is the part of a keystroke response the driver reads
type Screen struct {
	NextStep string `json:"next_step"`
	Error    string `json:"error"`
	Warning  string `json:"warning"`
}

// Key sends one keystroke
func (c *HTTPClient) Key(value, fkey string) (*Screen, error) {
	resp, err := c.POST("/rf/receiving", map[string]string{"value": value, "fkey": fkey})
	if err != nil {
		return nil, err
	}
	var s Screen
	if err := UnmarshalBody(resp, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func UnmarshalBody(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, v)
}
