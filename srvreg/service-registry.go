package srvreg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/auth"
	"github.com/ahmadzakiakmal/rf-receiving/receiving"
	"github.com/ahmadzakiakmal/rf-receiving/repository"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Request represents an incoming HTTP request
type Request struct {
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	RemoteAddr string            `json:"remote_addr"`
	Timestamp  time.Time         `json:"timestamp"`

	ctx context.Context
}

// Context is the request's context, background when none was attached
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext attaches ctx to the request
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Response represents an HTTP response
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// HandlerFunc is a function that handles a request
type HandlerFunc func(*Request) (*Response, error)

// Receiver is the keystroke engine behind the RF endpoints
type Receiver interface {
	Handle(ctx context.Context, in receiving.Input) (*receiving.Result, error)
	Current(ctx context.Context, operatorID string) (*receiving.Result, error)
	RefreshProfile(ctx context.Context, operatorID string) error
}

// ServiceRegistry manages all service handlers
type ServiceRegistry struct {
	handlers map[string]map[string]HandlerFunc
	mu       sync.RWMutex

	engine   Receiver
	auth     *auth.Authenticator
	store    repository.Store
	nodeID   string
	facility string
	logger   cmtlog.Logger
}

var defaultHeaders = map[string]string{
	"Content-Type": "application/json",
}

// NewServiceRegistry creates a new service registry
func NewServiceRegistry(engine Receiver, authenticator *auth.Authenticator, store repository.Store, nodeID, facility string, logger cmtlog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		handlers: make(map[string]map[string]HandlerFunc),
		engine:   engine,
		auth:     authenticator,
		store:    store,
		nodeID:   nodeID,
		facility: facility,
		logger:   logger.With("module", "srvreg"),
	}
}

// RegisterHandler registers a handler for a specific method and path
func (sr *ServiceRegistry) RegisterHandler(method, path string, handler HandlerFunc) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.handlers[method] == nil {
		sr.handlers[method] = make(map[string]HandlerFunc)
	}
	sr.handlers[method][path] = handler
	sr.logger.Debug("Registered handler", "method", method, "path", path)
}

// GetHandlerForPath finds the handler for a given method and path
func (sr *ServiceRegistry) GetHandlerForPath(method, path string) (HandlerFunc, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	methodHandlers, exists := sr.handlers[method]
	if !exists {
		return nil, false
	}

	// Try exact match first
	if handler, exists := methodHandlers[path]; exists {
		return handler, true
	}

	for pattern, handler := range methodHandlers {
		if matchPath(pattern, path) {
			return handler, true
		}
	}

	return nil, false
}

// matchPath checks if a path matches a pattern with parameters
// It supports patterns like "/batch/:id" matching "/batch/B-100"
func matchPath(pattern, path string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i := 0; i < len(patternParts); i++ {
		if strings.HasPrefix(patternParts[i], ":") {
			if pathParts[i] == "" {
				return false
			}
			continue
		}
		if patternParts[i] != pathParts[i] {
			return false
		}
	}

	return true
}

// RegisterDefaultServices sets up all default endpoints
func (sr *ServiceRegistry) RegisterDefaultServices() {
	sr.RegisterHandler("POST", "/auth/login", sr.LoginHandler)

	// RF receiving endpoints
	sr.RegisterHandler("POST", "/rf/receiving", sr.KeystrokeHandler)
	sr.RegisterHandler("GET", "/rf/receiving/session", sr.SessionHandler)

	sr.RegisterHandler("GET", "/batch/:id", sr.BatchHandler)
	sr.RegisterHandler("GET", "/info", sr.InfoHandler)

	sr.logger.Info("All services registered")
}

// GenerateResponse executes the request and generates a response
func (req *Request) GenerateResponse(services *ServiceRegistry) (*Response, error) {
	handler, found := services.GetHandlerForPath(req.Method, req.Path)

	if !found {
		return jsonError(404, fmt.Sprintf("Service not found for %s %s", req.Method, req.Path)), nil
	}

	return handler(req)
}

// header reads a request header case-insensitively
func (req *Request) header(name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func jsonResponse(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return &Response{StatusCode: status, Headers: defaultHeaders, Body: string(body)}, nil
}

func jsonError(status int, message string) *Response {
	body, _ := json.Marshal(map[string]string{"error": message})
	return &Response{StatusCode: status, Headers: defaultHeaders, Body: string(body)}
}

// compactJSON removes whitespace from JSON
func compactJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		return strings.TrimSpace(body)
	}
	return buf.String()
}
