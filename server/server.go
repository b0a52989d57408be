package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/srvreg"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// maxBodyBytes caps a keystroke or login body
const maxBodyBytes = 64 << 10

// WebServer handles HTTP requests for the receiving node
type WebServer struct {
	httpAddr        string
	server          *http.Server
	serviceRegistry *srvreg.ServiceRegistry
	startTime       time.Time
	nodeID          string
	facility        string
	logger          cmtlog.Logger
}

// NewWebServer creates a new receiving web server
func NewWebServer(httpPort string, serviceRegistry *srvreg.ServiceRegistry, nodeID, facility string, logger cmtlog.Logger) *WebServer {
	mux := http.NewServeMux()

	ws := &WebServer{
		httpAddr: ":" + httpPort,
		server: &http.Server{
			Addr:              ":" + httpPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		serviceRegistry: serviceRegistry,
		startTime:       time.Now(),
		nodeID:          nodeID,
		facility:        facility,
		logger:          logger.With("module", "server"),
	}

	// Register routes
	mux.HandleFunc("/", ws.handleRoot)
	mux.HandleFunc("/info", ws.handleService)
	mux.HandleFunc("/auth/", ws.handleService)
	mux.HandleFunc("/rf/", ws.handleService)
	mux.HandleFunc("/batch/", ws.handleService)

	return ws
}

// Handler exposes the routed handler, for tests and embedding
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start starts the web server
func (ws *WebServer) Start() error {
	log.Printf("Starting RF receiving web server")
	log.Printf("   Node ID: %s", ws.nodeID)
	log.Printf("   Facility: %s", ws.facility)
	log.Printf("   Address: %s", ws.httpAddr)

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Error("Web server error", "err", err)
		}
	}()

	log.Println("✓ Web server started successfully")
	return nil
}

// Shutdown gracefully shuts down the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	return ws.server.Shutdown(ctx)
}

// handleRoot shows node information
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}

	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(ws.startTime).Round(time.Second)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <title>RF Receiving - %s</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .container { background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #2c5aa0; margin-top: 0; }
        .label { font-weight: bold; color: #555; }
        .value { color: #333; margin-left: 10px; }
        .endpoint { background: #f8f9fa; padding: 10px; margin: 8px 0; border-radius: 4px; font-family: monospace; }
        .method { font-weight: bold; color: #007bff; margin-right: 10px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>RF Receiving Node</h1>
        <div><span class="label">Node ID:</span><span class="value">%s</span></div>
        <div><span class="label">Facility:</span><span class="value">%s</span></div>
        <div><span class="label">Uptime:</span><span class="value">%s</span></div>
        <h3>Available Endpoints:</h3>
        <div class="endpoint"><span class="method">POST</span>/auth/login - Sign an operator in</div>
        <div class="endpoint"><span class="method">POST</span>/rf/receiving - Send one keystroke</div>
        <div class="endpoint"><span class="method">GET</span>/rf/receiving/session - Current screen</div>
        <div class="endpoint"><span class="method">GET</span>/batch/:id - Batch receiving status</div>
        <div class="endpoint"><span class="method">GET</span>/info - Node information</div>
    </div>
</body>
</html>
	`, ws.nodeID, ws.nodeID, ws.facility, uptime)

	w.Write([]byte(html))
}

// handleService passes a request through the service registry
func (ws *WebServer) handleService(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	req := (&srvreg.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Body:       string(bodyBytes),
		RemoteAddr: r.RemoteAddr,
		Timestamp:  time.Now(),
	}).WithContext(r.Context())

	response, err := req.GenerateResponse(ws.serviceRegistry)
	if err != nil {
		ws.logger.Error("Error generating response", "method", r.Method, "path", r.URL.Path, "err", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeResponse(w, response)
}

// writeResponse writes a Response to http.ResponseWriter
func writeResponse(w http.ResponseWriter, resp *srvreg.Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}

// jsonError writes a JSON error response
func jsonError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := map[string]string{
		"error": message,
	}
	json.NewEncoder(w).Encode(errorResp)
}
