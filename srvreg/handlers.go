package srvreg

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ahmadzakiakmal/rf-receiving/auth"
	"github.com/ahmadzakiakmal/rf-receiving/receiving"
	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// InfoHandler returns node information
func (sr *ServiceRegistry) InfoHandler(req *Request) (*Response, error) {
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"node_id":  sr.nodeID,
		"facility": sr.facility,
		"type":     "RF Receiving Node",
		"status":   "active",
	})
}

// LoginHandler signs an operator in. Signing in again reloads the
// requirement profile of the batch the operator is receiving.
func (sr *ServiceRegistry) LoginHandler(req *Request) (*Response, error) {
	var body struct {
		OperatorID string `json:"operator_id"`
		Password   string `json:"password"`
		TerminalID string `json:"terminal_id"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return jsonError(http.StatusBadRequest, "Invalid request body: "+err.Error()), nil
	}
	if body.TerminalID == "" {
		return jsonError(http.StatusBadRequest, "terminal_id is required"), nil
	}

	ctx := req.Context()
	token, claims, err := sr.auth.Login(ctx, body.OperatorID, body.Password, body.TerminalID)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return jsonError(http.StatusUnauthorized, err.Error()), nil
	case errors.Is(err, auth.ErrInactiveOperator):
		return jsonError(http.StatusForbidden, err.Error()), nil
	case err != nil:
		sr.logger.Error("Login failed", "operator", body.OperatorID, "err", err)
		return jsonError(http.StatusInternalServerError, "Login failed"), nil
	}

	if err := sr.engine.RefreshProfile(ctx, claims.OperatorID); err != nil {
		sr.logger.Error("Failed to refresh requirement profile", "operator", claims.OperatorID, "err", err)
	}
	screen, err := sr.engine.Current(ctx, claims.OperatorID)
	if err != nil {
		sr.logger.Error("Failed to render current screen", "operator", claims.OperatorID, "err", err)
		return jsonError(http.StatusInternalServerError, "Failed to load session"), nil
	}

	sr.logger.Info("Operator signed in", "operator", claims.OperatorID, "terminal", claims.TerminalID)
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"token":       token,
		"operator_id": claims.OperatorID,
		"terminal_id": claims.TerminalID,
		"facility":    claims.Facility,
		"expires_at":  claims.ExpiresAt.Time,
		"screen":      screen,
	})
}

// KeystrokeHandler runs one keystroke of the receiving workflow
func (sr *ServiceRegistry) KeystrokeHandler(req *Request) (*Response, error) {
	claims, denied := sr.authorize(req)
	if denied != nil {
		return denied, nil
	}

	var in receiving.Input
	if strings.TrimSpace(req.Body) != "" {
		if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
			return jsonError(http.StatusBadRequest, "Invalid request body: "+err.Error()), nil
		}
	}
	sr.logger.Debug("Keystroke", "operator", claims.OperatorID, "body", compactJSON(req.Body))

	in.OperatorID = claims.OperatorID
	in.Facility = claims.Facility
	if in.TerminalID == "" {
		in.TerminalID = claims.TerminalID
	}

	result, err := sr.engine.Handle(req.Context(), in)
	if err != nil {
		sr.logger.Error("Keystroke failed", "operator", claims.OperatorID, "err", err)
		return jsonError(http.StatusInternalServerError, "System error, try again"), nil
	}
	return jsonResponse(http.StatusOK, result)
}

// SessionHandler returns the screen the operator is on
func (sr *ServiceRegistry) SessionHandler(req *Request) (*Response, error) {
	claims, denied := sr.authorize(req)
	if denied != nil {
		return denied, nil
	}
	result, err := sr.engine.Current(req.Context(), claims.OperatorID)
	if err != nil {
		sr.logger.Error("Failed to render current screen", "operator", claims.OperatorID, "err", err)
		return jsonError(http.StatusInternalServerError, "Failed to load session"), nil
	}
	return jsonResponse(http.StatusOK, result)
}

// BatchHandler returns the receiving status of a batch
func (sr *ServiceRegistry) BatchHandler(req *Request) (*Response, error) {
	if _, denied := sr.authorize(req); denied != nil {
		return denied, nil
	}
	pathParts := strings.Split(req.Path, "/")
	if len(pathParts) != 3 {
		return jsonError(http.StatusBadRequest, "Invalid path format"), nil
	}
	batchID := strings.ToUpper(pathParts[2])

	ctx := req.Context()
	batch, err := sr.store.GetBatch(ctx, batchID)
	if err != nil {
		if repository.IsNotFound(err) {
			return jsonError(http.StatusNotFound, "Batch not found"), nil
		}
		sr.logger.Error("Failed to read batch", "batch", batchID, "err", err)
		return jsonError(http.StatusInternalServerError, "Failed to read batch"), nil
	}

	pallets, err := sr.store.ListPallets(ctx, repository.PalletFilter{BatchID: batch.ID})
	if err != nil {
		sr.logger.Error("Failed to list pallets", "batch", batchID, "err", err)
		return jsonError(http.StatusInternalServerError, "Failed to read batch"), nil
	}
	var committed, temporary, cases int
	for _, p := range pallets {
		if p.IsCommitted() {
			committed++
			cases += p.Quantity
		} else {
			temporary++
		}
	}

	receivers, err := sr.store.ListReceivers(ctx, batch.ID)
	if err != nil {
		sr.logger.Error("Failed to list receivers", "batch", batchID, "err", err)
		return jsonError(http.StatusInternalServerError, "Failed to read batch"), nil
	}
	active := []string{}
	for _, r := range receivers {
		if r.Active {
			active = append(active, r.OperatorID)
		}
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"batch_id":          batch.ID,
		"confirmation":      batch.ConfirmationNumber,
		"customer_code":     batch.CustomerCode,
		"scan_status":       batch.ScanStatus,
		"open":              batch.ScanStatus == models.ScanStatusOpen,
		"multi_receiver":    batch.MultiReceiver,
		"finish_at":         batch.FinishAt,
		"pallets_committed": committed,
		"pallets_temporary": temporary,
		"cases_received":    cases,
		"active_receivers":  active,
	})
}

// authorize reads the bearer token of a request
func (sr *ServiceRegistry) authorize(req *Request) (*auth.Claims, *Response) {
	token, ok := auth.BearerToken(req.header("Authorization"))
	if !ok {
		return nil, jsonError(http.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
	}
	claims, err := sr.auth.Parse(token)
	if err != nil {
		return nil, jsonError(http.StatusUnauthorized, err.Error())
	}
	return claims, nil
}
