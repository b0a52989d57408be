// Package receiving is the keystroke-driven pallet receiving workflow. Each
// request carries one operator input; the engine runs it against the
// operator's stored session and answers with the next screen.
package receiving

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmadzakiakmal/rf-receiving/compensate"
	"github.com/ahmadzakiakmal/rf-receiving/crossdock"
	"github.com/ahmadzakiakmal/rf-receiving/printclient"
	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/session"
	"github.com/ahmadzakiakmal/rf-receiving/validation"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"k8s.io/utils/clock"
)

// Printer prints pallet labels
type Printer interface {
	PrintLabel(ctx context.Context, label printclient.Label) error
}

// TaskQueue accepts background work
type TaskQueue interface {
	Enqueue(ctx context.Context, kind, dedupeKey string, payload any) (string, error)
}

// Input is one keystroke from a handheld
type Input struct {
	OperatorID string `json:"operator_id"`
	TerminalID string `json:"terminal_id"`
	Facility   string `json:"-"`
	Value      string `json:"value"`
	FKey       string `json:"fkey"`
}

// Result is the screen the handheld renders next
type Result struct {
	NextStep     Step              `json:"next_step"`
	Error        string            `json:"error,omitempty"`
	Warning      string            `json:"warning,omitempty"`
	Fields       []FieldDescriptor `json:"fields"`
	FunctionKeys []string          `json:"function_keys"`
	Payload      map[string]any    `json:"payload,omitempty"`
}

// Options wires an Engine to its collaborators
type Options struct {
	Store    repository.Store
	Sessions *session.Store
	Tasks    TaskQueue
	Printer  Printer
	Clock    clock.PassiveClock
	Logger   cmtlog.Logger
}

// Engine runs receiving steps
type Engine struct {
	store    repository.Store
	sessions *session.Store
	tasks    TaskQueue
	printer  Printer
	router   *crossdock.Router
	comp     *compensate.Manager
	auditor  *validation.Auditor
	clock    clock.PassiveClock
	logger   cmtlog.Logger
}

func NewEngine(opts Options) *Engine {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = cmtlog.NewNopLogger()
	}
	printer := opts.Printer
	if printer == nil {
		printer = printclient.Nop{}
	}
	return &Engine{
		store:    opts.Store,
		sessions: opts.Sessions,
		tasks:    opts.Tasks,
		printer:  printer,
		router:   crossdock.NewRouter(logger),
		comp:     compensate.NewManager(opts.Store, clk, logger),
		auditor:  validation.NewAuditor(clk),
		clock:    clk,
		logger:   logger.With("module", "receiving"),
	}
}

// turn is the working set of one request
type turn struct {
	ctx      context.Context
	in       Input
	ev       Event
	value    string
	st       *State
	warnings []string
	payload  map[string]any
}

func (t *turn) warn(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

func (t *turn) set(key string, v any) {
	t.payload[key] = v
}

type handler func(e *Engine, t *turn) (Step, error)

var handlers map[Step]handler

func init() {
	handlers = map[Step]handler{
		StepConfirmation:       (*Engine).onConfirmation,
		StepProduct:            (*Engine).onProduct,
		StepPurchaseOrder:      (*Engine).onPurchaseOrder,
		StepQuickNote:          (*Engine).onQuickNote,
		StepPalletID:           (*Engine).onPalletID,
		StepQuantity:           (*Engine).onQuantity,
		StepTieHighConfirm:     (*Engine).onTieHighConfirm,
		StepBlast:              (*Engine).onBlast,
		StepLot:                (*Engine).onLot,
		StepCustomerLot:        (*Engine).onText,
		StepEstablishment:      (*Engine).onText,
		StepReference:          (*Engine).onText,
		StepConsignee:          (*Engine).onText,
		StepSlaughterDate:      (*Engine).onSlaughterDate,
		StepTemperature:        (*Engine).onTemperature,
		StepBestBefore:         (*Engine).onBestBefore,
		StepRotationOverride:   (*Engine).onRotationOverride,
		StepCatchWeight:        (*Engine).onCatchWeight,
		StepPalletType:         (*Engine).onPalletType,
		StepMachineID:          (*Engine).onMachineID,
		StepMerge:              (*Engine).onMerge,
		StepPutaway:            (*Engine).onPutaway,
		StepCommit:             (*Engine).onCommit,
		StepCrossDockInfo:      (*Engine).onCrossDockInfo,
		StepCrossDockLocation:  (*Engine).onCrossDockLocation,
		StepCrossDockException: (*Engine).onCrossDockException,
		StepCloseSingle:        (*Engine).onCloseSingle,
		StepCloseAll:           (*Engine).onCloseAll,
		StepWaitingOther:       (*Engine).onWaitingOther,
		StepClosedByOther:      (*Engine).onClosedByOther,
		StepLoading:            (*Engine).onLoading,
	}
}

// Handle runs one keystroke against the operator's session
func (e *Engine) Handle(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(in.OperatorID) == "" {
		return nil, fmt.Errorf("operator id is required")
	}

	st, err := e.loadState(in)
	if err != nil {
		return nil, err
	}
	from := st.Step

	ev, ok := ParseEvent(in.FKey)
	if !ok {
		return e.render(st, from, nil, fmt.Sprintf("Key %s not recognized", in.FKey)), nil
	}
	if !Accepts(from, ev) {
		return e.render(st, from, nil, fmt.Sprintf("Key %s not available here", in.FKey)), nil
	}

	t := &turn{
		ctx:     ctx,
		in:      in,
		ev:      ev,
		value:   strings.TrimSpace(in.Value),
		st:      st,
		payload: map[string]any{},
	}

	next, err := e.dispatch(t)
	if err != nil {
		return e.fail(t, from, err)
	}

	if !Allowed(from, ev, next) {
		e.logger.Error("Handler produced an undeclared transition", "operator", in.OperatorID, "from", from, "event", ev, "to", next)
		return e.render(st, from, nil, "System error, try again"), nil
	}

	switch next {
	case StepExit:
		if err := e.sessions.DeleteAll(in.OperatorID); err != nil {
			return nil, fmt.Errorf("failed to end session: %w", err)
		}
		e.logger.Info("Receiving session ended", "operator", in.OperatorID)
		return e.renderTurn(t, next), nil
	case StepBatchClosed:
		t.st.Reset()
	default:
		t.st.Step = next
	}

	if err := e.sessions.Set(in.OperatorID, session.ContextReceiving, t.st); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.logger.Debug("Step advanced", "operator", in.OperatorID, "from", from, "event", ev, "to", next)
	return e.renderTurn(t, next), nil
}

// Current renders the screen the operator is on without changing it
func (e *Engine) Current(ctx context.Context, operatorID string) (*Result, error) {
	st, err := session.Load[State](e.sessions, operatorID, session.ContextReceiving)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if st == nil {
		st = NewState(operatorID, "")
	}
	return e.render(st, st.Step, nil, ""), nil
}

// RefreshProfile reloads the requirement profile and facility settings of
// the operator's active batch, as done when the operator signs in again
func (e *Engine) RefreshProfile(ctx context.Context, operatorID string) error {
	return session.Update(e.sessions, operatorID, session.ContextReceiving, func(st *State) (bool, error) {
		if st.Step == "" {
			return false, nil
		}
		if st.BatchID == "" {
			return true, nil
		}
		batch, err := e.store.GetBatch(ctx, st.BatchID)
		if err != nil {
			if repository.IsNotFound(err) {
				st.Reset()
				return true, nil
			}
			return false, err
		}
		if err := e.loadProfile(ctx, st, batch); err != nil {
			return false, err
		}
		st.ScanStatus = batch.ScanStatus
		return true, nil
	})
}

func (e *Engine) loadState(in Input) (*State, error) {
	st, err := session.Load[State](e.sessions, in.OperatorID, session.ContextReceiving)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if st == nil {
		st = NewState(in.OperatorID, in.TerminalID)
	}
	if in.TerminalID != "" {
		st.TerminalID = in.TerminalID
	}
	if st.Facility == "" {
		st.Facility = in.Facility
	}
	return st, nil
}

func (e *Engine) dispatch(t *turn) (next Step, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Step panicked", "operator", t.in.OperatorID, "step", t.st.Step, "panic", r)
			err = fmt.Errorf("step %s panicked: %v", t.st.Step, r)
		}
	}()

	step := t.st.Step
	switch {
	case t.ev == EventExit && step != StepPurchaseOrder:
		return e.exit(t)
	case t.ev == EventExit:
		return StepProduct, nil
	case t.ev == EventCancel:
		return e.cancelPallet(t)
	case t.ev == EventCopyPrior:
		return e.copyPrior(t)
	case t.ev == EventClose:
		return e.requestClose(t)
	case t.ev == EventCloseAll:
		return e.closeForAll(t)
	}

	h, ok := handlers[step]
	if !ok {
		return "", fmt.Errorf("no handler for step %s", step)
	}
	return h(e, t)
}

// fail turns a handler error into the screen shown; the stored session is
// left as it was except for data errors, which move the operator back
func (e *Engine) fail(t *turn, from Step, err error) (*Result, error) {
	var inputErr *InputError
	var ruleErr *RuleError
	var dataErr *DataError

	switch {
	case errors.As(err, &inputErr):
		return e.render(e.reload(t), from, nil, inputErr.Message), nil

	case errors.As(err, &ruleErr):
		if auditErr := e.auditor.Record(t.ctx, e.store, ruleErr.Violation); auditErr != nil {
			e.logger.Error("Failed to write audit record", "operator", t.in.OperatorID, "rule", ruleErr.Violation.Rule, "err", auditErr)
		}
		return e.render(e.reload(t), from, nil, ruleErr.Message), nil

	case errors.As(err, &dataErr):
		st := e.reload(t)
		if dataErr.Step == StepPalletID {
			st.ClearPallet()
		}
		st.Step = dataErr.Step
		if saveErr := e.sessions.Set(t.in.OperatorID, session.ContextReceiving, st); saveErr != nil {
			return nil, fmt.Errorf("failed to save session: %w", saveErr)
		}
		e.logger.Info("Inconsistent data, operator sent back", "operator", t.in.OperatorID, "step", dataErr.Step, "reason", dataErr.Message)
		return e.render(st, dataErr.Step, nil, dataErr.Message), nil
	}

	e.logger.Error("Step failed", "operator", t.in.OperatorID, "step", from, "err", err)
	msg := "System error, try again"
	if repository.IsRoutineFailure(err) {
		msg = "External routine failed, try again"
	}
	return e.render(e.reload(t), from, nil, msg), nil
}

// reload reads the stored session back; handlers may have mutated the
// in-memory copy before failing
func (e *Engine) reload(t *turn) *State {
	st, err := e.loadState(t.in)
	if err != nil {
		e.logger.Error("Failed to reload session", "operator", t.in.OperatorID, "err", err)
		return t.st
	}
	return st
}

func (e *Engine) renderTurn(t *turn, next Step) *Result {
	res := e.render(t.st, next, t.payload, "")
	res.Warning = strings.Join(t.warnings, "; ")
	return res
}

func (e *Engine) render(st *State, step Step, payload map[string]any, errMsg string) *Result {
	if payload == nil {
		payload = map[string]any{}
	}
	if st.BatchID != "" {
		payload["batch_id"] = st.BatchID
	}
	if st.ProductCode != "" {
		payload["product_code"] = st.ProductCode
	}
	if st.PalletID != "" {
		payload["pallet_id"] = st.PalletID
	}
	return &Result{
		NextStep:     step,
		Error:        errMsg,
		Fields:       FieldsFor(step),
		FunctionKeys: FunctionKeys(step),
		Payload:      payload,
	}
}
