package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hrygo/armi/internal/aierr"
	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/internal/profile"
	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/interpreter"
)

// State is the conversation state.
type State string

const (
	StateReady                State = "ready"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// Interpreter interprets one turn against a resolved time context.
type Interpreter interface {
	InterpretWithContext(ctx context.Context, text string, tc aitime.TimeContext) *interpreter.Result
}

// Executor applies validated actions. source is the user text that produced them.
type Executor interface {
	Execute(ctx context.Context, source string, actions []interpreter.Action) error
}

// Config configures a Machine.
type Config struct {
	ID        string
	Timezone  string
	Threshold float64
	// SimulatedNow pins the clock for every turn; development only.
	SimulatedNow string
}

// Reply is what a turn produced.
type Reply struct {
	Sequence  uint64              `json:"sequence"`
	State     State               `json:"state"`
	Message   string              `json:"message"`
	Summary   []string            `json:"summary,omitempty"`
	Result    *interpreter.Result `json:"result,omitempty"`
	Executed  bool                `json:"executed"`
	Cancelled bool                `json:"cancelled,omitempty"`
	Stale     bool                `json:"stale,omitempty"`
	ErrorCode aierr.Code          `json:"errorCode,omitempty"`
	SubCause  aierr.SubCause      `json:"subCause,omitempty"`
	Err       error               `json:"-"`
}

type pendingTurn struct {
	text   string
	result *interpreter.Result
	tc     aitime.TimeContext
}

// Machine is the Ready / AwaitingConfirmation loop for one conversation.
// Handle may be called concurrently; a turn whose interpretation finishes
// after a newer turn started is reported stale and changes nothing.
type Machine struct {
	mu      sync.Mutex
	state   State
	pending *pendingTurn
	seq     uint64

	id        string
	timezone  string
	simNow    string
	threshold float64

	interp  Interpreter
	clock   aitime.TimeResolver
	exec    Executor
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMachine creates a machine in the Ready state.
func NewMachine(cfg Config, interp Interpreter, clock aitime.TimeResolver, exec Executor) *Machine {
	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = profile.DefaultConfidenceThreshold
	}
	return &Machine{
		state:     StateReady,
		id:        cfg.ID,
		timezone:  cfg.Timezone,
		simNow:    cfg.SimulatedNow,
		threshold: threshold,
		interp:    interp,
		clock:     clock,
		exec:      exec,
		logger:    slog.Default(),
		metrics:   observability.GlobalMetrics(),
	}
}

// SetLogger replaces the logger.
func (m *Machine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// SetMetrics replaces the metrics collector.
func (m *Machine) SetMetrics(metrics *observability.Metrics) {
	if metrics != nil {
		m.metrics = metrics
	}
}

// ID returns the conversation id.
func (m *Machine) ID() string {
	return m.id
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending returns the result awaiting confirmation, or nil.
func (m *Machine) Pending() *interpreter.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	return m.pending.result
}

// Reset drops any pending result and returns to Ready.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.state = StateReady
	m.pending = nil
}

// Handle processes one user turn.
func (m *Machine) Handle(ctx context.Context, text string) *Reply {
	reqCtx := observability.NewRequestContext(m.logger, "conversation", m.id)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	m.mu.Lock()
	m.seq++
	seq := m.seq
	if m.state == StateAwaitingConfirmation {
		defer m.mu.Unlock()
		return m.handleConfirmationLocked(ctx, reqCtx, seq, text)
	}
	m.mu.Unlock()

	tc := m.clock.Resolve(m.timezone, m.simNow)
	result := m.interp.InterpretWithContext(ctx, text, tc)

	m.mu.Lock()
	if seq != m.seq {
		state := m.state
		m.mu.Unlock()
		m.metrics.RecordStaleResponse()
		reqCtx.Info("Discarding stale interpretation",
			slog.Uint64(observability.LogFieldSequence, seq))
		return &Reply{Sequence: seq, State: state, Stale: true, Result: result}
	}
	defer m.mu.Unlock()
	return m.handleResultLocked(ctx, reqCtx, seq, text, result, tc)
}

func (m *Machine) handleResultLocked(ctx context.Context, reqCtx *observability.RequestContext, seq uint64, text string, result *interpreter.Result, tc aitime.TimeContext) *Reply {
	reply := &Reply{Sequence: seq, Result: result}

	switch {
	case result.Intent == interpreter.IntentClarify || len(result.Actions) == 0:
		reply.Message = firstNonEmpty(result.Clarification, result.Response, "Could you tell me a bit more?")

	case result.Confidence >= m.threshold:
		reply.Summary = SummarizeActions(result.Actions, tc.Location)
		m.execute(ctx, reqCtx, reply, text, result)

	default:
		m.state = StateAwaitingConfirmation
		m.pending = &pendingTurn{text: text, result: result, tc: tc}
		reply.Summary = SummarizeActions(result.Actions, tc.Location)
		reply.Message = confirmationPrompt(result, tc.Location)
		reqCtx.Debug("Awaiting confirmation",
			slog.Float64("confidence", result.Confidence),
			slog.Float64("threshold", m.threshold))
	}

	reply.State = m.state
	return reply
}

func (m *Machine) handleConfirmationLocked(ctx context.Context, reqCtx *observability.RequestContext, seq uint64, text string) *Reply {
	pending := m.pending
	reply := &Reply{Sequence: seq, Result: pending.result}
	answer := ClassifyConfirmation(text)
	reqCtx.Debug("Confirmation classified", slog.String("answer", answer.String()))

	switch answer {
	case Affirmative:
		m.state = StateReady
		m.pending = nil
		reply.Summary = SummarizeActions(pending.result.Actions, pending.tc.Location)
		m.execute(ctx, reqCtx, reply, pending.text, pending.result)
	case Negative:
		m.state = StateReady
		m.pending = nil
		reply.Cancelled = true
		reply.Message = "Okay, I won't do that. Could you restate what you'd like?"
	default:
		reply.Summary = SummarizeActions(pending.result.Actions, pending.tc.Location)
		reply.Message = "Sorry, I didn't catch that. Please answer yes or no."
	}

	reply.State = m.state
	return reply
}

// execute runs actions and fills reply. The machine always ends in Ready.
func (m *Machine) execute(ctx context.Context, reqCtx *observability.RequestContext, reply *Reply, source string, result *interpreter.Result) {
	m.state = StateReady
	m.pending = nil

	err := m.exec.Execute(ctx, source, result.Actions)
	if err != nil {
		reply.Err = err
		reply.ErrorCode = aierr.CodeOf(err, aierr.CodeExecutionFailure)
		reply.SubCause = aierr.SubCauseOf(err)
		reply.Message = apology(err)
		reqCtx.Error("Execution failed", err,
			slog.String(observability.LogFieldErrorCode, string(reply.ErrorCode)),
			slog.String("sub_cause", string(reply.SubCause)))
		return
	}

	reply.Executed = true
	reply.Message = firstNonEmpty(result.Response, "Done.")
	if result.Note != "" {
		reply.Message = fmt.Sprintf("%s (%s)", reply.Message, result.Note)
	}
}

// apology renders a user-facing message for a failed execution with a
// manual fallback hint.
func apology(err error) string {
	const manual = " You can also add it manually from the app."
	if aierr.Is(err, aierr.CodeValidationFailure) {
		var e *aierr.Error
		errors.As(err, &e)
		return fmt.Sprintf("Sorry, some details were missing (%s). Please restate the request.", e.Message)
	}
	switch aierr.SubCauseOf(err) {
	case aierr.SubCauseConnectivity:
		return "Sorry, I couldn't reach storage to save that. Check your connection and try again." + manual
	case aierr.SubCauseParse:
		return "Sorry, part of that couldn't be saved in the expected format." + manual
	case aierr.SubCauseConfiguration:
		return "Sorry, the app isn't configured to save that right now." + manual
	default:
		return "Sorry, something went wrong while saving that." + manual
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
