package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/armi/internal/aierr"
	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/plugin/ai"
	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/schedule"
)

// Interpreter maps user text to a validated Result through the LLM backend,
// degrading to a deterministic mock when the backend is absent or misbehaves.
// It holds no per-request state and is safe for concurrent use.
type Interpreter struct {
	llm     ai.LLMService
	clock   aitime.TimeResolver
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Interpreter. A nil llm always takes the mock path.
func New(llm ai.LLMService, clock aitime.TimeResolver) *Interpreter {
	return &Interpreter{
		llm:     llm,
		clock:   clock,
		logger:  slog.Default(),
		metrics: observability.GlobalMetrics(),
	}
}

// SetLogger replaces the logger.
func (i *Interpreter) SetLogger(logger *slog.Logger) {
	if logger != nil {
		i.logger = logger
	}
}

// SetMetrics replaces the metrics collector.
func (i *Interpreter) SetMetrics(m *observability.Metrics) {
	if m != nil {
		i.metrics = m
	}
}

// Clock returns the resolver used for time ground truth.
func (i *Interpreter) Clock() aitime.TimeResolver {
	return i.clock
}

// Available reports whether the real backend would be called.
func (i *Interpreter) Available() bool {
	return i.llm != nil && i.llm.IsAvailable()
}

// Interpret resolves a fresh TimeContext and interprets req.Text.
// It never fails: every error path yields the mock clarify result.
func (i *Interpreter) Interpret(ctx context.Context, req Request) *Result {
	tc := i.clock.Resolve(req.UserTimezone, req.SimulatedNow)
	return i.InterpretWithContext(ctx, req.Text, tc)
}

// InterpretWithContext interprets text against an already resolved TimeContext.
func (i *Interpreter) InterpretWithContext(ctx context.Context, text string, tc aitime.TimeContext) *Result {
	reqCtx := observability.FromContextOrNew(ctx, i.logger, "interpreter")

	if !i.Available() || strings.TrimSpace(text) == "" {
		result := mockResult(tc)
		i.record(reqCtx, PathMockUnavailable, nil)
		return result
	}

	result, err := i.interpretWithLLM(ctx, text, tc)
	if err != nil {
		i.record(reqCtx, PathMockFallback, err)
		return mockResult(tc)
	}

	i.record(reqCtx, PathLLM, nil)
	reqCtx.Debug("Interpretation completed",
		slog.String("intent", string(result.Intent)),
		slog.Float64("confidence", result.Confidence),
		slog.Int("actions", len(result.Actions)))
	return result
}

func (i *Interpreter) interpretWithLLM(ctx context.Context, text string, tc aitime.TimeContext) (*Result, error) {
	content, err := i.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(buildIntentPrompt(tc)),
		ai.UserMessage(text),
	})
	if err != nil {
		return nil, aierr.BackendUnavailable("interpretation request failed", err)
	}

	result, err := parseResult(content)
	if err != nil {
		return nil, err
	}

	hardenResult(result, tc)
	return result, nil
}

// hardenResult rolls past timestamps forward and pins usedCurrentDatetime
// to the authoritative clock.
func hardenResult(r *Result, tc aitime.TimeContext) {
	for idx := range r.Actions {
		field := r.Actions[idx].ScheduledFor()
		if field == nil {
			continue
		}
		adjusted, changed := schedule.EnsureFuture(*field, tc.NowUTC)
		if changed {
			r.Note = schedule.AppendNote(r.Note,
				schedule.RollForwardNote(fmt.Sprintf("%s scheduledFor", r.Actions[idx].Type), *field, adjusted))
			*field = adjusted
		}
	}
	r.UsedCurrentDatetime = tc.NowISO()
}

func (i *Interpreter) record(reqCtx *observability.RequestContext, path string, err error) {
	i.metrics.RecordInterpretation(path, time.Since(reqCtx.StartTime))

	attrs := []slog.Attr{
		slog.String(observability.LogFieldInterpreterPath, path),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	}
	if err == nil {
		if path == PathLLM {
			reqCtx.Debug("Interpreter path selected", attrs...)
		} else {
			reqCtx.Info("Interpreter path selected", attrs...)
		}
		return
	}

	attrs = append(attrs,
		slog.String(observability.LogFieldErrorCode, string(aierr.CodeOf(err, aierr.CodeMalformedBackendResponse))),
		slog.String("sub_cause", string(aierr.ClassifySubCause(err))),
		slog.String("error", err.Error()))
	reqCtx.Warn("Interpretation failed, using mock", attrs...)
}
