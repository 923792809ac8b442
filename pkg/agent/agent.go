// Package agent answers free-text questions by letting a chat model call
// the hospital tools in a bounded loop.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/llm"
	"github.com/ekaya-inc/hospital-assistant/pkg/logging"
	"github.com/ekaya-inc/hospital-assistant/pkg/prompts"
	"github.com/ekaya-inc/hospital-assistant/pkg/tools"
)

const (
	// DefaultMaxRounds bounds tool-invocation rounds per question.
	DefaultMaxRounds = 5

	temperature = 0
	maxTokens   = 2000

	// ExhaustedMessage is the answer when the bound is hit before the model
	// produced any text.
	ExhaustedMessage = "Agent stopped due to max iterations."
)

// Toolbox is the subset of the tool registry the agent needs.
type Toolbox interface {
	Tools() []tools.Tool
	Call(ctx context.Context, name string, args map[string]any) tools.Result
}

// Outcome names how a run ended.
type Outcome int

const (
	// OutcomeAnswered means the model produced a final answer.
	OutcomeAnswered Outcome = iota
	// OutcomeExhausted means the round bound was reached first.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Answer is the result of one question.
type Answer struct {
	Text    string
	Outcome Outcome
	Model   llm.ModelInfo
	Rounds  int
	RunID   string
}

// Agent binds a model factory, the tool registry and the system prompt.
// It holds no per-question state and is safe for concurrent use.
type Agent struct {
	models    llm.ModelFactory
	toolbox   Toolbox
	prompt    string
	maxRounds int
	logger    *zap.Logger
}

// New creates an Agent. A non-positive maxRounds uses DefaultMaxRounds.
func New(models llm.ModelFactory, toolbox Toolbox, maxRounds int, logger *zap.Logger) *Agent {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Agent{
		models:    models,
		toolbox:   toolbox,
		prompt:    prompts.BuildHospitalAssistantPrompt(),
		maxRounds: maxRounds,
		logger:    logger.Named("agent"),
	}
}

// Available reports whether any model backend can be constructed.
func (a *Agent) Available() bool {
	return a.models.Available()
}

// Models returns the model catalog.
func (a *Agent) Models() []llm.ModelInfo {
	return a.models.Catalog().All()
}

// Ask answers question with the model registered under modelID.
// Unknown models and missing credentials fail before any I/O. Reaching
// the round bound is not an error: the Answer carries OutcomeExhausted.
func (a *Agent) Ask(ctx context.Context, question, modelID string) (*Answer, error) {
	model, info, err := a.models.ForModel(modelID)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	ctx = llm.WithRunID(ctx, runID)

	a.logger.Info("Processing question",
		zap.String("run_id", runID),
		zap.String("model", info.ID),
		zap.String("question", logging.TruncateString(question, 200)))

	start := time.Now()
	r := &run{
		agent: a,
		model: model,
		req: &llm.ChatRequest{
			SystemPrompt: a.prompt,
			Messages:     []llm.Message{{Role: llm.RoleUser, Content: question}},
			Tools:        a.toolDefinitions(),
			Temperature:  temperature,
			MaxTokens:    maxTokens,
		},
		runID: runID,
	}
	if err := r.execute(ctx); err != nil {
		a.logger.Error("Agent run failed",
			zap.String("run_id", runID),
			zap.String("model", info.ID),
			zap.Int("rounds", r.round),
			zap.Error(err))
		return nil, err
	}

	a.logger.Info("Agent run finished",
		zap.String("run_id", runID),
		zap.String("model", info.ID),
		zap.Stringer("outcome", r.outcome),
		zap.Int("rounds", r.round),
		zap.Duration("elapsed", time.Since(start)))

	return &Answer{
		Text:    r.answer,
		Outcome: r.outcome,
		Model:   info,
		Rounds:  r.round,
		RunID:   runID,
	}, nil
}

func (a *Agent) toolDefinitions() []llm.ToolDefinition {
	all := a.toolbox.Tools()
	defs := make([]llm.ToolDefinition, len(all))
	for i, t := range all {
		defs[i] = llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema(),
		}
	}
	return defs
}

type state int

const (
	stateDispatch state = iota
	stateAwaitingToolResult
	stateBoundedRetry
	stateTerminal
)

// run is the state of one question. Transitions:
//
//	dispatch -> terminal               model answered or failed
//	dispatch -> awaitingToolResult     model requested tools
//	awaitingToolResult -> boundedRetry tool results appended, round counted
//	boundedRetry -> dispatch           rounds remain
//	boundedRetry -> terminal           bound reached, OutcomeExhausted
type run struct {
	agent *Agent
	model llm.ChatModel
	req   *llm.ChatRequest
	runID string

	state    state
	round    int
	pending  []llm.ToolCall
	lastText string

	answer  string
	outcome Outcome
	err     error
}

func (r *run) execute(ctx context.Context) error {
	for r.state != stateTerminal {
		switch r.state {
		case stateDispatch:
			r.dispatch(ctx)
		case stateAwaitingToolResult:
			r.invokeTools(ctx)
		case stateBoundedRetry:
			r.checkBound()
		}
	}
	return r.err
}

func (r *run) dispatch(ctx context.Context) {
	resp, err := r.model.Chat(ctx, r.req)
	if err != nil {
		r.err = fmt.Errorf("model %s: %w", r.model.GetModel(), err)
		r.state = stateTerminal
		return
	}

	content := strings.TrimSpace(resp.Content)
	if len(resp.ToolCalls) == 0 {
		r.answer = content
		r.outcome = OutcomeAnswered
		r.state = stateTerminal
		return
	}

	if content != "" {
		r.lastText = content
	}
	r.req.Messages = append(r.req.Messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})
	r.pending = resp.ToolCalls
	r.state = stateAwaitingToolResult
}

func (r *run) invokeTools(ctx context.Context) {
	r.round++
	for _, tc := range r.pending {
		r.req.Messages = append(r.req.Messages, r.invoke(ctx, tc))
	}
	r.pending = nil
	r.state = stateBoundedRetry
}

// invoke runs one tool call. Malformed arguments go back to the model as an
// error result so it can correct itself on the next round.
func (r *run) invoke(ctx context.Context, tc llm.ToolCall) llm.Message {
	args, err := decodeArguments(tc.Function.Arguments)
	if err != nil {
		r.agent.logger.Warn("Malformed tool arguments",
			zap.String("run_id", r.runID),
			zap.String("tool", tc.Function.Name),
			zap.Int("round", r.round),
			zap.String("arguments", logging.TruncateString(tc.Function.Arguments, 200)))
		text := fmt.Sprintf("Error calling tool %s: arguments must be a JSON object (%v)", tc.Function.Name, err)
		return llm.ToolMessage(tc.ID, text, true)
	}

	result := r.agent.toolbox.Call(ctx, tc.Function.Name, args)
	r.agent.logger.Debug("Tool round result",
		zap.String("run_id", r.runID),
		zap.String("tool", tc.Function.Name),
		zap.Int("round", r.round),
		zap.Bool("is_error", result.IsError()))
	return llm.ToolMessage(tc.ID, result.Text(), result.IsError())
}

func (r *run) checkBound() {
	if r.round < r.agent.maxRounds {
		r.state = stateDispatch
		return
	}

	r.agent.logger.Warn("Agent reached round limit",
		zap.String("run_id", r.runID),
		zap.Int("max_rounds", r.agent.maxRounds))
	r.outcome = OutcomeExhausted
	r.answer = r.lastText
	if r.answer == "" {
		r.answer = ExhaustedMessage
	}
	r.state = stateTerminal
}

// decodeArguments parses the model's argument text. Empty input is an
// empty object; anything that is not a JSON object is rejected.
func decodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
