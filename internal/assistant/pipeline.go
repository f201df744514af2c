package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"artemis/internal/metrics"
	"artemis/internal/task"
)

// Pipeline wires the stages of one conversational exchange: prompt
// building, completion, extraction, validation, then either a proposal
// for the client to hold or a direct query/chat response.
type Pipeline struct {
	llm      LLMClient
	executor *Executor
	taxonomy func() task.Taxonomy
	logger   *zap.Logger
}

// ChatResult is what one user message resolves to. Proposal is non-nil
// when the exchange is waiting on an explicit confirm/cancel.
type ChatResult struct {
	ResponseText string
	Proposal     *Proposal
}

// NewPipeline assembles the pipeline. taxonomy is called per request so
// hot-reloaded configuration is picked up without restarting.
func NewPipeline(llm LLMClient, executor *Executor, taxonomy func() task.Taxonomy, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{llm: llm, executor: executor, taxonomy: taxonomy, logger: logger}
}

// HandleMessage runs the full pipeline for one free-text user message.
// Errors carry the pipeline taxonomy (ErrUpstream, ErrMalformedCompletion,
// ErrUnknownAction, ErrMissingField) for the caller to phrase.
func (p *Pipeline) HandleMessage(ctx context.Context, speaker, message string) (*ChatResult, error) {
	tax := p.taxonomy()
	prompt := BuildUserTurn(BuildPrompt(speaker, tax, p.executor.Today()), message)

	start := time.Now()
	raw, err := p.llm.Complete(ctx, prompt)
	metrics.CompletionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		p.logger.Warn("completion failed", zap.Error(err))
		return nil, err
	}

	extracted, err := ExtractJSON(raw)
	if err != nil {
		p.logger.Warn("unparseable completion", zap.String("raw", raw), zap.Error(err))
		return nil, err
	}

	outcome, err := ParseAction(extracted, speaker, tax)
	if err != nil {
		p.logger.Warn("invalid action payload", zap.Error(err))
		return nil, err
	}

	switch {
	case outcome.Proposal != nil:
		return &ChatResult{ResponseText: outcome.Proposal.ResponseText, Proposal: outcome.Proposal}, nil
	case outcome.Query != nil:
		text, err := p.executor.RunQuery(ctx, outcome.Query)
		if err != nil {
			return nil, err
		}
		return &ChatResult{ResponseText: text}, nil
	default:
		return &ChatResult{ResponseText: outcome.Reply}, nil
	}
}

// Confirm executes a proposal the user explicitly confirmed. The
// proposal is the one echoed back by the client; defaults are re-applied
// during execution rather than trusted from the payload.
func (p *Pipeline) Confirm(ctx context.Context, speaker string, proposal *Proposal) Summary {
	return p.executor.Execute(ctx, proposal, speaker, p.taxonomy())
}
