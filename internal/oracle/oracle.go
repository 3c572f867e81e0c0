// Package oracle implements collector.Oracle on top of an LLM provider.
package oracle

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ziadkadry99/casebrief/internal/collector"
	"github.com/ziadkadry99/casebrief/internal/llm"
	"github.com/ziadkadry99/casebrief/internal/logger"
)

const (
	rankMaxTokens   = 64
	phraseMaxTokens = 200
	temperature     = 0.2
)

// LLMOracle asks a language model whether slot answers are detailed enough
// and how to phrase follow-up questions.
type LLMOracle struct {
	provider llm.Provider
	model    string
	fields   []string
	log      *logger.Logger
	tracer   trace.Tracer
}

var _ collector.Oracle = (*LLMOracle)(nil)

// New creates an LLMOracle. slots are listed in every prompt as the fields
// the dialogue is trying to fill.
func New(provider llm.Provider, model string, slots []collector.Slot, log *logger.Logger) *LLMOracle {
	fields := make([]string, len(slots))
	for i, s := range slots {
		fields[i] = s.Name
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LLMOracle{
		provider: provider,
		model:    model,
		fields:   fields,
		log:      log.With("component", "oracle", "provider", provider.Name()),
		tracer:   otel.Tracer("github.com/ziadkadry99/casebrief/internal/oracle"),
	}
}

// RankMissing implements collector.Oracle.
func (o *LLMOracle) RankMissing(ctx context.Context, answers map[string]string, candidates []string) (collector.Ranking, error) {
	ctx, span := o.tracer.Start(ctx, "oracle.RankMissing",
		trace.WithAttributes(attribute.Int("casebrief.candidates", len(candidates))))
	defer span.End()

	reply, err := o.complete(ctx, buildRankPrompt(o.fields, answers, candidates), rankMaxTokens)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rank failed")
		return collector.Ranking{}, fmt.Errorf("ranking missing slots: %w", err)
	}

	if isDone(reply) {
		span.SetAttributes(attribute.Bool("casebrief.oracle.done", true))
		o.log.Debug("oracle ranking done")
		return collector.Ranking{Done: true}, nil
	}

	missing := parseFieldList(reply, candidates)
	span.SetAttributes(attribute.StringSlice("casebrief.oracle.missing", missing))
	o.log.Debug("oracle ranking", "missing", missing, "raw", reply)
	return collector.Ranking{Missing: missing}, nil
}

// PhraseQuestion implements collector.Oracle.
func (o *LLMOracle) PhraseQuestion(ctx context.Context, slot, current string) (collector.Phrasing, error) {
	ctx, span := o.tracer.Start(ctx, "oracle.PhraseQuestion",
		trace.WithAttributes(attribute.String("casebrief.slot", slot)))
	defer span.End()

	reply, err := o.complete(ctx, buildPhrasePrompt(o.fields, slot, current), phraseMaxTokens)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "phrase failed")
		return collector.Phrasing{}, fmt.Errorf("phrasing question for %s: %w", slot, err)
	}

	if isDone(reply) {
		span.SetAttributes(attribute.Bool("casebrief.oracle.done", true))
		return collector.Phrasing{Done: true}, nil
	}
	return collector.Phrasing{Question: cleanQuestion(reply)}, nil
}

func (o *LLMOracle) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model:       o.model,
		Messages:    []llm.Message{{Role: llm.RoleSystem, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	o.log.Debug("oracle call", "input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)
	return resp.Content, nil
}
