// Package pipeline contains the answer-generation core: a per-question
// record builder that drives multi-turn model conversations, and a
// dispatcher that schedules one build per question across a bounded
// worker pool with durable, resumable output.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/perturb"
	"github.com/ahrav/go-livebench/internal/ports"
)

// Shared validator instance to reduce allocations.
var pipelineValidator = validator.New()

// Sentinel errors for clear, testable error conditions.
var (
	ErrInvokerNil   = errors.New("model invoker cannot be nil")
	ErrPerturberNil = errors.New("perturber cannot be nil when perturbation is enabled")
)

// BuilderConfig holds the per-run settings that shape every answer
// record.
type BuilderConfig struct {
	// ModelID is the model display name stamped into every record and
	// used as the answer file's base name. It is fixed at construction,
	// never patched afterwards.
	ModelID string `validate:"required"`

	// NumChoices is how many independent completions to generate per
	// question.
	NumChoices int `validate:"required,min=1"`

	// MaxTokens caps the length of each model response.
	MaxTokens int `validate:"required,min=1"`

	// ForceTemperature overrides the sampling temperature for every
	// question. Mutually exclusive with a question's required
	// temperature.
	ForceTemperature *float64

	// SystemPrompt seeds each conversation. Empty means no system
	// message.
	SystemPrompt string

	// Stream asks the invoker to stream responses where supported.
	Stream bool

	// Perturb selects the prompt perturbations for this run.
	Perturb perturb.Config
}

// BuildResult bundles the assembled answer record with the perturbation
// outcome so the caller can emit a modification record.
type BuildResult struct {
	Record domain.AnswerRecord

	// Perturbation is nil when no perturbation type was enabled.
	// When non-nil, Perturbation.Applied gates the modification record.
	Perturbation *perturb.Outcome
}

// Builder assembles one answer record per question by running the
// configured number of choices, each a strictly sequential multi-turn
// conversation. It performs no file IO; the only side effects are the
// model calls it triggers. Safe for concurrent use.
type Builder struct {
	invoker   ports.ModelInvoker
	perturber *perturb.Perturber
	config    BuilderConfig
}

// NewBuilder creates a Builder. The perturber may be nil when no
// perturbation type is enabled.
func NewBuilder(invoker ports.ModelInvoker, perturber *perturb.Perturber, config BuilderConfig) (*Builder, error) {
	if invoker == nil {
		return nil, ErrInvokerNil
	}
	if config.Perturb.Enabled() && perturber == nil {
		return nil, ErrPerturberNil
	}
	if err := pipelineValidator.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return &Builder{invoker: invoker, perturber: perturber, config: config}, nil
}

// resolveTemperature picks the sampling temperature for a question:
// the forced value if set, else the question's required value, else 0.
// Setting both is a configuration error.
func (b *Builder) resolveTemperature(q domain.Question) (float64, error) {
	forced := b.config.ForceTemperature
	if forced != nil && q.RequiredTemperature != nil {
		return 0, domain.NewConfigurationError(
			"force-temperature",
			fmt.Sprintf("question %s specifies a required temperature", q.QuestionID),
		)
	}
	if forced != nil {
		return *forced, nil
	}
	if q.RequiredTemperature != nil {
		return *q.RequiredTemperature, nil
	}
	return 0, nil
}

// Build runs the full conversation for one question and packages the
// result. Turns within a choice are strictly sequential because each
// turn's prompt depends on the previous response being in context;
// choices are generated sequentially too, parallelism lives at the
// question level in the dispatcher.
//
// On any invocation failure the question's record is abandoned; nothing
// partial is returned or persisted.
func (b *Builder) Build(ctx context.Context, q domain.Question) (BuildResult, error) {
	temperature, err := b.resolveTemperature(q)
	if err != nil {
		return BuildResult{}, err
	}

	var outcome *perturb.Outcome
	promptTurns := q.Turns
	if b.config.Perturb.Enabled() {
		o := b.perturber.Perturb(q, b.config.Perturb)
		outcome = &o
		promptTurns = o.Turns
	}

	options := map[string]any{
		"temperature": temperature,
		"max_tokens":  b.config.MaxTokens,
		"stream":      b.config.Stream,
	}

	choices := make([]domain.Choice, 0, b.config.NumChoices)
	totalTokens := 0
	for i := 0; i < b.config.NumChoices; i++ {
		conv := domain.NewConversation(b.config.SystemPrompt)

		turns := make([]string, 0, len(promptTurns))
		for j, prompt := range promptTurns {
			conv.AppendUser(prompt)

			output, numTokens, err := b.invoker.Invoke(ctx, conv, options)
			if err != nil {
				return BuildResult{}, fmt.Errorf(
					"%w: question %s choice %d turn %d: %v",
					domain.ErrInvocationFailed, q.QuestionID, i, j, err,
				)
			}

			conv.AppendAssistant(output)
			turns = append(turns, output)
			totalTokens += numTokens
		}

		choices = append(choices, domain.Choice{Index: i, Turns: turns})
	}

	return BuildResult{
		Record: domain.AnswerRecord{
			QuestionID:        q.QuestionID,
			AnswerID:          domain.NewAnswerID(),
			ModelID:           b.config.ModelID,
			Choices:           choices,
			Tstamp:            domain.Timestamp(),
			TotalOutputTokens: totalTokens,
		},
		Perturbation: outcome,
	}, nil
}

// ModificationRecord builds the modification log entry for a completed
// build, or returns false when none should be emitted.
func (b *Builder) ModificationRecord(q domain.Question, res BuildResult) (domain.ModificationRecord, bool) {
	if res.Perturbation == nil || !res.Perturbation.Applied {
		return domain.ModificationRecord{}, false
	}
	return domain.ModificationRecord{
		QuestionID:             q.QuestionID,
		ModelID:                b.config.ModelID,
		OriginalTurns:          q.Turns,
		ModifiedTurns:          res.Perturbation.Turns,
		RandomizePromptApplied: b.config.Perturb.RandomizePrompt,
		AddNoiseApplied:        b.config.Perturb.AddNoise,
		RandomPrefix:           res.Perturbation.RandomPrefix,
		Tstamp:                 domain.Timestamp(),
	}, true
}
