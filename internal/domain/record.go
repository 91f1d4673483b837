package domain

import (
	"time"

	"github.com/google/uuid"
)

// Choice is one independently sampled completion of a question.
// Turns has exactly one entry per question turn, in turn order.
type Choice struct {
	Index int      `json:"index"`
	Turns []string `json:"turns"`
}

// AnswerRecord is one persisted result for a (question, invocation)
// pair. Records are append-only; repeated runs may accumulate several
// records for the same question id until a deduplication pass keeps
// one representative.
type AnswerRecord struct {
	QuestionID string `json:"question_id"`

	// AnswerID is freshly generated for every invocation, so two runs
	// over the same question never collide.
	AnswerID string `json:"answer_id"`

	// ModelID is the model display name, which doubles as the answer
	// file's base name.
	ModelID string `json:"model_id"`

	Choices []Choice `json:"choices"`

	// Tstamp is seconds since the Unix epoch at write time.
	Tstamp float64 `json:"tstamp"`

	// TotalOutputTokens sums the output token counts of every turn of
	// every choice.
	TotalOutputTokens int `json:"total_output_tokens"`
}

// ModificationRecord captures how a question's prompts were perturbed
// before being sent to the model. One is emitted per invocation, and
// only when at least one turn actually changed.
type ModificationRecord struct {
	QuestionID             string   `json:"question_id"`
	ModelID                string   `json:"model_id"`
	OriginalTurns          []string `json:"original_turns"`
	ModifiedTurns          []string `json:"modified_turns"`
	RandomizePromptApplied bool     `json:"randomize_prompt_applied"`
	AddNoiseApplied        bool     `json:"add_noise_applied"`
	RandomPrefix           string   `json:"random_prefix"`
	Tstamp                 float64  `json:"tstamp"`
}

// NewAnswerID returns a fresh unique answer identifier.
func NewAnswerID() string { return uuid.NewString() }

// Timestamp returns the current wall clock as fractional epoch seconds,
// the representation used in answer and modification records.
func Timestamp() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
