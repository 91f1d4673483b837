// Package domain defines the core data model for the benchmark toolkit:
// questions, multi-turn conversations, answer records, and the errors
// shared across the pipeline.
package domain

// Question is a single benchmark item. It is immutable once loaded;
// the pipeline never mutates a Question in place.
type Question struct {
	// QuestionID uniquely identifies the question within a task.
	QuestionID string `json:"question_id"`

	// Category and Task locate the question inside the benchmark
	// directory layout (data/live_bench/{category}/{task}).
	Category string `json:"category,omitempty"`
	Task     string `json:"task,omitempty"`

	// Turns holds the ordered conversation prompts. The last turn asks
	// the question; earlier turns establish context.
	Turns []string `json:"turns"`

	// RequiredTemperature, when non-nil, pins the sampling temperature
	// for this question. Mutually exclusive with a forced temperature
	// on the run.
	RequiredTemperature *float64 `json:"required_temperature,omitempty"`

	// LiveBenchReleaseDate tags the release that introduced the
	// question. Questions newer than the selected release are skipped.
	LiveBenchReleaseDate string `json:"livebench_release_date,omitempty"`

	// LiveBenchRemovalDate, when set, names the release that retired
	// the question. Empty means the question is still active.
	LiveBenchRemovalDate string `json:"livebench_removal_date,omitempty"`
}

// NumTurns returns the number of conversation turns in the question.
func (q Question) NumTurns() int { return len(q.Turns) }
