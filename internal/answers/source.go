package answers

import (
	"context"

	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/ports"
)

// JSONLSource implements ports.QuestionSource over one question file.
// It applies release filtering, the id allow-list, the index window,
// and the resume/retry policy, in that order.
type JSONLSource struct {
	// Path is the question.jsonl file to read.
	Path string

	// Release and Releases select which question releases are admitted.
	Release  string
	Releases ReleaseSet

	// QuestionIDs, when non-empty, restricts the run to these ids.
	QuestionIDs []string

	// Begin and End window the question list with slice semantics;
	// negative means unbounded on that side.
	Begin, End int

	// AnswerFile is consulted for the resume/retry policy.
	AnswerFile    string
	Resume        bool
	RetryFailures bool
}

var _ ports.QuestionSource = (*JSONLSource)(nil)

// Questions returns the questions that still need answers.
func (s *JSONLSource) Questions(ctx context.Context) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	questions, err := LoadQuestionsFile(s.Path, s.Release, s.Releases, s.QuestionIDs)
	if err != nil {
		return nil, err
	}
	questions = SliceQuestions(questions, s.Begin, s.End)
	return FilterQuestions(questions, s.AnswerFile, s.Resume, s.RetryFailures)
}
