package answers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ahrav/go-livebench/internal/domain"
)

// ErrorOutputMarker is the sentinel text a failed invocation leaves in
// an answer turn. The retry filter re-queues questions whose persisted
// answer carries it.
const ErrorOutputMarker = "$ERROR$"

// FilterQuestions implements the resume/retry policy against an
// existing answer file.
//
// Without resume, every question is returned and the run appends fresh
// records (the dedup post-pass keeps the newest). With resume, a
// question is skipped when the file already holds an answer for it,
// unless retryFailures is set and that answer is a failure.
//
// A missing answer file means nothing has been answered yet.
func FilterQuestions(questions []domain.Question, answerFile string, resume, retryFailures bool) ([]domain.Question, error) {
	if !resume {
		return questions, nil
	}

	existing, err := loadAnswerIndex(answerFile)
	if err != nil {
		return nil, err
	}

	var remaining []domain.Question
	for _, q := range questions {
		rec, answered := existing[q.QuestionID]
		if !answered {
			remaining = append(remaining, q)
			continue
		}
		if retryFailures && answerFailed(rec) {
			remaining = append(remaining, q)
		}
	}
	return remaining, nil
}

// loadAnswerIndex reads an answer file into a map keyed by question id,
// last record winning. Unparseable lines are skipped; the file may be
// mid-resume and is only required to be line-valid where it matters.
func loadAnswerIndex(answerFile string) (map[string]domain.AnswerRecord, error) {
	f, err := os.Open(answerFile)
	if os.IsNotExist(err) {
		return map[string]domain.AnswerRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", answerFile, err)
	}
	defer f.Close()

	index := make(map[string]domain.AnswerRecord)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec domain.AnswerRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.QuestionID == "" {
			continue
		}
		index[rec.QuestionID] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", answerFile, err)
	}
	return index, nil
}

// answerFailed reports whether any turn of any choice carries the
// error marker.
func answerFailed(rec domain.AnswerRecord) bool {
	for _, choice := range rec.Choices {
		for _, turn := range choice.Turns {
			if strings.Contains(turn, ErrorOutputMarker) {
				return true
			}
		}
	}
	return false
}
