// Package results reads precomputed benchmark artifacts from disk for
// inspection tooling: categories, tasks, per-model answers, and
// ground-truth judgment statistics. Malformed lines in result files are
// tolerated and counted rather than treated as fatal, since downstream
// consumers must cope with partially structured payloads.
package results

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-livebench/internal/answers"
	"github.com/ahrav/go-livebench/internal/domain"
)

// DefaultDataPath is the conventional benchmark data root.
const DefaultDataPath = "data/live_bench"

// Store navigates the benchmark directory layout
// {root}/{category}/{task}/{question.jsonl,model_answer,model_judgment}.
type Store struct {
	root string
}

// NewStore creates a Store over the given data root.
func NewStore(root string) *Store { return &Store{root: root} }

// JudgmentKey identifies one judgment: a question answered by a model.
type JudgmentKey struct {
	QuestionID string
	Model      string
}

// Judgment is one ground-truth scoring entry.
type Judgment struct {
	QuestionID string  `json:"question_id"`
	Model      string  `json:"model"`
	Score      float64 `json:"score"`
}

// ScoreStats summarizes a model's judged scores on one task.
type ScoreStats struct {
	Mean  float64
	Min   float64
	Max   float64
	Count int
}

// Categories lists the category directories under the data root.
func (s *Store) Categories() ([]string, error) {
	return s.subdirs(s.root)
}

// Tasks lists the task directories under a category.
func (s *Store) Tasks(category string) ([]string, error) {
	return s.subdirs(filepath.Join(s.root, category))
}

// Models lists the model display names that have answer files for a
// task.
func (s *Store) Models(category, task string) ([]string, error) {
	dir := filepath.Join(s.root, category, task, "model_answer")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var models []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		models = append(models, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	sort.Strings(models)
	return models, nil
}

// Judgments loads the ground-truth judgments for a task, keyed by
// (question, model). The second return value counts unparseable lines
// that were skipped.
func (s *Store) Judgments(category, task string) (map[JudgmentKey]float64, int, error) {
	path := filepath.Join(s.root, category, task, "model_judgment", "ground_truth_judgment.jsonl")
	judgments := make(map[JudgmentKey]float64)

	skipped, err := scanJSONL(path, func(line []byte) bool {
		var j Judgment
		if err := json.Unmarshal(line, &j); err != nil || j.QuestionID == "" {
			return false
		}
		judgments[JudgmentKey{QuestionID: j.QuestionID, Model: j.Model}] = j.Score
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	return judgments, skipped, nil
}

// ModelStats computes score statistics for one model on one task, or
// returns false when the model has no judged answers.
func (s *Store) ModelStats(category, task, model string) (ScoreStats, bool, error) {
	judgments, _, err := s.Judgments(category, task)
	if err != nil {
		return ScoreStats{}, false, err
	}

	var stats ScoreStats
	for key, score := range judgments {
		if key.Model != model {
			continue
		}
		if stats.Count == 0 || score < stats.Min {
			stats.Min = score
		}
		if stats.Count == 0 || score > stats.Max {
			stats.Max = score
		}
		stats.Mean += score
		stats.Count++
	}
	if stats.Count == 0 {
		return ScoreStats{}, false, nil
	}
	stats.Mean /= float64(stats.Count)
	return stats, true, nil
}

// Answer returns one model's answer record for a question, or false
// when none is recorded.
func (s *Store) Answer(category, task, model, questionID string) (domain.AnswerRecord, bool, error) {
	path := filepath.Join(s.root, category, task, "model_answer", model+".jsonl")

	var found domain.AnswerRecord
	ok := false
	_, err := scanJSONL(path, func(line []byte) bool {
		var rec domain.AnswerRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return false
		}
		if rec.QuestionID == questionID {
			found = rec
			ok = true
		}
		return true
	})
	if err != nil {
		return domain.AnswerRecord{}, false, err
	}
	return found, ok, nil
}

// QuestionTurns returns the prompt turns for a question id, or false
// when the question file does not contain it.
func (s *Store) QuestionTurns(category, task, questionID string) ([]string, bool, error) {
	path := filepath.Join(s.root, category, task, answers.QuestionFileName)

	var turns []string
	ok := false
	_, err := scanJSONL(path, func(line []byte) bool {
		var q domain.Question
		if err := json.Unmarshal(line, &q); err != nil {
			return false
		}
		if q.QuestionID == questionID {
			turns = q.Turns
			ok = true
		}
		return true
	})
	if err != nil {
		return nil, false, err
	}
	return turns, ok, nil
}

// SuggestModel finds the known model display name closest to the given
// one, for friendlier errors on typoed names. Comparison is
// case-folded. Returns false when the task has no models at all.
func (s *Store) SuggestModel(category, task, name string) (string, bool, error) {
	models, err := s.Models(category, task)
	if err != nil || len(models) == 0 {
		return "", false, err
	}

	folder := cases.Fold()
	target := folder.String(name)

	best := models[0]
	bestDist := levenshtein.ComputeDistance(target, folder.String(best))
	for _, m := range models[1:] {
		if d := levenshtein.ComputeDistance(target, folder.String(m)); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best, true, nil
}

// subdirs lists the immediate subdirectories of dir, sorted.
func (s *Store) subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanJSONL feeds each non-empty line to parse and counts the lines it
// rejects. A missing file yields no lines and no error.
func scanJSONL(path string, parse func(line []byte) bool) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !parse([]byte(line)) {
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return skipped, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return skipped, nil
}
