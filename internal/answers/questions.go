package answers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-livebench/internal/domain"
)

// QuestionFileName is the canonical question file name inside a task
// directory.
const QuestionFileName = "question.jsonl"

// LoadQuestionsFile reads a question file and applies release filtering
// and the optional question-id allow-list. Question order is preserved.
func LoadQuestionsFile(path, release string, releases ReleaseSet, questionIDs []string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open question file: %w", err)
	}
	defer f.Close()

	allow := make(map[string]bool, len(questionIDs))
	for _, id := range questionIDs {
		allow[id] = true
	}

	var questions []domain.Question
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			return nil, fmt.Errorf("%s:%d: %w: %v", path, lineNo, domain.ErrUnparseableRecord, err)
		}
		if !releases.Admits(q, release) {
			continue
		}
		if len(allow) > 0 && !allow[q.QuestionID] {
			continue
		}
		questions = append(questions, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}
	return questions, nil
}

// FindQuestionFiles locates question files for a benchmark name. When
// data/{bench}/question.jsonl exists it is used alone; otherwise every
// question.jsonl below data/{bench} is gathered, so a category name
// covers all of its tasks.
func FindQuestionFiles(dataDir, benchName string) ([]string, error) {
	direct := filepath.Join(dataDir, benchName, QuestionFileName)
	if _, err := os.Stat(direct); err == nil {
		return []string{direct}, nil
	}

	root := filepath.Join(dataDir, benchName)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == QuestionFileName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no question files under %s", root)
	}
	return files, nil
}

// SliceQuestions applies the begin/end index range, clamping both ends.
// begin and end follow slice semantics; a negative value means
// unbounded on that side.
func SliceQuestions(questions []domain.Question, begin, end int) []domain.Question {
	if begin < 0 {
		begin = 0
	}
	if end < 0 || end > len(questions) {
		end = len(questions)
	}
	if begin >= end {
		return nil
	}
	return questions[begin:end]
}
