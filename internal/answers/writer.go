// Package answers owns the line-oriented answer files: append-only
// writes during a run, the perturbation modification log, and the
// post-run deduplication pass. It also loads and filters question
// files for the pipeline.
package answers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ahrav/go-livebench/internal/domain"
)

// ModificationLogSuffix replaces the ".jsonl" suffix of an answer file
// to form its modification log. The non-.jsonl extension keeps scanning
// tools from mistaking the log for an answer file.
const ModificationLogSuffix = "_QUESTIONS.jsonlx"

// AnswerFilePath returns the answer file for a model display name under
// the benchmark directory layout, data/{bench}/model_answer/{name}.jsonl.
func AnswerFilePath(dataDir, benchName, displayName string) string {
	return filepath.Join(dataDir, benchName, "model_answer", displayName+".jsonl")
}

// ModificationLogPath derives the modification log path from an answer
// file path.
func ModificationLogPath(answerFile string) string {
	return strings.TrimSuffix(answerFile, ".jsonl") + ModificationLogSuffix
}

// Writer appends answer and modification records for one answer file.
// Each append is a single write of one full JSON line, serialized by a
// mutex so concurrent workers never interleave partial lines. Safe for
// concurrent use.
type Writer struct {
	mu         sync.Mutex
	answerFile string
	modFile    string
}

// NewWriter creates a Writer for the given answer file. The
// modification log path is derived from it.
func NewWriter(answerFile string) *Writer {
	return &Writer{
		answerFile: answerFile,
		modFile:    ModificationLogPath(answerFile),
	}
}

// AnswerFile returns the answer file path this writer appends to.
func (w *Writer) AnswerFile() string { return w.answerFile }

// Append writes one answer record as a JSON line.
func (w *Writer) Append(rec domain.AnswerRecord) error {
	return w.appendLine(w.answerFile, rec)
}

// AppendModification writes one modification record to the log file.
func (w *Writer) AppendModification(rec domain.ModificationRecord) error {
	return w.appendLine(w.modFile, rec)
}

// TruncateModificationLog creates or empties the modification log.
// Fresh randomized runs start from an empty log; resumed runs keep it.
func (w *Writer) TruncateModificationLog() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.modFile), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(w.modFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to initialize modification log: %w", err)
	}
	return f.Close()
}

// appendLine marshals rec and appends it as one line in a single write
// call. The file is opened per append so a crash never leaves a
// long-lived dirty handle.
func (w *Writer) appendLine(path string, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to append record: %w", err)
	}
	return f.Close()
}

// Deduplicate rewrites an answer file keeping one record per question
// id. The last occurrence wins: reruns with retry enabled exist to
// replace earlier bad answers, so the newest write takes precedence.
// Output is sorted by question id. Lines that do not parse are dropped
// from the rewritten file; they are not valid answer records and the
// resume filter cannot see them either. Returns the number of records
// kept.
//
// A missing file is a no-op, so an empty run can invoke the post-pass
// unconditionally.
func Deduplicate(answerFile string) (int, error) {
	f, err := os.Open(answerFile)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", answerFile, err)
	}

	byID := make(map[string]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var probe struct {
			QuestionID string `json:"question_id"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil || probe.QuestionID == "" {
			continue
		}
		byID[probe.QuestionID] = line
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to read %s: %w", answerFile, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf strings.Builder
	for _, id := range ids {
		buf.WriteString(byID[id])
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(answerFile, []byte(buf.String()), 0o644); err != nil {
		return 0, fmt.Errorf("failed to rewrite %s: %w", answerFile, err)
	}
	return len(ids), nil
}
