package answers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-livebench/internal/domain"
)

func TestAnswerFilePath(t *testing.T) {
	got := AnswerFilePath("data", "live_bench/reasoning/web_of_lies_v2", "gpt-4o")
	want := filepath.Join("data", "live_bench/reasoning/web_of_lies_v2", "model_answer", "gpt-4o.jsonl")
	assert.Equal(t, want, got)
}

func TestModificationLogPath(t *testing.T) {
	got := ModificationLogPath(filepath.Join("out", "gpt-4o.jsonl"))
	assert.Equal(t, filepath.Join("out", "gpt-4o_QUESTIONS.jsonlx"), got)
	assert.False(t, strings.HasSuffix(got, ".jsonl"), "log must not look like an answer file")
}

func TestWriterAppend(t *testing.T) {
	answerFile := filepath.Join(t.TempDir(), "nested", "model_answer", "m.jsonl")
	w := NewWriter(answerFile)

	rec := domain.AnswerRecord{
		QuestionID: "q1",
		AnswerID:   "a1",
		ModelID:    "m",
		Choices:    []domain.Choice{{Index: 0, Turns: []string{"hello"}}},
		Tstamp:     1719230400.5,
	}
	require.NoError(t, w.Append(rec))

	data, err := os.ReadFile(answerFile)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"), "each record is one full line")

	var got domain.AnswerRecord
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &got))
	assert.Equal(t, rec, got)
}

func TestWriterAppendIsAppendOnly(t *testing.T) {
	answerFile := filepath.Join(t.TempDir(), "m.jsonl")
	w := NewWriter(answerFile)

	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "q1", AnswerID: "a1"}))
	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "q2", AnswerID: "a2"}))

	data, err := os.ReadFile(answerFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestWriterConcurrentAppends(t *testing.T) {
	answerFile := filepath.Join(t.TempDir(), "m.jsonl")
	w := NewWriter(answerFile)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = w.Append(domain.AnswerRecord{
				QuestionID: "q",
				AnswerID:   domain.NewAnswerID(),
				Choices:    []domain.Choice{{Turns: []string{strings.Repeat("y", 4000)}}},
			})
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(answerFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		var rec domain.AnswerRecord
		assert.NoError(t, json.Unmarshal([]byte(line), &rec), "no interleaved partial lines")
	}
}

func TestWriterModificationLog(t *testing.T) {
	answerFile := filepath.Join(t.TempDir(), "m.jsonl")
	w := NewWriter(answerFile)

	mod := domain.ModificationRecord{
		QuestionID:             "q1",
		ModelID:                "m",
		OriginalTurns:          []string{"orig"},
		ModifiedTurns:          []string{"Hello a1b2, 2024-06-24 09:00:00\n\norig"},
		RandomizePromptApplied: true,
		RandomPrefix:           "Hello a1b2, 2024-06-24 09:00:00\n\n",
	}
	require.NoError(t, w.AppendModification(mod))

	logPath := ModificationLogPath(answerFile)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var got domain.ModificationRecord
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &got))
	assert.Equal(t, mod, got)

	// A fresh randomized run truncates; the answer file is untouched.
	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "q1", AnswerID: "a1"}))
	require.NoError(t, w.TruncateModificationLog())

	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Empty(t, data)

	answers, err := os.ReadFile(answerFile)
	require.NoError(t, err)
	assert.NotEmpty(t, answers)
}

func TestDeduplicateMissingFile(t *testing.T) {
	kept, err := Deduplicate(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Zero(t, kept)
}

func TestDeduplicateLastWins(t *testing.T) {
	answerFile := filepath.Join(t.TempDir(), "m.jsonl")
	w := NewWriter(answerFile)

	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "b", AnswerID: "b-old"}))
	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "a", AnswerID: "a-only"}))
	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "b", AnswerID: "b-new"}))

	kept, err := Deduplicate(answerFile)
	require.NoError(t, err)
	assert.Equal(t, 2, kept)

	data, err := os.ReadFile(answerFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first, second domain.AnswerRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "a", first.QuestionID, "output is sorted by question id")
	assert.Equal(t, "b-new", second.AnswerID, "the last record for an id wins")
}

func TestDeduplicateDropsGarbageLines(t *testing.T) {
	answerFile := filepath.Join(t.TempDir(), "m.jsonl")
	content := `{"question_id":"q1","answer_id":"a1"}
this is not json
{"no_id_field":true}

{"question_id":"q2","answer_id":"a2"}
`
	require.NoError(t, os.WriteFile(answerFile, []byte(content), 0o644))

	kept, err := Deduplicate(answerFile)
	require.NoError(t, err)
	assert.Equal(t, 2, kept)

	data, err := os.ReadFile(answerFile)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var rec domain.AnswerRecord
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.NotEmpty(t, rec.QuestionID)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	answerFile := filepath.Join(t.TempDir(), "m.jsonl")
	w := NewWriter(answerFile)
	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "q1", AnswerID: "a1"}))
	require.NoError(t, w.Append(domain.AnswerRecord{QuestionID: "q1", AnswerID: "a2"}))

	kept, err := Deduplicate(answerFile)
	require.NoError(t, err)
	require.Equal(t, 1, kept)
	after, err := os.ReadFile(answerFile)
	require.NoError(t, err)

	kept, err = Deduplicate(answerFile)
	require.NoError(t, err)
	assert.Equal(t, 1, kept)
	again, err := os.ReadFile(answerFile)
	require.NoError(t, err)
	assert.Equal(t, after, again)
}
