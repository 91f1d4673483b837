package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDataTree lays out one category/task with answers, judgments, and
// questions the way a benchmark run leaves them on disk.
func buildDataTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	task := filepath.Join(root, "reasoning", "web_of_lies_v2")

	require.NoError(t, os.MkdirAll(filepath.Join(task, "model_answer"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(task, "model_judgment"), 0o755))

	questions := `{"question_id":"q1","turns":["who lies?"]}
{"question_id":"q2","turns":["multi","turn"]}
`
	require.NoError(t, os.WriteFile(filepath.Join(task, "question.jsonl"), []byte(questions), 0o644))

	answers := `{"question_id":"q1","answer_id":"a1","model_id":"gpt-4o","choices":[{"index":0,"turns":["alice"]}]}
{"question_id":"q2","answer_id":"a2","model_id":"gpt-4o","choices":[{"index":0,"turns":["bob","carol"]}]}
`
	require.NoError(t, os.WriteFile(filepath.Join(task, "model_answer", "gpt-4o.jsonl"), []byte(answers), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(task, "model_answer", "claude-3.jsonl"), []byte(""), 0o644))

	judgments := `{"question_id":"q1","model":"gpt-4o","score":1.0}
{"question_id":"q2","model":"gpt-4o","score":0.5}
not a judgment line
{"question_id":"q1","model":"claude-3","score":0.0}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(task, "model_judgment", "ground_truth_judgment.jsonl"), []byte(judgments), 0o644))

	return root
}

func TestStoreListing(t *testing.T) {
	store := NewStore(buildDataTree(t))

	categories, err := store.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"reasoning"}, categories)

	tasks, err := store.Tasks("reasoning")
	require.NoError(t, err)
	assert.Equal(t, []string{"web_of_lies_v2"}, tasks)

	models, err := store.Models("reasoning", "web_of_lies_v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-3", "gpt-4o"}, models)
}

func TestStoreListingMissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent"))

	categories, err := store.Categories()
	require.NoError(t, err)
	assert.Empty(t, categories)

	models, err := store.Models("reasoning", "nothing")
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestStoreJudgments(t *testing.T) {
	store := NewStore(buildDataTree(t))

	judgments, skipped, err := store.Judgments("reasoning", "web_of_lies_v2")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped, "the malformed line is counted, not fatal")
	assert.Len(t, judgments, 3)
	assert.Equal(t, 0.5, judgments[JudgmentKey{QuestionID: "q2", Model: "gpt-4o"}])
}

func TestStoreModelStats(t *testing.T) {
	store := NewStore(buildDataTree(t))

	stats, ok, err := store.ModelStats("reasoning", "web_of_lies_v2", "gpt-4o")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 0.75, stats.Mean, 1e-9)
	assert.Equal(t, 0.5, stats.Min)
	assert.Equal(t, 1.0, stats.Max)

	_, ok, err = store.ModelStats("reasoning", "web_of_lies_v2", "unknown-model")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreAnswer(t *testing.T) {
	store := NewStore(buildDataTree(t))

	rec, ok, err := store.Answer("reasoning", "web_of_lies_v2", "gpt-4o", "q2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a2", rec.AnswerID)
	assert.Equal(t, []string{"bob", "carol"}, rec.Choices[0].Turns)

	_, ok, err = store.Answer("reasoning", "web_of_lies_v2", "gpt-4o", "q99")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreQuestionTurns(t *testing.T) {
	store := NewStore(buildDataTree(t))

	turns, ok, err := store.QuestionTurns("reasoning", "web_of_lies_v2", "q2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"multi", "turn"}, turns)
}

func TestStoreSuggestModel(t *testing.T) {
	store := NewStore(buildDataTree(t))

	suggestion, ok, err := store.SuggestModel("reasoning", "web_of_lies_v2", "GPT-4O")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", suggestion, "comparison is case-folded")

	suggestion, ok, err = store.SuggestModel("reasoning", "web_of_lies_v2", "claude3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "claude-3", suggestion)

	_, ok, err = store.SuggestModel("reasoning", "no_such_task", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}
