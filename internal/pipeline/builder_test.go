package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/perturb"
	"github.com/ahrav/go-livebench/internal/testutils"
)

func float64Ptr(v float64) *float64 { return &v }

func validBuilderConfig() BuilderConfig {
	return BuilderConfig{
		ModelID:    "test-model",
		NumChoices: 1,
		MaxTokens:  512,
	}
}

func TestNewBuilder(t *testing.T) {
	mock := testutils.NewMockModelInvoker("test-model", "ok", 1)

	tests := []struct {
		name      string
		invoker   *testutils.MockModelInvoker
		perturber *perturb.Perturber
		config    BuilderConfig
		wantErr   error
	}{
		{
			name:    "valid config",
			invoker: mock,
			config:  validBuilderConfig(),
		},
		{
			name:    "nil invoker",
			config:  validBuilderConfig(),
			wantErr: ErrInvokerNil,
		},
		{
			name:    "perturbation enabled without perturber",
			invoker: mock,
			config: BuilderConfig{
				ModelID:    "test-model",
				NumChoices: 1,
				MaxTokens:  512,
				Perturb:    perturb.Config{AddNoise: true},
			},
			wantErr: ErrPerturberNil,
		},
		{
			name:    "zero choices",
			invoker: mock,
			config: BuilderConfig{
				ModelID:   "test-model",
				MaxTokens: 512,
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name:    "missing model id",
			invoker: mock,
			config: BuilderConfig{
				NumChoices: 1,
				MaxTokens:  512,
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invoker *testutils.MockModelInvoker
			if tt.invoker != nil {
				invoker = tt.invoker
			}

			var b *Builder
			var err error
			if invoker == nil {
				b, err = NewBuilder(nil, tt.perturber, tt.config)
			} else {
				b, err = NewBuilder(invoker, tt.perturber, tt.config)
			}

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, b)
		})
	}
}

func TestBuildSingleTurn(t *testing.T) {
	mock := testutils.NewMockModelInvoker("gpt-test", "4", 1)
	b, err := NewBuilder(mock, nil, BuilderConfig{
		ModelID:    "gpt-test-display",
		NumChoices: 1,
		MaxTokens:  512,
	})
	require.NoError(t, err)

	q := domain.Question{QuestionID: "arith-1", Turns: []string{"What is 2+2?"}}
	res, err := b.Build(context.Background(), q)
	require.NoError(t, err)

	rec := res.Record
	assert.Equal(t, "arith-1", rec.QuestionID)
	assert.Equal(t, "gpt-test-display", rec.ModelID)
	assert.NotEmpty(t, rec.AnswerID)
	assert.Greater(t, rec.Tstamp, 0.0)
	assert.Equal(t, 1, rec.TotalOutputTokens)
	require.Len(t, rec.Choices, 1)
	assert.Equal(t, 0, rec.Choices[0].Index)
	assert.Equal(t, []string{"4"}, rec.Choices[0].Turns)
	assert.Nil(t, res.Perturbation)
}

func TestBuildMultipleChoices(t *testing.T) {
	mock := testutils.NewMockModelInvoker("m", "answer", 2)
	b, err := NewBuilder(mock, nil, BuilderConfig{
		ModelID:    "m",
		NumChoices: 3,
		MaxTokens:  512,
	})
	require.NoError(t, err)

	q := domain.Question{QuestionID: "q1", Turns: []string{"first", "second"}}
	res, err := b.Build(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, res.Record.Choices, 3)
	for i, choice := range res.Record.Choices {
		assert.Equal(t, i, choice.Index)
		assert.Len(t, choice.Turns, 2)
	}
	assert.Equal(t, 6, mock.Calls(), "3 choices x 2 turns")
	assert.Equal(t, 12, res.Record.TotalOutputTokens)
}

func TestBuildConversationAccumulates(t *testing.T) {
	// Each turn's call must see the full history so far: system-free
	// conversations alternate user/assistant strictly.
	mock := &testutils.MockModelInvoker{}
	mock.Script = func(call int, conv *domain.Conversation) (string, int, error) {
		wantLen := 2*call + 1 // prior user/assistant pairs plus this turn's prompt
		if conv.Len() != wantLen {
			return "", 0, errors.New("unexpected conversation length")
		}
		return "reply", 1, nil
	}

	b, err := NewBuilder(mock, nil, BuilderConfig{
		ModelID:    "m",
		NumChoices: 1,
		MaxTokens:  128,
	})
	require.NoError(t, err)

	q := domain.Question{QuestionID: "q1", Turns: []string{"a", "b", "c"}}
	_, err = b.Build(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.Calls())
}

func TestBuildRandomizedPromptReachesModel(t *testing.T) {
	mock := testutils.NewMockModelInvoker("m", "", 1)
	mock.EchoPrompt = true

	p := perturb.NewWithClock(rand.New(rand.NewSource(11)), func() time.Time {
		return time.Date(2024, 6, 24, 9, 0, 0, 0, time.UTC)
	})
	b, err := NewBuilder(mock, p, BuilderConfig{
		ModelID:    "m",
		NumChoices: 1,
		MaxTokens:  128,
		Perturb:    perturb.Config{RandomizePrompt: true},
	})
	require.NoError(t, err)

	q := domain.Question{QuestionID: "q1", Turns: []string{"solve it"}}
	res, err := b.Build(context.Background(), q)
	require.NoError(t, err)

	require.NotNil(t, res.Perturbation)
	assert.True(t, res.Perturbation.Applied)
	echoed := res.Record.Choices[0].Turns[0]
	assert.True(t, strings.HasPrefix(echoed, "Hello "), "model must receive the perturbed prompt")
	assert.True(t, strings.HasSuffix(echoed, "solve it"))

	mod, ok := b.ModificationRecord(q, res)
	require.True(t, ok)
	assert.Equal(t, "q1", mod.QuestionID)
	assert.Equal(t, q.Turns, mod.OriginalTurns)
	assert.Equal(t, res.Perturbation.Turns, mod.ModifiedTurns)
	assert.True(t, mod.RandomizePromptApplied)
	assert.False(t, mod.AddNoiseApplied)
	assert.NotEmpty(t, mod.RandomPrefix)
}

func TestModificationRecordSkippedWhenUnchanged(t *testing.T) {
	mock := testutils.NewMockModelInvoker("m", "out", 1)
	b, err := NewBuilder(mock, perturb.New(1), BuilderConfig{
		ModelID:    "m",
		NumChoices: 1,
		MaxTokens:  128,
	})
	require.NoError(t, err)

	q := domain.Question{QuestionID: "q1", Turns: []string{"prompt"}}
	res, err := b.Build(context.Background(), q)
	require.NoError(t, err)

	_, ok := b.ModificationRecord(q, res)
	assert.False(t, ok, "no perturbation enabled means no modification record")
}

func TestResolveTemperature(t *testing.T) {
	tests := []struct {
		name     string
		forced   *float64
		required *float64
		want     float64
		wantErr  bool
	}{
		{"default is zero", nil, nil, 0, false},
		{"forced wins", float64Ptr(0.7), nil, 0.7, false},
		{"required wins", nil, float64Ptr(0.3), 0.3, false},
		{"conflict is fatal", float64Ptr(0.7), float64Ptr(0.3), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured float64
			mock := &testutils.MockModelInvoker{}
			mock.Script = func(call int, conv *domain.Conversation) (string, int, error) {
				return "ok", 1, nil
			}
			b, err := NewBuilder(mock, nil, BuilderConfig{
				ModelID:          "m",
				NumChoices:       1,
				MaxTokens:        128,
				ForceTemperature: tt.forced,
			})
			require.NoError(t, err)

			q := domain.Question{
				QuestionID:          "q1",
				Turns:               []string{"p"},
				RequiredTemperature: tt.required,
			}
			captured, err = b.resolveTemperature(q)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, captured)
		})
	}
}

func TestBuildTemperatureConflictAbortsBeforeInvocation(t *testing.T) {
	mock := testutils.NewMockModelInvoker("m", "out", 1)
	b, err := NewBuilder(mock, nil, BuilderConfig{
		ModelID:          "m",
		NumChoices:       1,
		MaxTokens:        128,
		ForceTemperature: float64Ptr(1.0),
	})
	require.NoError(t, err)

	q := domain.Question{
		QuestionID:          "q1",
		Turns:               []string{"p"},
		RequiredTemperature: float64Ptr(0.0),
	}
	_, err = b.Build(context.Background(), q)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Zero(t, mock.Calls(), "conflicting temperatures must fail before any model call")
}

func TestBuildInvocationFailure(t *testing.T) {
	mock := testutils.NewMockModelInvoker("m", "out", 1)
	mock.FailPattern = "explode"
	b, err := NewBuilder(mock, nil, BuilderConfig{
		ModelID:    "m",
		NumChoices: 1,
		MaxTokens:  128,
	})
	require.NoError(t, err)

	q := domain.Question{QuestionID: "boom", Turns: []string{"please explode"}}
	_, err = b.Build(context.Background(), q)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvocationFailed)
	assert.Contains(t, err.Error(), "boom")
}
