package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	calls    int
	failures int
	err      error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.err
	}
	return []float32{1, 2, 3}, nil
}

func (s *stubEmbedder) ModelName() string { return "stub" }

func TestClientEmbedRetriesOnWarmup(t *testing.T) {
	stub := &stubEmbedder{failures: 2, err: &ModelLoadingError{EstimatedTime: 1}}
	client := NewClient(nil, stub, ClientConfig{EmbedRetries: 3, EmbedRetryDelay: time.Millisecond})
	vec, err := client.Embed(context.Background(), "hi", "")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	require.Equal(t, 3, stub.calls)
}

func TestClientEmbedWarmupExhausted(t *testing.T) {
	stub := &stubEmbedder{failures: 10, err: &ModelLoadingError{EstimatedTime: 1}}
	client := NewClient(nil, stub, ClientConfig{EmbedRetries: 3, EmbedRetryDelay: time.Millisecond})
	_, err := client.Embed(context.Background(), "hi", "")
	require.Error(t, err)
	require.True(t, IsModelLoading(err))
	require.Equal(t, 3, stub.calls)
}

func TestClientEmbedNoRetryOnOtherErrors(t *testing.T) {
	stub := &stubEmbedder{failures: 10, err: ErrUnavailable}
	client := NewClient(nil, stub, ClientConfig{EmbedRetries: 3, EmbedRetryDelay: time.Millisecond})
	_, err := client.Embed(context.Background(), "hi", "")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 1, stub.calls)
}

func TestCleanGeneratedSQL(t *testing.T) {
	raw := "```sql\nSELECT count(*) FROM tickets;\n```"
	require.Equal(t, "SELECT count(*) FROM tickets", CleanGeneratedSQL(raw))
	require.Equal(t, "SELECT 1", CleanGeneratedSQL("SELECT 1"))
}

func TestPromptBuilderComposition(t *testing.T) {
	prompt := NewPromptBuilder().
		WithInstructions(InstructSQL).
		WithSchemaHints(SchemaHints).
		WithQuestion("average kwh in May").
		Build()
	require.Contains(t, prompt, "exactly ONE SQL SELECT")
	require.Contains(t, prompt, "SCHEMA:")
	require.Contains(t, prompt, "energy_usage")
	require.Contains(t, prompt, "QUESTION:\naverage kwh in May")
}
