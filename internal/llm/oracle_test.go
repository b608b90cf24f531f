package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Classification Tests
// =============================================================================

func TestClassifyMatchesLabel(t *testing.T) {
	oracle := NewScriptedOracle("Angry")

	label, err := Classify(context.Background(), oracle, "how do they feel?", []string{"happy", "angry", "neutral"})
	require.NoError(t, err)
	assert.Equal(t, "angry", label, "matching is case-insensitive")
}

func TestClassifyTrimsWhitespace(t *testing.T) {
	oracle := NewScriptedOracle("  neutral \n")

	label, err := Classify(context.Background(), oracle, "p", []string{"happy", "neutral"})
	require.NoError(t, err)
	assert.Equal(t, "neutral", label)
}

func TestClassifyUnknownLabelFallsBack(t *testing.T) {
	oracle := NewScriptedOracle("the participant seems rather cross today")

	label, err := Classify(context.Background(), oracle, "p", []string{"happy", "angry"})
	require.NoError(t, err, "an off-script answer is not an error")
	assert.Equal(t, Unclassified, label)
}

func TestClassifyAppendsLabelSet(t *testing.T) {
	oracle := NewScriptedOracle("happy")

	_, err := Classify(context.Background(), oracle, "how do they feel?", []string{"happy", "angry"})
	require.NoError(t, err)

	prompts := oracle.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Answer with exactly one of: happy, angry")
}

// =============================================================================
// Scripted Oracle Tests
// =============================================================================

func TestScriptedOracleReplaysThenFallsBack(t *testing.T) {
	oracle := NewScriptedOracle("one", "two").WithFallback("done")

	for _, want := range []string{"one", "two", "done", "done"} {
		got, err := oracle.Complete(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 4, oracle.CallCount())
}

func TestScriptedOracleHonorsContext(t *testing.T) {
	oracle := NewScriptedOracle("never seen")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := oracle.Complete(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// HTTP Oracle Tests
// =============================================================================

func TestHTTPOracleComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[{"message":{"role":"assistant","content":"counter at 550"}}]}`))
	}))
	defer server.Close()

	oracle := NewHTTPOracle(HTTPOracleConfig{BaseURL: server.URL, APIKey: "secret"}, nil)
	completion, err := oracle.Complete(context.Background(), "respond to the offer")
	require.NoError(t, err)
	assert.Equal(t, "counter at 550", completion)
}

func TestHTTPOracleRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"1","choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	oracle := NewHTTPOracle(HTTPOracleConfig{BaseURL: server.URL}, nil)
	oracle.retryConfig = RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	completion, err := oracle.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", completion)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPOracleNonRetryableStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	oracle := NewHTTPOracle(HTTPOracleConfig{BaseURL: server.URL}, nil)
	_, err := oracle.Complete(context.Background(), "p")
	assert.Error(t, err)
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, isRetryableStatusCode(http.StatusTooManyRequests))
	assert.True(t, isRetryableStatusCode(http.StatusBadGateway))
	assert.False(t, isRetryableStatusCode(http.StatusOK))
	assert.False(t, isRetryableStatusCode(http.StatusBadRequest))
}

func TestAddJitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		jittered := addJitter(base, 0.1)
		assert.GreaterOrEqual(t, jittered, 90*time.Millisecond)
		assert.LessOrEqual(t, jittered, 110*time.Millisecond)
	}
	assert.Equal(t, base, addJitter(base, 0))
}
