package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/resilience"
)

func newTestGuard() *resilience.Guard {
	return resilience.NewGuard("advisor-test", resilience.Config{RateLimitRPS: 1000, RateBurst: 1000}, RecordFailure)
}

func adviceRequest() domain.AdviceRequest {
	return domain.AdviceRequest{
		Filename: "data.csv",
		Columns: []domain.AdviceColumn{
			{Name: "mixed", Samples: []string{"1", "apple", "2"}, DetectedType: domain.TypeText, MatchRatio: 0.66},
		},
	}
}

func completionReply(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
}

func TestSuggestParsesAndNormalizesReply(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		content := `{"columns":[{"name":"mixed","suggested_type":"NUMBER","confidence":140},{"name":"odd","suggested_type":"entity","confidence":50}],"aggregate_confidence":91,"improvements":["resolved mixed"]}`
		fmt.Fprint(w, completionReply(content))
	}))
	defer server.Close()

	client := New(server.URL, "test-model", "sk-test", 0, newTestGuard())
	advice, err := client.Suggest(context.Background(), adviceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if len(advice.PerColumn) != 1 {
		t.Fatalf("expected unknown type suggestion dropped, got %+v", advice.PerColumn)
	}
	s := advice.PerColumn[0]
	if s.SuggestedType != domain.TypeNumeric {
		t.Fatalf("expected NUMBER normalized to numeric, got %s", s.SuggestedType)
	}
	if s.Confidence != 100 {
		t.Fatalf("expected confidence clamped to 100, got %v", s.Confidence)
	}
	if advice.AggregateConfidence != 91 {
		t.Fatalf("expected aggregate confidence 91, got %v", advice.AggregateConfidence)
	}
}

func TestSuggestExtractsObjectFromProseReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		content := `Here is my analysis: {"columns":[],"aggregate_confidence":80} hope it helps`
		fmt.Fprint(w, completionReply(content))
	}))
	defer server.Close()

	client := New(server.URL, "test-model", "", 0, newTestGuard())
	advice, err := client.Suggest(context.Background(), adviceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice.AggregateConfidence != 80 {
		t.Fatalf("expected object extracted from prose, got %+v", advice)
	}
}

func TestSuggestServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "test-model", "", 0, newTestGuard())
	_, err := client.Suggest(context.Background(), adviceRequest())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error for 503, got %v", err)
	}
}

func TestSuggestBadRequestIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "test-model", "", 0, newTestGuard())
	_, err := client.Suggest(context.Background(), adviceRequest())
	if err == nil {
		t.Fatal("expected error for 400")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("4xx must not be classified temporary: %v", err)
	}
}

func TestSuggestMalformedReplyFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, completionReply("no json here"))
	}))
	defer server.Close()

	client := New(server.URL, "test-model", "", 0, newTestGuard())
	_, err := client.Suggest(context.Background(), adviceRequest())
	if err == nil || !strings.Contains(err.Error(), "parse advisor reply") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNewAppliesConfiguredTimeout(t *testing.T) {
	client := New("http://advisor", "test-model", "", 12*time.Second, newTestGuard())
	if client.httpClient.Timeout != 12*time.Second {
		t.Fatalf("expected configured timeout on the http client, got %v", client.httpClient.Timeout)
	}

	client = New("http://advisor", "test-model", "", 0, newTestGuard())
	if client.httpClient.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected default timeout for zero, got %v", client.httpClient.Timeout)
	}
}

func TestRecordFailureClassification(t *testing.T) {
	if RecordFailure(nil) {
		t.Fatal("nil error must not count against the breaker")
	}
	if RecordFailure(context.Canceled) || RecordFailure(context.DeadlineExceeded) {
		t.Fatal("context errors must not count against the breaker")
	}
	if RecordFailure(&HTTPStatusError{StatusCode: http.StatusUnprocessableEntity}) {
		t.Fatal("4xx must not count against the breaker")
	}
	if !RecordFailure(&HTTPStatusError{StatusCode: http.StatusBadGateway}) {
		t.Fatal("502 must count against the breaker")
	}
}

func TestBuildAdvicePromptMentionsColumns(t *testing.T) {
	prompt := buildAdvicePrompt(adviceRequest())
	if !strings.Contains(prompt, "mixed") {
		t.Fatalf("expected column name in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "apple") {
		t.Fatalf("expected samples in prompt:\n%s", prompt)
	}
}
