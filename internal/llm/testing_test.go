package llm

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testKey = "test-key"

// chunkJSON renders one chat.completion.chunk event carrying a content delta
func chunkJSON(content string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`, content)
}

// usageJSON renders the trailing usage-only chunk
func usageJSON(usage string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[],"usage":%s}`, usage)
}

// newSSEServer streams the given deltas, then usage when non-empty, then [DONE].
// Every request body is passed to inspect when it is non-nil.
func newSSEServer(t *testing.T, deltas []string, usage string, inspect func(*http.Request)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		if r.Header.Get("Authorization") != "Bearer "+testKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		var b strings.Builder
		for _, d := range deltas {
			fmt.Fprintf(&b, "data: %s\n\n", chunkJSON(d))
		}
		if usage != "" {
			fmt.Fprintf(&b, "data: %s\n\n", usageJSON(usage))
		}
		b.WriteString("data: [DONE]\n\n")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func staticCredentials(key string) CredentialFunc {
	return func(p Provider) (string, string) {
		return key, p.DefaultKeyEnv()
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cache := NewClientCache(staticCredentials(testKey), WithBaseURL(ProviderOpenAI, baseURL))
	client, err := cache.Get(ProviderOpenAI)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return client
}
