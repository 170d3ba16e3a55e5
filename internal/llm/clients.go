package llm

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// CredentialFunc returns the API key for a provider and where it was looked up
type CredentialFunc func(p Provider) (key, source string)

// EnvCredentials reads API keys from environment variables.
// Providers missing from names use their default variable.
func EnvCredentials(names map[Provider]string) CredentialFunc {
	return func(p Provider) (string, string) {
		env := names[p]
		if env == "" {
			env = p.DefaultKeyEnv()
		}
		return os.Getenv(env), env
	}
}

// Client is an authenticated handle to one provider's chat-completion endpoint
type Client struct {
	provider Provider
	api      openai.Client
}

// Provider returns the provider the client is bound to
func (c *Client) Provider() Provider {
	return c.provider
}

// ClientCache lazily creates and memoizes one Client per provider
type ClientCache struct {
	mu          sync.Mutex
	clients     map[Provider]*Client
	credentials CredentialFunc
	baseURLs    map[Provider]string
	httpClient  *http.Client
	logger      *slog.Logger
}

// CacheOption configures a ClientCache
type CacheOption func(*ClientCache)

// WithBaseURL overrides a provider's endpoint
func WithBaseURL(p Provider, url string) CacheOption {
	return func(c *ClientCache) {
		if url != "" {
			c.baseURLs[p] = url
		}
	}
}

// WithHTTPClient sets the HTTP client shared by every provider client
func WithHTTPClient(hc *http.Client) CacheOption {
	return func(c *ClientCache) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used when clients are created
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *ClientCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClientCache creates an empty cache that reads credentials on first use
func NewClientCache(credentials CredentialFunc, opts ...CacheOption) *ClientCache {
	c := &ClientCache{
		clients:     make(map[Provider]*Client),
		credentials: credentials,
		baseURLs:    make(map[Provider]string),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the provider's client, creating it on first call.
// Creation holds the cache lock, so concurrent first calls build one client
// and a missing credential fails every caller the same way. Failures are
// not cached.
func (c *ClientCache) Get(p Provider) (*Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[p]; ok {
		return client, nil
	}

	if _, err := ParseProvider(string(p)); err != nil {
		return nil, invalidRequest(err.Error())
	}

	key, source := c.credentials(p)
	if key == "" {
		return nil, missingCredential(p, source)
	}

	baseURL := c.baseURLs[p]
	if baseURL == "" {
		baseURL = p.DefaultBaseURL()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}

	client := &Client{
		provider: p,
		api:      openai.NewClient(opts...),
	}
	c.clients[p] = client

	c.logger.Debug("created provider client", "provider", p, "base_url", baseURL, "credential", source)
	return client, nil
}

// Len returns how many provider clients have been created
func (c *ClientCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}
