// Package emoji resolves a single emoji for submitted item text by calling an
// external suggestion service, with a deterministic local fallback so a room
// never waits on (or fails because of) the upstream.
package emoji

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"github.com/RoseWrightdev/Rank-It/internal/v1/metrics"
	"github.com/RoseWrightdev/Rank-It/internal/v1/validate"
	"go.uber.org/zap"
)

const requestTimeout = 8 * time.Second

// fallbackPool serves lookups when the upstream is disabled, over budget, or
// misbehaving. FNV over the text keeps the pick stable per item.
var fallbackPool = []string{
	"⭐", "🎯", "🎲", "🏆", "💡", "🔥", "🎉", "🌟", "🍀", "🎁",
	"🚀", "🌈", "🎵", "⚡", "🧩",
}

// Provider implements game.EmojiProvider against an HTTP suggestion service.
// A Provider with an empty URL is valid and always answers from the fallback
// pool.
type Provider struct {
	url        string
	apiKey     string
	httpClient *http.Client

	// Daily request budget, reset at UTC midnight.
	budget int
	mu     sync.Mutex
	day    string
	used   int

	now func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider builds a provider. budget caps upstream calls per UTC day; zero
// disables the upstream entirely.
func NewProvider(url, apiKey string, budget int, opts ...Option) *Provider {
	p := &Provider{
		url:        url,
		apiKey:     apiKey,
		budget:     budget,
		httpClient: &http.Client{Timeout: requestTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type suggestRequest struct {
	Text string `json:"text"`
}

type suggestResponse struct {
	Emoji string `json:"emoji"`
}

// EmojiFor resolves one emoji for the text. It never fails: any upstream
// problem falls back to the deterministic pool.
func (p *Provider) EmojiFor(ctx context.Context, text string) string {
	if p.url == "" || !p.takeBudget() {
		metrics.EmojiRequests.WithLabelValues("fallback").Inc()
		return Fallback(text)
	}

	emoji, err := p.request(ctx, text)
	if err != nil {
		logging.Warn(ctx, "Emoji service failed, using fallback", zap.Error(err))
		metrics.EmojiRequests.WithLabelValues("fallback").Inc()
		return Fallback(text)
	}
	if err := validate.Emoji(emoji); err != nil {
		logging.Warn(ctx, "Emoji service returned invalid emoji, using fallback",
			zap.String("emoji", emoji))
		metrics.EmojiRequests.WithLabelValues("fallback").Inc()
		return Fallback(text)
	}

	metrics.EmojiRequests.WithLabelValues("provider").Inc()
	return emoji
}

func (p *Provider) request(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(suggestRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Emoji, nil
}

// takeBudget consumes one unit of today's budget, rolling the counter over at
// UTC midnight. Returns false when the budget is spent.
func (p *Provider) takeBudget() bool {
	if p.budget <= 0 {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.now().UTC().Format("2006-01-02")
	if p.day != today {
		p.day = today
		p.used = 0
	}
	if p.used >= p.budget {
		return false
	}
	p.used++
	metrics.EmojiBudgetUsed.Set(float64(p.used))
	return true
}

// Fallback deterministically picks a pool emoji for the text.
func Fallback(text string) string {
	h := fnv.New32a()
	h.Write([]byte(text))
	return fallbackPool[h.Sum32()%uint32(len(fallbackPool))]
}
