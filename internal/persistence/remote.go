package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/progress"
)

// PositionPayload is the wire form of a reading position on the sync API.
type PositionPayload struct {
	BookID     string    `json:"book_id"`
	Locator    string    `json:"locator"`
	PageIndex  int       `json:"page_index"`
	LastReadAt time.Time `json:"last_read"`
}

// RemoteGateway stores positions through the server's sync API. A save is
// retried on network and server errors.
type RemoteGateway struct {
	baseURL  string
	token    string
	client   *http.Client
	log      *zap.Logger
	attempts uint
	delay    time.Duration
	now      func() time.Time
}

// RemoteOption configures a RemoteGateway.
type RemoteOption func(*RemoteGateway)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(g *RemoteGateway) { g.client = c }
}

// WithRetry sets the number of attempts per request and the initial delay
// between them.
func WithRetry(attempts uint, delay time.Duration) RemoteOption {
	return func(g *RemoteGateway) {
		if attempts > 0 {
			g.attempts = attempts
		}
		if delay > 0 {
			g.delay = delay
		}
	}
}

func NewRemoteGateway(baseURL, token string, log *zap.Logger, opts ...RemoteOption) *RemoteGateway {
	if log == nil {
		log = zap.NewNop()
	}
	g := &RemoteGateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.Named("remote_gateway"),
		attempts: 3,
		delay:    500 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RemoteGateway) Save(ctx context.Context, bookID string, loc progress.Locator, pageIndex int) error {
	body, err := json.Marshal(PositionPayload{
		BookID:     bookID,
		Locator:    string(loc),
		PageIndex:  pageIndex,
		LastReadAt: g.now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = g.do(ctx, http.MethodPut, bookID, body)
	return err
}

func (g *RemoteGateway) Load(ctx context.Context, bookID string) (progress.SavedPosition, error) {
	data, err := g.do(ctx, http.MethodGet, bookID, nil)
	if err != nil {
		return progress.SavedPosition{}, err
	}
	var p PositionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return progress.SavedPosition{}, fmt.Errorf("decode position: %w", err)
	}
	return progress.SavedPosition{
		BookID:     bookID,
		Locator:    progress.Locator(p.Locator),
		PageIndex:  p.PageIndex,
		LastReadAt: p.LastReadAt,
	}, nil
}

func (g *RemoteGateway) do(ctx context.Context, method, bookID string, body []byte) ([]byte, error) {
	endpoint := g.baseURL + "/api/books/" + url.PathEscape(bookID) + "/position"

	var out []byte
	err := retry.Do(
		func() error {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if g.token != "" {
				req.Header.Set("Authorization", "Bearer "+g.token)
			}

			resp, err := g.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return err
			}
			switch {
			case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
				return retry.Unrecoverable(progress.ErrNotFound)
			case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
				return fmt.Errorf("%s %s: %s", method, endpoint, resp.Status)
			case resp.StatusCode >= 400:
				return retry.Unrecoverable(fmt.Errorf("%s %s: %s", method, endpoint, resp.Status))
			}
			out = data
			return nil
		},
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			g.log.Debug("position request failed, retrying",
				zap.String("method", method),
				zap.String("book_id", bookID),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
		retry.Context(ctx),
	)
	if errors.Is(err, progress.ErrNotFound) {
		return nil, progress.ErrNotFound
	}
	return out, err
}
