// Package formbridge submits forms to the server in the background. The
// response is logged and thrown away: outcomes come back as facts.
package formbridge

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

// DefaultTimeout bounds one submission.
const DefaultTimeout = 30 * time.Second

const maxLoggedBody = 4 << 10

var _ output.Submitter = (*Bridge)(nil)

// Bridge is an asynchronous output.Submitter over HTTP.
type Bridge struct {
	client  *http.Client
	timeout time.Duration
	logger  *zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a bridge. A nil client means http.DefaultClient.
func New(client *http.Client, logger *zerolog.Logger) *Bridge {
	if client == nil {
		client = http.DefaultClient
	}
	return &Bridge{
		client:  client,
		timeout: DefaultTimeout,
		logger:  logging.Component(logger, "form-bridge"),
	}
}

// Submit starts the request and returns at once. Cancelling ctx aborts the
// request; the submission otherwise outlives the caller. Once Wait has been
// called the form is dropped.
func (b *Bridge) Submit(ctx context.Context, form output.Form) {
	id := uuid.NewString()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Warn().Str("request_id", id).Str("action", form.Action).Msg("⚠️ Bridge closed, form dropped")
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		b.send(ctx, id, form)
	}()
}

// Wait closes the bridge to new submissions and blocks until every
// submission in flight has finished.
func (b *Bridge) Wait() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bridge) send(ctx context.Context, id string, form output.Form) {
	log := b.logger.With().Str("request_id", id).Str("action", form.Action).Logger()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := newRequest(ctx, form)
	if err != nil {
		log.Error().Err(err).Msg("❌ Invalid form")
		return
	}
	req.Header.Set("X-Request-ID", id)

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("❌ Form submission failed")
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	ev := log.Debug()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ev = log.Warn()
	}
	ev.Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("body", string(body)).
		Msg("Form submitted")
}

func newRequest(ctx context.Context, form output.Form) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(form.Method))
	if method == "" {
		method = http.MethodPost
	}
	encoded := form.Fields.Encode()

	if method == http.MethodGet {
		u, err := url.Parse(form.Action)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, vs := range form.Fields {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, method, u.String(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, form.Action, strings.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}
