// Package include keeps a live copy of the server-rendered schedule view.
package include

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

const maxBody = 4 << 20

var _ output.ScheduleInclude = (*Include)(nil)

// Include fetches the schedule view in the background. Each fetch replaces
// the content wholesale; when fetches overlap, the most recently started
// one wins.
type Include struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	onChange func(content string)
	logger   *zerolog.Logger

	mu           sync.Mutex
	materialized bool
	content      string
	started      uint64
	applied      uint64

	wg sync.WaitGroup
}

// New creates an include of url. onChange, when set, receives every new
// content.
func New(url string, client *http.Client, onChange func(string), logger *zerolog.Logger) *Include {
	if client == nil {
		client = http.DefaultClient
	}
	return &Include{
		url:      url,
		client:   client,
		timeout:  30 * time.Second,
		onChange: onChange,
		logger:   logging.Component(logger, "include"),
	}
}

func (i *Include) Materialized() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.materialized
}

// Materialize starts the first fetch.
func (i *Include) Materialize(ctx context.Context) error {
	if i.url == "" {
		return fmt.Errorf("include: %w", domain.ErrMissingCollaborator)
	}
	i.mu.Lock()
	i.materialized = true
	i.mu.Unlock()
	i.fetch(ctx)
	return nil
}

// Refresh starts a new fetch.
func (i *Include) Refresh(ctx context.Context) error {
	if !i.Materialized() {
		return i.Materialize(ctx)
	}
	i.fetch(ctx)
	return nil
}

// snapshot returns the last fetched view.
func (i *Include) snapshot() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.content
}

// Wait blocks until every fetch in flight has finished.
func (i *Include) Wait() {
	i.wg.Wait()
}

func (i *Include) fetch(ctx context.Context) {
	i.mu.Lock()
	i.started++
	gen := i.started
	i.mu.Unlock()

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		body, err := i.get(ctx)
		if err != nil {
			i.logger.Error().Err(err).Str("url", i.url).Msg("❌ Schedule fetch failed")
			return
		}

		i.mu.Lock()
		if gen < i.applied {
			i.mu.Unlock()
			return
		}
		i.applied = gen
		changed := i.content != body
		i.content = body
		i.mu.Unlock()

		i.logger.Debug().Uint64("generation", gen).Int("bytes", len(body)).Msg("Schedule fetched")
		if changed && i.onChange != nil {
			i.onChange(body)
		}
	}()
}

func (i *Include) get(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9, */*;q=0.5")
	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
