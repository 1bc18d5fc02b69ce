package formbridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacyboard/internal/ports/output"
)

var nop = zerolog.Nop()

type recorded struct {
	method    string
	path      string
	query     url.Values
	form      url.Values
	requestID string
	ctype     string
}

func recorder(status int) (*httptest.Server, func() []recorded) {
	var (
		mu  sync.Mutex
		got []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		got = append(got, recorded{
			method:    r.Method,
			path:      r.URL.Path,
			query:     r.URL.Query(),
			form:      r.PostForm,
			requestID: r.Header.Get("X-Request-ID"),
			ctype:     r.Header.Get("Content-Type"),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("<html>ignored</html>"))
	}))
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), got...)
	}
}

func TestBridge_PostsForm(t *testing.T) {
	srv, got := recorder(http.StatusOK)
	defer srv.Close()

	b := New(srv.Client(), &nop)
	b.Submit(context.Background(), output.Form{
		Action: srv.URL + "/sessions/schedule",
		Method: http.MethodPost,
		Fields: url.Values{"id": {"1"}, "room": {"R1"}, "time": {"10:00"}},
	})
	b.Wait()

	reqs := got()
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, http.MethodPost, r.method)
	assert.Equal(t, "/sessions/schedule", r.path)
	assert.Equal(t, "application/x-www-form-urlencoded", r.ctype)
	assert.Equal(t, "R1", r.form.Get("room"))
	_, err := uuid.Parse(r.requestID)
	assert.NoError(t, err)
}

func TestBridge_GetAppendsQuery(t *testing.T) {
	srv, got := recorder(http.StatusOK)
	defer srv.Close()

	b := New(srv.Client(), &nop)
	b.Submit(context.Background(), output.Form{
		Action: srv.URL + "/sessions?page=2",
		Method: "get",
		Fields: url.Values{"sponsor": {"alice"}},
	})
	b.Wait()

	reqs := got()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].method)
	assert.Equal(t, "2", reqs[0].query.Get("page"))
	assert.Equal(t, "alice", reqs[0].query.Get("sponsor"))
}

func TestBridge_DefaultMethodAndErrorsSwallowed(t *testing.T) {
	srv, got := recorder(http.StatusInternalServerError)
	defer srv.Close()

	b := New(srv.Client(), &nop)
	b.Submit(context.Background(), output.Form{Action: srv.URL + "/sessions/delete", Fields: url.Values{"id": {"9"}}})
	b.Submit(context.Background(), output.Form{Action: "http://127.0.0.1:0/unreachable"})
	b.Submit(context.Background(), output.Form{Action: "::bad url"})
	b.Wait()

	reqs := got()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.Equal(t, "9", reqs[0].form.Get("id"))
}

func TestBridge_DistinctRequestIDs(t *testing.T) {
	srv, got := recorder(http.StatusNoContent)
	defer srv.Close()

	b := New(srv.Client(), &nop)
	for i := 0; i < 3; i++ {
		b.Submit(context.Background(), output.Form{Action: srv.URL})
	}
	b.Wait()

	seen := map[string]bool{}
	for _, r := range got() {
		seen[r.requestID] = true
	}
	assert.Len(t, seen, 3)
}

func TestBridge_DropsSubmissionsAfterWait(t *testing.T) {
	srv, got := recorder(http.StatusOK)
	defer srv.Close()

	b := New(srv.Client(), &nop)
	b.Submit(context.Background(), output.Form{Action: srv.URL + "/sessions"})
	b.Wait()
	b.Submit(context.Background(), output.Form{Action: srv.URL + "/sessions"})
	b.Wait()

	assert.Len(t, got(), 1)
}

func TestBridge_SubmitConcurrentWithWait(t *testing.T) {
	srv, got := recorder(http.StatusOK)
	defer srv.Close()

	b := New(srv.Client(), &nop)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Submit(context.Background(), output.Form{Action: srv.URL})
		}()
	}
	b.Wait()
	wg.Wait()
	b.Wait()

	assert.LessOrEqual(t, len(got()), 8)
}
