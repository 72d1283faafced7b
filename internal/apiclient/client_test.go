package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerhub/hubclient/internal/apierr"
	"github.com/careerhub/hubclient/internal/csrf"
	"github.com/careerhub/hubclient/internal/notify"
	"github.com/careerhub/hubclient/internal/tokenstore"
)

type fakeRefresher struct {
	calls     atomic.Int32
	ok        bool
	onRefresh func()
}

func (f *fakeRefresher) Refresh(context.Context) bool {
	f.calls.Add(1)
	if f.onRefresh != nil {
		f.onRefresh()
	}
	return f.ok
}

type fakePresence struct {
	present atomic.Bool
}

func (p *fakePresence) Check() bool {
	return p.present.Load()
}

type notification struct {
	message string
	opts    notify.Options
}

// recorder captures notifications and redirects.
type recorder struct {
	mu        sync.Mutex
	notes     []notification
	redirects []string
}

func (r *recorder) Notify(_ context.Context, message string, opts notify.Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, notification{message: message, opts: opts})
}

func (r *recorder) Redirect(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, path)
}

func (r *recorder) notifications() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.notes...)
}

func (r *recorder) redirectPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.redirects...)
}

type captured struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// backend records every request and answers with handler, which receives the
// zero-based index of the request.
type backend struct {
	mu   sync.Mutex
	reqs []captured
	srv  *httptest.Server
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, n int)) *backend {
	t.Helper()
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		n := len(b.reqs)
		b.reqs = append(b.reqs, captured{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		b.mu.Unlock()
		handler(w, r, n)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) requests() []captured {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]captured(nil), b.reqs...)
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	client    *Client
	store     tokenstore.TokenStore
	refresher *fakeRefresher
	presence  *fakePresence
	rec       *recorder
	backend   *backend
}

// newHarness builds a client against a recording backend. The CSRF cookie is
// reported present unless the test flips h.presence. A nil store means an
// empty MemoryStore.
func newHarness(t *testing.T, store tokenstore.TokenStore, handler func(w http.ResponseWriter, r *http.Request, n int), opts ...Option) *harness {
	t.Helper()
	if store == nil {
		store = tokenstore.NewMemoryStore("")
	}
	h := &harness{
		store:     store,
		refresher: &fakeRefresher{ok: true},
		presence:  &fakePresence{},
		rec:       &recorder{},
		backend:   newBackend(t, handler),
	}
	h.presence.present.Store(true)

	base := []Option{
		WithCookiePresence(h.presence),
		WithNotifier(h.rec),
		WithRouter(h.rec),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	client, err := New(h.backend.srv.URL+"/api", store, h.refresher, append(base, opts...)...)
	require.NoError(t, err)
	h.client = client
	return h
}

func ok(w http.ResponseWriter, _ *http.Request, _ int) {
	respond(w, http.StatusOK, map[string]any{"ok": true})
}

func TestClient_DefaultHeaders(t *testing.T) {
	h := newHarness(t, nil, ok)

	_, err := h.client.Get(context.Background(), "/user")
	require.NoError(t, err)

	reqs := h.backend.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	assert.Equal(t, "XMLHttpRequest", reqs[0].Header.Get("X-Requested-With"))
	assert.Empty(t, reqs[0].Header.Get("Authorization"), "no token stored")
}

func TestClient_AttachesStoredToken(t *testing.T) {
	h := newHarness(t, tokenstore.NewMemoryStore("secret"), ok)

	for range 3 {
		_, err := h.client.Get(context.Background(), "/user")
		require.NoError(t, err)
	}

	for _, req := range h.backend.requests() {
		assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	}
}

func TestClient_ResolvesPathAndQuery(t *testing.T) {
	h := newHarness(t, nil, ok)

	_, err := h.client.Get(context.Background(), "/jobs?page=2", WithQuery("q", "go"))
	require.NoError(t, err)

	reqs := h.backend.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/jobs", reqs[0].Path)
	assert.Equal(t, "page=2&q=go", reqs[0].RawQuery)
}

func TestClient_PreemptiveCSRFRefresh(t *testing.T) {
	t.Run("cookie absent refreshes exactly once before dispatch", func(t *testing.T) {
		var h *harness
		h = newHarness(t, nil, func(w http.ResponseWriter, r *http.Request, n int) {
			assert.Equal(t, int32(1), h.refresher.calls.Load(), "refresh completes before the request is sent")
			ok(w, r, n)
		})
		h.presence.present.Store(false)
		h.refresher.onRefresh = func() {
			assert.Empty(t, h.backend.requests())
		}

		_, err := h.client.Get(context.Background(), "/user")
		require.NoError(t, err)
		assert.Equal(t, int32(1), h.refresher.calls.Load())
	})

	t.Run("cookie present does not refresh", func(t *testing.T) {
		h := newHarness(t, nil, ok)

		_, err := h.client.Get(context.Background(), "/user")
		require.NoError(t, err)
		assert.Zero(t, h.refresher.calls.Load())
	})

	t.Run("proceeds when pre-emptive refresh fails", func(t *testing.T) {
		h := newHarness(t, nil, ok)
		h.presence.present.Store(false)
		h.refresher.ok = false

		resp, err := h.client.Get(context.Background(), "/user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, h.backend.requests(), 1)
		assert.Equal(t, int32(1), h.refresher.calls.Load())
	})

	t.Run("concurrent requests refresh independently", func(t *testing.T) {
		h := newHarness(t, nil, ok)
		h.presence.present.Store(false)

		var wg sync.WaitGroup
		for range 5 {
			wg.Go(func() {
				_, err := h.client.Get(context.Background(), "/user")
				assert.NoError(t, err)
			})
		}
		wg.Wait()

		assert.Equal(t, int32(5), h.refresher.calls.Load())
	})
}

func TestClient_PersistsTokenFromResponse(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 0 {
			respond(w, http.StatusOK, map[string]any{"token": "T", "user": map[string]any{"id": 1}})
			return
		}
		ok(w, r, n)
	}

	t.Run("stored and used for later calls", func(t *testing.T) {
		h := newHarness(t, nil, handler)

		resp, err := h.client.Post(context.Background(), "/login", map[string]string{"email": "a@b.c"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"T","user":{"id":1}}`, string(resp.Body), "response returned unchanged")

		stored, err := h.store.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "T", stored)
		assert.Equal(t, "Bearer T", h.client.Header().Get("Authorization"))

		_, err = h.client.Get(context.Background(), "/user")
		require.NoError(t, err)
		assert.Equal(t, "Bearer T", h.backend.requests()[1].Header.Get("Authorization"))
	})

	t.Run("default header applies even when storage rejects the write", func(t *testing.T) {
		h := newHarness(t, &rejectingStore{}, handler)

		_, err := h.client.Post(context.Background(), "/login", nil)
		require.NoError(t, err)
		_, err = h.client.Get(context.Background(), "/user")
		require.NoError(t, err)

		assert.Equal(t, "Bearer T", h.backend.requests()[1].Header.Get("Authorization"))
	})

	t.Run("ignores bodies without a string token", func(t *testing.T) {
		bodies := []string{`[1,2]`, `{"token":42}`, `{"token":""}`, `not json`}
		for _, body := range bodies {
			h := newHarness(t, nil, func(w http.ResponseWriter, _ *http.Request, _ int) {
				_, _ = io.WriteString(w, body)
			})

			_, err := h.client.Get(context.Background(), "/user")
			require.NoError(t, err)

			_, err = h.store.Read(context.Background())
			assert.ErrorIs(t, err, tokenstore.ErrNotFound, body)
			assert.Empty(t, h.client.Header().Get("Authorization"), body)
		}
	})
}

func TestClient_CSRFRecovery(t *testing.T) {
	t.Run("replays once after successful refresh", func(t *testing.T) {
		h := newHarness(t, tokenstore.NewMemoryStore("tok"), func(w http.ResponseWriter, r *http.Request, n int) {
			if n == 0 {
				respond(w, apierr.StatusCSRFMismatch, map[string]string{"message": "CSRF token mismatch."})
				return
			}
			respond(w, http.StatusCreated, map[string]any{"id": 7})
		})

		resp, err := h.client.Post(context.Background(), "/jobs?draft=1", map[string]string{"title": "Go dev"},
			WithHeader("X-Client", "cli"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, "caller sees the replayed outcome")

		reqs := h.backend.requests()
		require.Len(t, reqs, 2)
		original, replay := reqs[0], reqs[1]
		assert.Equal(t, original.Method, replay.Method)
		assert.Equal(t, original.Path, replay.Path)
		assert.Equal(t, original.RawQuery, replay.RawQuery)
		assert.Equal(t, original.Body, replay.Body)
		assert.JSONEq(t, `{"title":"Go dev"}`, string(replay.Body))
		for _, key := range []string{"Authorization", "Content-Type", "Accept", "X-Requested-With", "X-Client"} {
			assert.Equal(t, original.Header.Get(key), replay.Header.Get(key), key)
		}

		assert.Equal(t, int32(1), h.refresher.calls.Load())
		assert.Empty(t, h.rec.notifications(), "successful recovery is silent")
	})

	t.Run("failed refresh returns original 419", func(t *testing.T) {
		h := newHarness(t, nil, func(w http.ResponseWriter, _ *http.Request, _ int) {
			respond(w, apierr.StatusCSRFMismatch, map[string]string{"message": "CSRF token mismatch."})
		})
		h.refresher.ok = false

		_, err := h.client.Post(context.Background(), "/jobs", nil)
		require.ErrorIs(t, err, apierr.ErrCSRFMismatch)

		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, apierr.StatusCSRFMismatch, apiErr.StatusCode)
		assert.Len(t, h.backend.requests(), 1, "no replay without a fresh cookie")
		assert.Equal(t, int32(1), h.refresher.calls.Load())
	})

	t.Run("second 419 is terminal", func(t *testing.T) {
		h := newHarness(t, nil, func(w http.ResponseWriter, _ *http.Request, _ int) {
			respond(w, apierr.StatusCSRFMismatch, map[string]string{"message": "CSRF token mismatch."})
		})

		_, err := h.client.Put(context.Background(), "/profile", map[string]string{"name": "x"})
		require.ErrorIs(t, err, apierr.ErrCSRFMismatch)
		assert.Len(t, h.backend.requests(), 2)
		assert.Equal(t, int32(1), h.refresher.calls.Load())
	})

	t.Run("replay failure is classified normally", func(t *testing.T) {
		h := newHarness(t, nil, func(w http.ResponseWriter, _ *http.Request, n int) {
			if n == 0 {
				respond(w, apierr.StatusCSRFMismatch, nil)
				return
			}
			respond(w, http.StatusInternalServerError, nil)
		})

		_, err := h.client.Delete(context.Background(), "/jobs/1")
		require.ErrorIs(t, err, apierr.ErrServer)
		require.Len(t, h.rec.notifications(), 1)
		assert.Equal(t, msgServer, h.rec.notifications()[0].message)
	})
}

func TestClient_Unauthorized(t *testing.T) {
	h := newHarness(t, nil, func(w http.ResponseWriter, r *http.Request, n int) {
		switch n {
		case 0:
			respond(w, http.StatusOK, map[string]string{"token": "T"})
		case 1:
			respond(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
		default:
			ok(w, r, n)
		}
	})

	_, err := h.client.Post(context.Background(), "/login", nil)
	require.NoError(t, err)

	_, err = h.client.Get(context.Background(), "/user")
	require.ErrorIs(t, err, apierr.ErrUnauthorized)

	_, err = h.store.Read(context.Background())
	assert.ErrorIs(t, err, tokenstore.ErrNotFound, "token storage is empty")
	assert.Empty(t, h.client.Header().Get("Authorization"))
	assert.Equal(t, []string{DefaultLoginPath}, h.rec.redirectPaths())
	assert.Empty(t, h.rec.notifications(), "401 redirects silently")

	_, err = h.client.Get(context.Background(), "/jobs")
	require.NoError(t, err)
	assert.Empty(t, h.backend.requests()[2].Header.Get("Authorization"))
}

func TestClient_EnvSeededToken(t *testing.T) {
	const envKey = "HUBCLIENT_TEST_SEEDED_TOKEN"

	t.Run("issued token replaces the seed", func(t *testing.T) {
		t.Setenv(envKey, "OLD")
		store, err := tokenstore.NewEnvStore(envKey)
		require.NoError(t, err)
		h := newHarness(t, store, func(w http.ResponseWriter, r *http.Request, n int) {
			if n == 0 {
				respond(w, http.StatusOK, map[string]string{"token": "NEW"})
				return
			}
			ok(w, r, n)
		})

		_, err = h.client.Post(context.Background(), "/login", nil)
		require.NoError(t, err)
		_, err = h.client.Get(context.Background(), "/me")
		require.NoError(t, err)

		reqs := h.backend.requests()
		assert.Equal(t, "Bearer OLD", reqs[0].Header.Get("Authorization"))
		assert.Equal(t, "Bearer NEW", reqs[1].Header.Get("Authorization"))
	})

	t.Run("401 clears the seed", func(t *testing.T) {
		t.Setenv(envKey, "OLD")
		store, err := tokenstore.NewEnvStore(envKey)
		require.NoError(t, err)
		h := newHarness(t, store, func(w http.ResponseWriter, r *http.Request, n int) {
			if n == 0 {
				respond(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
				return
			}
			ok(w, r, n)
		})

		_, err = h.client.Get(context.Background(), "/me")
		require.ErrorIs(t, err, apierr.ErrUnauthorized)

		_, err = store.Read(context.Background())
		assert.ErrorIs(t, err, tokenstore.ErrNotFound, "token storage is empty")

		_, err = h.client.Get(context.Background(), "/jobs")
		require.NoError(t, err)
		assert.Empty(t, h.backend.requests()[1].Header.Get("Authorization"), "rejected token not re-sent")
		assert.Equal(t, []string{DefaultLoginPath}, h.rec.redirectPaths())
	})
}

func TestClient_NetworkFailure(t *testing.T) {
	t.Run("notifies once and surfaces the transport error", func(t *testing.T) {
		h := newHarness(t, nil, ok)
		h.backend.srv.Close()

		_, err := h.client.Get(context.Background(), "/user")
		require.Error(t, err)
		assert.ErrorIs(t, err, apierr.ErrNetwork)

		var urlErr *url.Error
		assert.ErrorAs(t, err, &urlErr, "original transport error is preserved")

		notes := h.rec.notifications()
		require.Len(t, notes, 1)
		assert.Equal(t, msgNetwork, notes[0].message)
		assert.Equal(t, notify.Toast(notify.SeverityDanger), notes[0].opts)
		assert.Empty(t, h.rec.redirectPaths())
	})

	t.Run("canceled caller is not notified", func(t *testing.T) {
		h := newHarness(t, nil, ok)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h.client.Get(ctx, "/user")
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, h.rec.notifications())
	})
}

func TestClient_StatusNotifications(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
		message  string
		severity notify.Severity
	}{
		{"rate limited", http.StatusTooManyRequests, apierr.ErrRateLimited, msgRateLimited, notify.SeverityWarning},
		{"server error", http.StatusInternalServerError, apierr.ErrServer, msgServer, notify.SeverityDanger},
		{"not found is silent", http.StatusNotFound, apierr.ErrUnclassified, "", ""},
		{"forbidden is silent", http.StatusForbidden, apierr.ErrUnclassified, "", ""},
		{"validation error is silent", http.StatusUnprocessableEntity, apierr.ErrUnclassified, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tokenstore.NewMemoryStore("keep"), func(w http.ResponseWriter, _ *http.Request, _ int) {
				respond(w, tt.status, map[string]string{"message": "nope"})
			})

			_, err := h.client.Get(context.Background(), "/jobs")
			require.ErrorIs(t, err, tt.sentinel)

			var apiErr *apierr.Error
			require.ErrorAs(t, err, &apiErr)
			assert.JSONEq(t, `{"message":"nope"}`, string(apiErr.Body))

			notes := h.rec.notifications()
			if tt.message == "" {
				assert.Empty(t, notes)
			} else {
				require.Len(t, notes, 1)
				assert.Equal(t, tt.message, notes[0].message)
				assert.Equal(t, tt.severity, notes[0].opts.Severity)
				assert.Equal(t, notify.DefaultTimeout, notes[0].opts.Timeout)
			}

			assert.Len(t, h.backend.requests(), 1, "no retry")
			assert.Empty(t, h.rec.redirectPaths())
			stored, err := h.store.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "keep", stored)
		})
	}
}

type failingStore struct {
	tokenstore.MemoryStore
}

func (*failingStore) Read(context.Context) (string, error) {
	return "", errors.New("keyring locked")
}

// rejectingStore never holds a token because every write fails.
type rejectingStore struct {
	tokenstore.MemoryStore
}

func (*rejectingStore) Write(context.Context, string) error {
	return errors.New("disk full")
}

func TestClient_BuildFailureIsNotSent(t *testing.T) {
	h := newHarness(t, &failingStore{}, ok)

	_, err := h.client.Get(context.Background(), "/user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyring locked")
	_, classified := apierr.KindOf(err)
	assert.False(t, classified)
	assert.Empty(t, h.backend.requests())
}

func TestClient_XSRFHeaderFromCookie(t *testing.T) {
	h := newHarness(t, nil, func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 0 {
			http.SetCookie(w, &http.Cookie{Name: csrf.DefaultCookieName, Value: "abc%3D%3D", Path: "/"})
		}
		ok(w, r, n)
	})

	_, err := h.client.Get(context.Background(), "/user")
	require.NoError(t, err)
	_, err = h.client.Get(context.Background(), "/user")
	require.NoError(t, err)

	reqs := h.backend.requests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Header.Get(csrf.DefaultHeaderName))
	assert.Equal(t, "abc==", reqs[1].Header.Get(csrf.DefaultHeaderName), "header carries the decoded cookie")
}

func TestClient_Logout(t *testing.T) {
	h := newHarness(t, tokenstore.NewMemoryStore("T"), func(w http.ResponseWriter, _ *http.Request, _ int) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, h.client.Logout(context.Background()))

	reqs := h.backend.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/logout", reqs[0].Path)
	assert.Equal(t, "Bearer T", reqs[0].Header.Get("Authorization"))

	_, err := h.store.Read(context.Background())
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, nil, func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 0 {
			respond(w, http.StatusInternalServerError, nil)
			return
		}
		ok(w, r, n)
	}, WithMetrics(reg))
	h.presence.present.Store(false)

	_, _ = h.client.Get(context.Background(), "/a")
	_, _ = h.client.Get(context.Background(), "/b")

	assert.Equal(t, 1.0, testutil.ToFloat64(h.client.metrics.requests.WithLabelValues(http.MethodGet, "server")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.client.metrics.requests.WithLabelValues(http.MethodGet, outcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.client.metrics.csrfRefresh.WithLabelValues(refreshPreemptive, "success")))

	// A second client on the same registry shares the collectors
	other, err := New(h.backend.srv.URL+"/api", tokenstore.NewMemoryStore(""), &fakeRefresher{ok: true}, WithMetrics(reg))
	require.NoError(t, err)
	assert.Same(t, h.client.metrics.requests, other.metrics.requests)
}

func TestNew_Validation(t *testing.T) {
	store := tokenstore.NewMemoryStore("")
	refresher := &fakeRefresher{}

	_, err := New("localhost:8000", store, refresher)
	assert.Error(t, err)

	_, err = New("http://localhost:8000/api", nil, refresher)
	assert.Error(t, err)

	_, err = New("http://localhost:8000/api", store, nil)
	assert.Error(t, err)

	c, err := New("http://localhost:8000/api", store, refresher)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", c.BaseURL())
}

// TestClient_WithSanctumProvider wires the real CSRF provider to the client
// through a shared jar against a backend that enforces the double-submit check.
func TestClient_WithSanctumProvider(t *testing.T) {
	var issued atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sanctum/csrf-cookie", func(w http.ResponseWriter, _ *http.Request) {
		issued.Add(1)
		http.SetCookie(w, &http.Cookie{Name: csrf.DefaultCookieName, Value: "s3cr%2Ft", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/user", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(csrf.DefaultCookieName)
		if err != nil || r.Header.Get(csrf.DefaultHeaderName) != strings.ReplaceAll(cookie.Value, "%2F", "/") {
			respond(w, apierr.StatusCSRFMismatch, nil)
			return
		}
		respond(w, http.StatusOK, map[string]string{"name": "Ada"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := NewCookieJar()
	require.NoError(t, err)
	logger := slog.New(slog.DiscardHandler)
	provider, err := csrf.NewProvider(srv.URL, jar,
		csrf.WithLogger(logger),
	)
	require.NoError(t, err)

	client, err := New(srv.URL+"/api", tokenstore.NewMemoryStore(""), provider,
		WithCookieJar(jar),
		WithLogger(logger),
		WithNotifier(notify.Discard),
	)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/user")
	require.NoError(t, err)

	var user struct {
		Name string `json:"name"`
	}
	require.NoError(t, resp.Decode(&user))
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, int32(1), issued.Load())

	_, err = client.Get(context.Background(), "/user")
	require.NoError(t, err)
	assert.Equal(t, int32(1), issued.Load(), "cookie present, no second bootstrap")
}
