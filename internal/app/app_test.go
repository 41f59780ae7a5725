package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SergeyBogomolovv/storefront-orders/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) Init(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

type starterFunc func(ctx context.Context) error

func (f starterFunc) Start(ctx context.Context) error { return f(ctx) }

func newTestApp() *application {
	cfg := config.New()
	cfg.Http.Host = "127.0.0.1"
	cfg.Http.Port = "0"
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApp()
	a.SetHTTPHandlers(pingHandler{})

	testCases := []struct {
		path       string
		wantStatus int
	}{
		{path: "/ping", wantStatus: http.StatusNoContent},
		{path: "/metrics", wantStatus: http.StatusOK},
		{path: "/missing", wantStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestApplication_StartFailsWhenStarterFails(t *testing.T) {
	a := newTestApp()
	errWarmUp := errors.New("warm up failed")
	a.SetStarters(
		starterFunc(func(ctx context.Context) error { return nil }),
		starterFunc(func(ctx context.Context) error { return errWarmUp }),
	)

	err := a.Start(context.Background())
	assert.ErrorIs(t, err, errWarmUp)
}

func TestApplication_StartStop(t *testing.T) {
	a := newTestApp()

	started := false
	a.SetStarters(starterFunc(func(ctx context.Context) error {
		started = true
		return nil
	}))

	require.NoError(t, a.Start(context.Background()))
	assert.True(t, started)
	assert.NoError(t, a.Stop())
}
