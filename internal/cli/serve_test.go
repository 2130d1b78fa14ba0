package cli

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/treeseed/internal/app"
	"github.com/johnwards/treeseed/internal/config"
)

func openApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Config{
		DBPath:    filepath.Join(t.TempDir(), "serve.db"),
		Instances: 1,
		LockTTL:   time.Minute,
	}
	a, err := app.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestServeHandler(t *testing.T) {
	h := newHandler(openApp(t), "secret", zerolog.Nop())

	tests := []struct {
		name   string
		method string
		target string
		auth   string
		want   int
	}{
		{"unauthorised", http.MethodPost, "/_treeseed/seed", "", http.StatusUnauthorized},
		{"seed", http.MethodPost, "/_treeseed/seed", "Bearer secret", http.StatusOK},
		{"tree", http.MethodGet, "/_treeseed/tree", "Bearer secret", http.StatusOK},
		{"unknown route", http.MethodGet, "/nowhere", "Bearer secret", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Correlation-Id"))
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: addr, Handler: newHandler(openApp(t), "", zerolog.Nop()), ReadHeaderTimeout: time.Second}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, zerolog.Nop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/_treeseed/classes")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeListenError(t *testing.T) {
	srv := &http.Server{Addr: "256.0.0.1:-1", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	err := serve(context.Background(), srv, zerolog.Nop())
	assert.ErrorContains(t, err, "listen")
}
