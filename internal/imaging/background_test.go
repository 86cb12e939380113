package imaging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRemover(t *testing.T) {
	in := []byte("portrait")
	out, err := NoopRemover{}.RemoveBackground(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRembgRemover_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/remove", r.URL.Path)

		f, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		assert.NoError(t, err)
		assert.Equal(t, "portrait", string(data))

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("no-background"))
	}))
	defer srv.Close()

	r := NewRembgRemover(srv.URL+"/", time.Second)
	out, err := r.RemoveBackground(context.Background(), []byte("portrait"))
	require.NoError(t, err)
	assert.Equal(t, "no-background", string(out))
}

func TestRembgRemover_Failures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewRembgRemover(srv.URL, time.Second).RemoveBackground(context.Background(), []byte("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		_, err := NewRembgRemover(srv.URL, time.Second).RemoveBackground(context.Background(), []byte("x"))
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewRembgRemover(url, time.Second).RemoveBackground(context.Background(), []byte("x"))
		assert.Error(t, err)
	})

	t.Run("empty image", func(t *testing.T) {
		_, err := NewRembgRemover("http://127.0.0.1:1", time.Second).RemoveBackground(context.Background(), nil)
		assert.Error(t, err)
	})
}
