package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWritesAudioAndReturnsRef(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := New(dir,
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithModel("tts-1"),
		WithVoice("alloy"),
	)

	ref, err := client.Render(context.Background(), "hola, hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, RefPrefix))
	assert.True(t, strings.HasSuffix(ref, ".mp3"))
	assert.Contains(t, gotBody, `"input":"hola, hello"`)

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, RefPrefix)))
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))
}

func TestRenderReportsEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(t.TempDir(), WithBaseURL(srv.URL))

	_, err := client.Render(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}
