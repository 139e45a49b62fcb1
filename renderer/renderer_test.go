package renderer_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweet-indexer/renderer"
)

func TestChromeRendererMissingBinary(t *testing.T) {
	r := renderer.NewChromeRenderer(filepath.Join(t.TempDir(), "no-chrome"), "", time.Second)
	defer r.Close()

	_, err := r.RenderHTML(context.Background(), "http://127.0.0.1:1/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start chrome")
}

func TestChromeRendererCancelledContext(t *testing.T) {
	r := renderer.NewChromeRenderer(filepath.Join(t.TempDir(), "no-chrome"), "", time.Second)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Render(ctx, "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChromeRendererClose(t *testing.T) {
	r := renderer.NewChromeRenderer("", "", 0)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err := r.RenderHTML(context.Background(), "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, renderer.ErrRendererClosed)
}
