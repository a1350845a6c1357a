package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"

	nvimui "github.com/danielgatis/go-nvim-ui"
)

// fakeEditor answers the attach request and draws one screen.
func fakeEditor(t *testing.T, ch *nvimui.MemoryChannel) {
	t.Helper()
	go func() {
		for msg := range ch.Outgoing() {
			if msg.Kind != nvimui.KindRequest || msg.Method != "nvim_ui_attach" {
				continue
			}
			_ = ch.Inject(nvimui.NewResponse(msg.ID, nil, nil))
			_ = ch.Inject(nvimui.NewNotification("redraw",
				[]any{"grid_resize", []any{1, 10, 3}},
				[]any{"grid_line", []any{1, 0, 0, []any{[]any{"H"}, []any{"E"}, []any{"L", 0, 2}, []any{"O"}}, false}},
				[]any{"grid_cursor_goto", []any{1, 0, 5}},
				[]any{"flush"},
			))
		}
	}()
}

func TestCaptureScreenshot(t *testing.T) {
	ch := nvimui.NewMemoryChannel(16)
	surface := nvimui.NewMemorySurface()
	engine := nvimui.New(ch,
		nvimui.WithSurface(surface),
		nvimui.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	fakeEditor(t, ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = engine.Run(ctx) }()

	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows = 10, 3
	cfg.Settle = 20 * time.Millisecond
	cfg.Timeout = 5 * time.Second

	img, err := captureScreenshot(ctx, engine, surface, cfg)
	require.NoError(t, err)

	adv, _ := basicfont.Face7x13.GlyphAdvance('M')
	assert.Equal(t, 10*adv.Ceil(), img.Bounds().Dx())
	assert.Equal(t, 3*basicfont.Face7x13.Metrics().Height.Ceil(), img.Bounds().Dy())
	assert.Equal(t, "HELLO", engine.Snapshot(nvimui.DefaultGridID).LineContent(0))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	assert.NotZero(t, buf.Len())
}

func TestCaptureScreenshotClosed(t *testing.T) {
	ch := nvimui.NewMemoryChannel(16)
	surface := nvimui.NewMemorySurface()
	engine := nvimui.New(ch,
		nvimui.WithSurface(surface),
		nvimui.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	go func() { _ = engine.Run(context.Background()) }()
	require.NoError(t, engine.Close())

	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows = 10, 3

	_, err := captureScreenshot(context.Background(), engine, surface, cfg)
	assert.ErrorIs(t, err, nvimui.ErrChannelClosed)
}

func TestInputOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, inputOptions(cfg, slog.Default()), 3)

	cfg.Input.PasteChunkSize = 1024
	assert.Len(t, inputOptions(cfg, slog.Default()), 4)
}
