package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	nvimui "github.com/danielgatis/go-nvim-ui"
	"github.com/danielgatis/go-nvim-ui/internal/tui"
	"github.com/danielgatis/go-nvim-ui/msgpackrpc"
)

// editor is a child process started with --embed.
type editor struct {
	cmd  *exec.Cmd
	conn *msgpackrpc.Conn
}

func startEditor(ctx context.Context, cfg Config, logger *slog.Logger) (*editor, error) {
	args := append([]string{"--embed"}, cfg.Args...)
	cmd := exec.CommandContext(ctx, cfg.Nvim, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cfg.Nvim, err)
	}
	logger.Debug("editor started", "path", cfg.Nvim, "pid", cmd.Process.Pid, "args", args)

	// Closing stdin makes the editor exit, which ends the stream.
	conn := msgpackrpc.New(stdout, stdin, msgpackrpc.WithCloser(stdin))
	return &editor{cmd: cmd, conn: conn}, nil
}

// run drives the engine until the stream ends, then reaps the process.
func (e *editor) run(ctx context.Context, engine *nvimui.Engine) error {
	runErr := engine.Run(ctx)
	waitErr := e.cmd.Wait()
	if runErr != nil {
		return runErr
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && ctx.Err() == nil {
		return fmt.Errorf("editor exited: %w", waitErr)
	}
	return nil
}

func inputOptions(cfg Config, logger *slog.Logger) []nvimui.InputOption {
	opts := []nvimui.InputOption{
		nvimui.WithInputLogger(logger),
		nvimui.WithDragInterval(cfg.Input.DragInterval),
		nvimui.WithResizeDelay(cfg.Input.ResizeDelay),
	}
	if cfg.Input.PasteChunkSize >= 0 {
		opts = append(opts, nvimui.WithPasteChunkSize(cfg.Input.PasteChunkSize))
	}
	return opts
}

// runTUI shows the editor in the current terminal.
func runTUI(ctx context.Context, cfg Config, logger *slog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnablePaste()
	screen.EnableFocus()

	ed, err := startEditor(ctx, cfg, logger)
	if err != nil {
		return err
	}

	surface := tui.NewSurface(screen)
	engine := nvimui.New(ed.conn,
		nvimui.WithLogger(logger),
		nvimui.WithSurface(surface),
		nvimui.WithBell(surface),
		nvimui.WithTitle(surface),
		nvimui.WithClipboard(nvimui.NewMemoryClipboard()),
	)
	translator := nvimui.NewInputTranslator(engine, inputOptions(cfg, logger)...)
	defer translator.Close()
	engine.AddFrameObserver(translator)

	cols, rows := cfg.Cols, cfg.Rows
	if cols == 0 || rows == 0 {
		cols, rows = screen.Size()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ed.run(gctx, engine)
	})
	g.Go(func() error {
		<-engine.Done()
		screen.Fini()
		return nil
	})
	g.Go(func() error {
		tui.NewPump(screen, translator, logger).Run()
		return engine.Close()
	})
	g.Go(func() error {
		if _, _, err := engine.Attach(gctx, nvimui.AttachOptions{Cols: cols, Rows: rows}); err != nil {
			_ = engine.Close()
			return err
		}
		return nil
	})
	return g.Wait()
}

// runScreenshot attaches headless, waits for the screen to settle and
// writes the default grid as a PNG.
func runScreenshot(ctx context.Context, cfg Config, logger *slog.Logger) error {
	ed, err := startEditor(ctx, cfg, logger)
	if err != nil {
		return err
	}

	surface := nvimui.NewMemorySurface()
	engine := nvimui.New(ed.conn,
		nvimui.WithLogger(logger),
		nvimui.WithSurface(surface),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ed.run(gctx, engine)
	})
	g.Go(func() error {
		defer engine.Close()
		img, err := captureScreenshot(gctx, engine, surface, cfg)
		if err != nil {
			return err
		}
		if err := writePNG(cfg.Screenshot, img); err != nil {
			return err
		}
		logger.Info("screenshot written", "path", cfg.Screenshot, "frames", engine.Stats().Frames)
		return nil
	})
	return g.Wait()
}

// captureScreenshot attaches and renders the default grid once no frame has
// arrived for cfg.Settle.
func captureScreenshot(ctx context.Context, engine *nvimui.Engine, surface *nvimui.MemorySurface, cfg Config) (*image.RGBA, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if _, _, err := engine.Attach(ctx, nvimui.AttachOptions{Cols: cfg.Cols, Rows: cfg.Rows}); err != nil {
		return nil, err
	}

	settle := time.NewTimer(cfg.Settle)
	defer settle.Stop()
	seen := false
	for {
		select {
		case <-surface.Notify():
			seen = true
			settle.Reset(cfg.Settle)
		case <-settle.C:
			if !seen {
				settle.Reset(cfg.Settle)
				continue
			}
			img := engine.Screenshot(nvimui.DefaultGridID)
			if img == nil {
				return nil, errors.New("editor did not create the default grid")
			}
			return img, nil
		case <-engine.Done():
			return nil, nvimui.ErrChannelClosed
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for frames: %w", ctx.Err())
		}
	}
}

func writePNG(path string, img image.Image) (err error) {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return png.Encode(w, img)
}
