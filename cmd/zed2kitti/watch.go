package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zedtools/zed2kitti"
)

// recordingExts are the extensions watch reacts to.
var recordingExts = map[string]bool{
	".zrec": true,
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "watch <dir>",
		Short:        "Convert recordings as they appear in a directory",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0])
		},
	}
}

func runWatch(dir string) error {
	logger := newLogger()
	defer logger.Sync()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new file change watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching for recordings", zap.String("dir", dir))
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !recordingExts[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			convertOne(ctx, ev.Name, logger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// convertOne converts a single recording, logging failures instead of
// stopping the watch loop.
func convertOne(ctx context.Context, path string, logger *zap.Logger) {
	log := logger.With(zap.String("recording", path))
	if err := waitSettled(ctx, path); err != nil {
		log.Warn("recording never settled, skipping", zap.Error(err))
		return
	}
	rec, err := openRecording(path, logger)
	if err != nil {
		log.Warn("open failed, skipping", zap.Error(err))
		return
	}
	defer rec.Close()

	out := zed2kitti.DefaultOutputDir(path)
	res, err := zed2kitti.Convert(rec, out, &zed2kitti.Options{Logger: logger})
	if err != nil {
		log.Warn("conversion failed", zap.Error(err))
		return
	}
	log.Info("converted", zap.Int("frames", res.Frames), zap.String("output_dir", res.OutputDir))
}

// waitSettled waits until the file's size stops changing, so a recording
// still being copied in is not read half-written.
func waitSettled(ctx context.Context, path string) error {
	const (
		interval = 500 * time.Millisecond
		timeout  = 2 * time.Minute
	)
	deadline := time.Now().Add(timeout)
	var lastSize int64 = -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if fi.Size() == lastSize {
			return nil
		}
		lastSize = fi.Size()
		if time.Now().After(deadline) {
			return fmt.Errorf("still growing after %s", timeout)
		}
	}
}
