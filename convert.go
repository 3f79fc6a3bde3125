// Package zed2kitti converts stereo camera recordings into datasets in
// the KITTI odometry layout: per-frame rectified left/right PNG pairs, a
// per-frame timestamp log, and a calibration file with the stereo
// projection matrices.
package zed2kitti

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/zedtools/zed2kitti/kitti"
	"github.com/zedtools/zed2kitti/recording"
)

// Options has options for Convert.
type Options struct {
	// Logger receives progress output. If nil, logging is disabled.
	Logger *zap.Logger
}

// Result describes a finished conversion.
type Result struct {
	OutputDir string
	Frames    int
}

// DefaultOutputDir returns the output directory used when none is given:
// the input path with its extension replaced by "_kitti_dataset".
func DefaultOutputDir(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_kitti_dataset"
}

// Convert drains all frames from rec into a KITTI dataset at outDir and
// writes the calibration file. The recording must be open; Convert does
// not close it.
//
// Frames are exported with the rectified left/right views and the
// image-acquisition timestamp. A mid-stream grab failure stops the export
// but keeps the frames written so far and still writes calib.txt; Convert
// then returns the partial Result together with the grab error, which is
// distinguishable from clean end-of-stream (only the latter yields a nil
// error).
func Convert(rec recording.Recording, outDir string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Calibration has to come off the handle before it is released, so
	// read it up front rather than after the export loop.
	cal, err := rec.Calibration()
	if err != nil {
		return nil, fmt.Errorf("reading calibration: %w", err)
	}

	ds, err := kitti.Create(outDir)
	if err != nil {
		return nil, fmt.Errorf("creating dataset: %w", err)
	}

	var grabErr error
	for {
		err := rec.Grab()
		if errors.Is(err, recording.ErrExhausted) {
			break
		}
		if err != nil {
			grabErr = err
			break
		}

		left, err := rec.Retrieve(recording.ViewLeft)
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("retrieving left view of frame %d: %w", ds.FrameCount(), err)
		}
		right, err := rec.Retrieve(recording.ViewRight)
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("retrieving right view of frame %d: %w", ds.FrameCount(), err)
		}
		ts, err := rec.Timestamp(recording.TimeImage)
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("reading timestamp of frame %d: %w", ds.FrameCount(), err)
		}

		if err := ds.AppendFrame(left, right, ts); err != nil {
			ds.Close()
			return nil, err
		}
		logger.Debug("frame exported", zap.Int("frame", ds.FrameCount()-1))
	}

	if err := ds.Close(); err != nil {
		return nil, fmt.Errorf("closing timestamp log: %w", err)
	}
	if err := ds.WriteCalibration(cal); err != nil {
		return nil, err
	}

	res := &Result{OutputDir: outDir, Frames: ds.FrameCount()}
	if grabErr != nil {
		logger.Warn("recording ended early, keeping partial dataset",
			zap.Int("frames", res.Frames), zap.Error(grabErr))
		return res, fmt.Errorf("grab failed after %d frames: %w", res.Frames, grabErr)
	}
	logger.Info("export complete",
		zap.Int("frames", res.Frames), zap.String("output_dir", outDir))
	return res, nil
}
