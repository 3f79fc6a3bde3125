// Package video reads stereo recordings stored as ordinary video files
// whose frames are side-by-side left/right pairs, a common export format
// for stereo cameras. Decoding is delegated to the ffmpeg and ffprobe
// executables; the rig calibration comes from a YAML sidecar file next to
// the video.
package video

import (
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/zedtools/zed2kitti"
	"github.com/zedtools/zed2kitti/recording"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y ffmpeg")

// Options has options for Open.
type Options struct {
	// Logger receives progress output. If nil, logging is disabled.
	Logger *zap.Logger

	// CalibrationPath overrides the default sidecar location
	// (SidecarPath of the video).
	CalibrationPath string
}

// Reader reads side-by-side stereo frames from a video file. Open
// extracts all frames to a temporary directory up front; Grab then steps
// through them in order.
type Reader struct {
	calib   recording.Calibration
	meta    *Meta
	tempDir string
	frames  []string
	closed  bool

	// Current frame, valid after a successful Grab.
	idx int // -1 before first grab
	cur image.Image
}

var _ recording.Recording = (*Reader)(nil)

// Open opens the video, loads the calibration sidecar, and extracts the
// frames. Callers must call Close to remove the extracted frames.
func Open(path string, opts *Options) (rdr *Reader, rerr error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	calibPath := opts.CalibrationPath
	if calibPath == "" {
		calibPath = SidecarPath(path)
	}
	calib, err := LoadSidecar(calibPath)
	if err != nil {
		return nil, fmt.Errorf("loading calibration sidecar: %w", err)
	}

	meta, err := probe(path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}
	if meta.FPS <= 0 {
		return nil, fmt.Errorf("probing %s: no usable frame rate", path)
	}

	r := &Reader{calib: *calib, meta: meta, idx: -1}

	// Ensure cleanup in case of failure.
	defer func() {
		if rerr != nil {
			r.Close()
		}
	}()

	tempDir, err := zed2kitti.TempDir()
	if err != nil {
		return nil, fmt.Errorf("making temp dir: %w", err)
	}
	r.tempDir = tempDir
	logger.Debug("extracting frames", zap.String("video", path), zap.String("temp_dir", tempDir))

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command("ffmpeg", "-i", abs, "-vsync", "0", "-f", "image2", "frame_%06d.png")
	cmd.Dir = tempDir
	if out, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("ffmpeg frame extraction: %w, output: %s", err, out)
	}

	frames, err := filepath.Glob(filepath.Join(tempDir, "frame_*.png"))
	if err != nil {
		return nil, fmt.Errorf("globbing frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", path)
	}
	sort.Strings(frames)
	r.frames = frames
	logger.Debug("frames extracted", zap.Int("count", len(frames)), zap.Float64("fps", meta.FPS))

	return r, nil
}

// Grab advances to the next extracted frame and decodes it.
func (r *Reader) Grab() error {
	if r.closed {
		return fmt.Errorf("grab on closed recording")
	}
	if r.idx+1 >= len(r.frames) {
		return recording.ErrExhausted
	}
	r.idx++
	img, err := imaging.Open(r.frames[r.idx])
	if err != nil {
		return fmt.Errorf("decoding frame %d: %w", r.idx, err)
	}
	r.cur = img
	return nil
}

// Retrieve returns the requested half of the current side-by-side frame.
// The halves are already rectified in this format, so the unrectified
// views are not available.
func (r *Reader) Retrieve(v recording.View) (image.Image, error) {
	if r.cur == nil {
		return nil, fmt.Errorf("retrieve before first grab")
	}
	b := r.cur.Bounds()
	half := b.Dx() / 2
	switch v {
	case recording.ViewLeft:
		return imaging.Crop(r.cur, image.Rect(b.Min.X, b.Min.Y, b.Min.X+half, b.Max.Y)), nil
	case recording.ViewRight:
		return imaging.Crop(r.cur, image.Rect(b.Min.X+half, b.Min.Y, b.Max.X, b.Max.Y)), nil
	}
	return nil, fmt.Errorf("view %v not available in side-by-side recordings", v)
}

// Timestamp returns the current frame's capture time in nanoseconds,
// derived from the container creation time (zero if the container has
// none) plus the frame's offset at the nominal rate.
func (r *Reader) Timestamp(ref recording.TimeReference) (int64, error) {
	switch ref {
	case recording.TimeImage:
		if r.idx < 0 {
			return 0, fmt.Errorf("timestamp before first grab")
		}
		offset := int64(float64(r.idx) * float64(time.Second) / r.meta.FPS)
		return r.meta.StartNs + offset, nil
	case recording.TimeCurrent:
		return time.Now().UnixNano(), nil
	}
	return 0, fmt.Errorf("unknown time reference %v", ref)
}

// Calibration returns the sidecar calibration.
func (r *Reader) Calibration() (*recording.Calibration, error) {
	if r.closed {
		return nil, fmt.Errorf("calibration read after close")
	}
	c := r.calib
	return &c, nil
}

// Close removes the extracted frames.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.tempDir != "" {
		return os.RemoveAll(r.tempDir)
	}
	return nil
}
