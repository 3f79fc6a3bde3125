// Package kitti writes stereo frame sequences in the KITTI odometry
// dataset layout: image_0/ and image_1/ with zero-padded PNG pairs, a
// times.txt with one seconds line per frame, and a calib.txt with the
// P0/P1 projection matrices.
package kitti

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/zedtools/zed2kitti/recording"
)

// Names of the entries created under the dataset directory.
const (
	LeftDir   = "image_0"
	RightDir  = "image_1"
	TimesFile = "times.txt"
	CalibFile = "calib.txt"
)

// Dataset is a KITTI dataset directory being written. Frames must be
// appended in capture order; the Nth appended pair and the Nth times.txt
// line always describe the same frame.
type Dataset struct {
	dir   string
	times *os.File
	count int
}

// Create makes the dataset directory with its image_0 and image_1
// subdirectories and opens times.txt for writing. Existing files are
// overwritten.
func Create(dir string) (*Dataset, error) {
	for _, sub := range []string{LeftDir, RightDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s dir: %w", sub, err)
		}
	}
	times, err := os.Create(filepath.Join(dir, TimesFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", TimesFile, err)
	}
	return &Dataset{dir: dir, times: times}, nil
}

// Dir returns the dataset directory.
func (d *Dataset) Dir() string { return d.dir }

// FrameCount returns the number of frame pairs appended so far.
func (d *Dataset) FrameCount() int { return d.count }

// AppendFrame writes the left/right pair under the next zero-padded
// sequence name and appends the timestamp, converted from nanoseconds to
// seconds, to times.txt.
func (d *Dataset) AppendFrame(left, right image.Image, timestampNs int64) error {
	name := fmt.Sprintf("%06d.png", d.count)
	if err := writeImage(filepath.Join(d.dir, LeftDir, name), left); err != nil {
		return fmt.Errorf("writing left frame %s: %w", name, err)
	}
	if err := writeImage(filepath.Join(d.dir, RightDir, name), right); err != nil {
		return fmt.Errorf("writing right frame %s: %w", name, err)
	}
	if _, err := fmt.Fprintf(d.times, "%.9f\n", float64(timestampNs)*1e-9); err != nil {
		return fmt.Errorf("writing timestamp for frame %s: %w", name, err)
	}
	d.count++
	return nil
}

// WriteCalibration writes calib.txt with the P0 and P1 lines derived from
// the rig calibration.
func (d *Dataset) WriteCalibration(c *recording.Calibration) error {
	p0, p1 := ProjectionMatrices(c)
	content := formatProjection("P0", p0) + "\n" + formatProjection("P1", p1) + "\n"
	path := filepath.Join(d.dir, CalibFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", CalibFile, err)
	}
	return nil
}

// Close closes times.txt. The image files are closed as they are written.
func (d *Dataset) Close() error {
	return d.times.Close()
}

// writeImage saves img as an opaque PNG. Sources like the ZED hand back
// BGRA buffers; dropping the alpha channel here makes the PNG encoder
// emit plain 3-channel color.
func writeImage(path string, img image.Image) error {
	return imaging.Save(stripAlpha(img), path)
}

// stripAlpha returns an opaque copy of img.
func stripAlpha(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
