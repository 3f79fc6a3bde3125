package video

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/zedtools/zed2kitti/recording"
)

// SidecarPath returns the default calibration sidecar location for a
// video: the video path with its extension replaced by ".calib.yaml".
func SidecarPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".calib.yaml"
}

// LoadSidecar reads a stereo calibration from a YAML file of the form:
//
//	left:  {fx: 700.0, fy: 700.0, cx: 640.0, cy: 360.0}
//	right: {fx: 700.0, fy: 700.0, cx: 640.0, cy: 360.0}
//	baseline_m: 0.12
func LoadSidecar(path string) (*recording.Calibration, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c recording.Calibration
	if err := yaml.UnmarshalStrict(buf, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func validate(c *recording.Calibration) error {
	if c.Left.Fx <= 0 || c.Left.Fy <= 0 {
		return fmt.Errorf("left focal lengths must be positive")
	}
	if c.Right.Fx <= 0 || c.Right.Fy <= 0 {
		return fmt.Errorf("right focal lengths must be positive")
	}
	if c.BaselineM == 0 {
		return fmt.Errorf("baseline_m must be set")
	}
	return nil
}
