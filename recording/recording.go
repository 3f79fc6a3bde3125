// Package recording defines the reader side of a stereo camera recording:
// a source of frame pairs with capture timestamps, plus the rig calibration
// needed to project them.
package recording

import (
	"errors"
	"image"
)

// ErrExhausted is returned by Grab when the recording has no more frames.
// Any other error from Grab indicates a mid-stream failure.
var ErrExhausted = errors.New("recording exhausted")

// View selects which camera image to retrieve for the current frame.
type View int

const (
	// ViewLeft is the rectified left camera image.
	ViewLeft View = iota
	// ViewRight is the rectified right camera image.
	ViewRight
	// ViewLeftUnrectified is the raw left camera image, when the source has it.
	ViewLeftUnrectified
	// ViewRightUnrectified is the raw right camera image, when the source has it.
	ViewRightUnrectified
)

func (v View) String() string {
	switch v {
	case ViewLeft:
		return "left"
	case ViewRight:
		return "right"
	case ViewLeftUnrectified:
		return "left-unrectified"
	case ViewRightUnrectified:
		return "right-unrectified"
	}
	return "unknown"
}

// TimeReference selects which clock a frame timestamp is taken from.
type TimeReference int

const (
	// TimeImage is the moment the image was acquired by the sensor.
	TimeImage TimeReference = iota
	// TimeCurrent is the wall clock at retrieval time.
	TimeCurrent
)

// Intrinsics are the pinhole parameters of a single camera, in pixels.
type Intrinsics struct {
	Fx float64 `json:"fx" yaml:"fx"`
	Fy float64 `json:"fy" yaml:"fy"`
	Cx float64 `json:"cx" yaml:"cx"`
	Cy float64 `json:"cy" yaml:"cy"`
}

// Calibration describes a rectified stereo rig.
type Calibration struct {
	Left  Intrinsics `json:"left" yaml:"left"`
	Right Intrinsics `json:"right" yaml:"right"`

	// BaselineM is the signed distance between the camera centers, in
	// meters. Positive for the usual left-reference rig.
	BaselineM float64 `json:"baseline_m" yaml:"baseline_m"`
}

// Recording is an opened stereo recording. Frames are consumed
// sequentially: each successful Grab advances to the next frame, after
// which Retrieve and Timestamp refer to that frame. Calibration must be
// read before Close.
//
// Implementations are not safe for concurrent use.
type Recording interface {
	// Grab advances to the next frame. It returns ErrExhausted when the
	// recording has no more frames.
	Grab() error

	// Retrieve returns the current frame's image for the given view.
	Retrieve(v View) (image.Image, error)

	// Timestamp returns the current frame's timestamp in nanoseconds
	// for the given time reference.
	Timestamp(ref TimeReference) (int64, error)

	// Calibration returns the rig calibration. Valid only while the
	// recording is open.
	Calibration() (*Calibration, error)

	// Close releases the recording. The Recording must not be used
	// afterwards.
	Close() error
}
