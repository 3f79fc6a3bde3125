// Package zrec reads and writes .zrec files, a simple container for
// rectified stereo recordings: a JSON header carrying the rig calibration
// followed by length-prefixed, PNG-encoded frame pairs with capture
// timestamps.
//
// File layout, all integers little-endian:
//
//	"ZREC" | uint16 version | uint32 header length | header JSON
//
// followed by zero or more frame records:
//
//	int64 timestamp ns | uint32 left size | left PNG | uint32 right size | right PNG
package zrec

import (
	"github.com/zedtools/zed2kitti/recording"
)

// FileExtension is the conventional extension for zrec recordings.
const FileExtension = ".zrec"

// Version is the container version written by this package.
const Version = 1

var magic = [4]byte{'Z', 'R', 'E', 'C'}

// Limits guarding against reading garbage lengths from corrupt files.
const (
	maxHeaderSize = 1 << 20 // 1 MiB of JSON is already absurd
	maxImageSize  = 1 << 28 // 256 MiB per encoded view
)

// Header is the recording metadata stored at the start of a zrec file.
type Header struct {
	// CreatedNs is when the recording was made, unix nanoseconds.
	CreatedNs int64 `json:"created_ns"`

	// Serial identifies the camera, if known.
	Serial string `json:"serial,omitempty"`

	// Width and Height are the dimensions of a single view.
	Width  int `json:"width"`
	Height int `json:"height"`

	// FPS is the nominal capture rate. Informational; each frame record
	// carries its own timestamp.
	FPS float64 `json:"fps,omitempty"`

	Calibration recording.Calibration `json:"calibration"`
}
