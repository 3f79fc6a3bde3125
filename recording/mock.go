package recording

import (
	"fmt"
	"image"
)

// MockFrame is a single frame served by a Mock recording.
type MockFrame struct {
	Left        image.Image
	Right       image.Image
	TimestampNs int64
}

// Mock implements Recording from in-memory frames, for testing.
type Mock struct {
	Frames []MockFrame
	Calib  Calibration

	// GrabErrAt injects GrabErr on the grab with this index. Zero value
	// with a nil GrabErr disables injection.
	GrabErrAt int
	GrabErr   error

	CalibErr error
	Closed   bool

	pos int // 0 before first grab, then 1-based frame number
}

var _ Recording = (*Mock)(nil)

func (m *Mock) Grab() error {
	if m.GrabErr != nil && m.pos == m.GrabErrAt {
		return m.GrabErr
	}
	if m.pos >= len(m.Frames) {
		return ErrExhausted
	}
	m.pos++
	return nil
}

func (m *Mock) Retrieve(v View) (image.Image, error) {
	if m.pos == 0 {
		return nil, fmt.Errorf("retrieve before first grab")
	}
	f := m.Frames[m.pos-1]
	switch v {
	case ViewLeft, ViewLeftUnrectified:
		return f.Left, nil
	case ViewRight, ViewRightUnrectified:
		return f.Right, nil
	}
	return nil, fmt.Errorf("unknown view %v", v)
}

func (m *Mock) Timestamp(ref TimeReference) (int64, error) {
	if m.pos == 0 {
		return 0, fmt.Errorf("timestamp before first grab")
	}
	return m.Frames[m.pos-1].TimestampNs, nil
}

func (m *Mock) Calibration() (*Calibration, error) {
	if m.CalibErr != nil {
		return nil, m.CalibErr
	}
	if m.Closed {
		return nil, fmt.Errorf("calibration read after close")
	}
	c := m.Calib
	return &c, nil
}

func (m *Mock) Close() error {
	m.Closed = true
	return nil
}
