package zrec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"

	"github.com/zedtools/zed2kitti/recording"
)

// Reader reads frames from a zrec file sequentially.
type Reader struct {
	f      *os.File
	br     *bufio.Reader
	header Header
	closed bool

	// Current frame, valid after a successful Grab.
	grabbed     bool
	timestampNs int64
	left, right []byte
}

var _ recording.Recording = (*Reader)(nil)

// Open opens a zrec file and parses its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f, br: bufio.NewReaderSize(f, 1<<16)}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading zrec header: %w", err)
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	var m [4]byte
	if _, err := io.ReadFull(r.br, m[:]); err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}
	if m != magic {
		return fmt.Errorf("bad magic %q, not a zrec file", m)
	}
	var version uint16
	if err := binary.Read(r.br, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if version != Version {
		return fmt.Errorf("unsupported zrec version %d", version)
	}
	var hlen uint32
	if err := binary.Read(r.br, binary.LittleEndian, &hlen); err != nil {
		return fmt.Errorf("reading header length: %w", err)
	}
	if hlen > maxHeaderSize {
		return fmt.Errorf("header length %d exceeds limit", hlen)
	}
	buf := make([]byte, hlen)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if err := json.Unmarshal(buf, &r.header); err != nil {
		return fmt.Errorf("decoding header: %w", err)
	}
	return nil
}

// Header returns the recording metadata.
func (r *Reader) Header() Header { return r.header }

// Grab reads the next frame record. It returns recording.ErrExhausted at
// a clean end of file; a file truncated inside a record is an error.
func (r *Reader) Grab() error {
	if r.closed {
		return fmt.Errorf("grab on closed recording")
	}
	if err := binary.Read(r.br, binary.LittleEndian, &r.timestampNs); err != nil {
		if err == io.EOF {
			return recording.ErrExhausted
		}
		return fmt.Errorf("reading frame timestamp: %w", err)
	}
	var err error
	if r.left, err = r.readBlob(); err != nil {
		return fmt.Errorf("reading left view: %w", err)
	}
	if r.right, err = r.readBlob(); err != nil {
		return fmt.Errorf("reading right view: %w", err)
	}
	r.grabbed = true
	return nil
}

func (r *Reader) readBlob() ([]byte, error) {
	var size uint32
	if err := binary.Read(r.br, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("reading size: %w", err)
	}
	if size > maxImageSize {
		return nil, fmt.Errorf("image size %d exceeds limit", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, fmt.Errorf("reading %d bytes: %w", size, err)
	}
	return buf, nil
}

// Retrieve decodes the requested view of the current frame. zrec files
// store rectified views only.
func (r *Reader) Retrieve(v recording.View) (image.Image, error) {
	if !r.grabbed {
		return nil, fmt.Errorf("retrieve before first grab")
	}
	var blob []byte
	switch v {
	case recording.ViewLeft:
		blob = r.left
	case recording.ViewRight:
		blob = r.right
	default:
		return nil, fmt.Errorf("view %v not stored in zrec recordings", v)
	}
	img, err := imaging.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decoding %v view: %w", v, err)
	}
	return img, nil
}

// Timestamp returns the current frame's timestamp in nanoseconds.
func (r *Reader) Timestamp(ref recording.TimeReference) (int64, error) {
	switch ref {
	case recording.TimeImage:
		if !r.grabbed {
			return 0, fmt.Errorf("timestamp before first grab")
		}
		return r.timestampNs, nil
	case recording.TimeCurrent:
		return time.Now().UnixNano(), nil
	}
	return 0, fmt.Errorf("unknown time reference %v", ref)
}

// Calibration returns the rig calibration from the header.
func (r *Reader) Calibration() (*recording.Calibration, error) {
	if r.closed {
		return nil, fmt.Errorf("calibration read after close")
	}
	c := r.header.Calibration
	return &c, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}
