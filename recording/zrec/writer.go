package zrec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
)

// Writer appends PNG-encoded frame pairs to a new zrec file.
type Writer struct {
	f     *os.File
	bw    *bufio.Writer
	count int
}

// Create creates a zrec file with the given header. A zero CreatedNs is
// filled in with the current time.
func Create(path string, h Header) (*Writer, error) {
	if h.CreatedNs == 0 {
		h.CreatedNs = time.Now().UnixNano()
	}
	hdr, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: f, bw: bufio.NewWriterSize(f, 1<<16)}
	if _, err := w.bw.Write(magic[:]); err != nil {
		f.Close()
		return nil, err
	}
	if err := binary.Write(w.bw, binary.LittleEndian, uint16(Version)); err != nil {
		f.Close()
		return nil, err
	}
	if err := binary.Write(w.bw, binary.LittleEndian, uint32(len(hdr))); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := w.bw.Write(hdr); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// AppendFrame writes one frame record.
func (w *Writer) AppendFrame(left, right image.Image, timestampNs int64) error {
	if err := binary.Write(w.bw, binary.LittleEndian, timestampNs); err != nil {
		return fmt.Errorf("writing timestamp: %w", err)
	}
	if err := w.writeBlob(left); err != nil {
		return fmt.Errorf("writing left view: %w", err)
	}
	if err := w.writeBlob(right); err != nil {
		return fmt.Errorf("writing right view: %w", err)
	}
	w.count++
	return nil
}

func (w *Writer) writeBlob(img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	if err := binary.Write(w.bw, binary.LittleEndian, uint32(buf.Len())); err != nil {
		return err
	}
	_, err := w.bw.Write(buf.Bytes())
	return err
}

// FrameCount returns the number of frames written so far.
func (w *Writer) FrameCount() int { return w.count }

// Close flushes and closes the file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
