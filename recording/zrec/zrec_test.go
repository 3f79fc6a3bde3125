package zrec

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/zedtools/zed2kitti/recording"
)

func testHeader() Header {
	return Header{
		Serial: "TEST-42",
		Width:  16,
		Height: 8,
		FPS:    30,
		Calibration: recording.Calibration{
			Left:      recording.Intrinsics{Fx: 700, Fy: 700, Cx: 8, Cy: 4},
			Right:     recording.Intrinsics{Fx: 700, Fy: 700, Cx: 8, Cy: 4},
			BaselineM: 0.12,
		},
	}
}

func writeTestRecording(t *testing.T, stamps []int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zrec")
	w, err := Create(path, testHeader())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for i, ts := range stamps {
		img.SetNRGBA(i, 0, color.NRGBA{R: uint8(i + 1), A: 0xff})
		if err := w.AppendFrame(img, img, ts); err != nil {
			t.Fatalf("append frame %d: %v", i, err)
		}
	}
	if w.FrameCount() != len(stamps) {
		t.Fatalf("writer frame count = %d, expected %d", w.FrameCount(), len(stamps))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return path
}

func TestRoundtrip(t *testing.T) {
	stamps := []int64{100_000_000, 133_333_333, 166_666_666}
	path := writeTestRecording(t, stamps)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if h := r.Header(); h.Serial != "TEST-42" || h.Width != 16 || h.Height != 8 {
		t.Errorf("header = %+v, expected test header", h)
	}
	cal, err := r.Calibration()
	if err != nil {
		t.Fatalf("calibration: %v", err)
	}
	if cal.BaselineM != 0.12 || cal.Left.Fx != 700 {
		t.Errorf("calibration = %+v, expected the written values", cal)
	}

	for i, ts := range stamps {
		if err := r.Grab(); err != nil {
			t.Fatalf("grab %d: %v", i, err)
		}
		got, err := r.Timestamp(recording.TimeImage)
		if err != nil {
			t.Fatalf("timestamp %d: %v", i, err)
		}
		if got != ts {
			t.Errorf("frame %d timestamp = %d, expected %d", i, got, ts)
		}
		for _, v := range []recording.View{recording.ViewLeft, recording.ViewRight} {
			img, err := r.Retrieve(v)
			if err != nil {
				t.Fatalf("retrieve %v of frame %d: %v", v, i, err)
			}
			if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
				t.Errorf("frame %d %v view is %dx%d, expected 16x8", i, v, b.Dx(), b.Dy())
			}
		}
	}

	if err := r.Grab(); !errors.Is(err, recording.ErrExhausted) {
		t.Errorf("grab past end = %v, expected ErrExhausted", err)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.zrec")
	if err := os.WriteFile(path, []byte("not a recording at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected an error opening a non-zrec file")
	}
}

func TestTruncatedRecordIsAnError(t *testing.T) {
	path := writeTestRecording(t, []int64{100, 200})
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// Cut into the middle of the second frame record.
	if err := os.Truncate(path, fi.Size()-10); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if err := r.Grab(); err != nil {
		t.Fatalf("first grab: %v", err)
	}
	err = r.Grab()
	if err == nil {
		t.Fatal("expected an error grabbing a truncated record")
	}
	if errors.Is(err, recording.ErrExhausted) {
		t.Errorf("truncation reported as clean end of stream: %v", err)
	}
}

func TestRetrieveBeforeGrab(t *testing.T) {
	path := writeTestRecording(t, []int64{100})
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Retrieve(recording.ViewLeft); err == nil {
		t.Error("expected an error retrieving before the first grab")
	}
	if _, err := r.Timestamp(recording.TimeImage); err == nil {
		t.Error("expected an error reading a timestamp before the first grab")
	}
}
