package zed2kitti_test

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zedtools/zed2kitti"
	"github.com/zedtools/zed2kitti/recording"
)

func frame(ts int64) recording.MockFrame {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	return recording.MockFrame{Left: img, Right: img, TimestampNs: ts}
}

func testMock(n int) *recording.Mock {
	m := &recording.Mock{
		Calib: recording.Calibration{
			Left:      recording.Intrinsics{Fx: 700, Fy: 700, Cx: 320, Cy: 240},
			Right:     recording.Intrinsics{Fx: 700, Fy: 700, Cx: 320, Cy: 240},
			BaselineM: 0.12,
		},
	}
	for i := 0; i < n; i++ {
		m.Frames = append(m.Frames, frame(int64(i)*33_333_333))
	}
	return m
}

func TestConvert(t *testing.T) {
	out := filepath.Join(t.TempDir(), "run1_kitti_dataset")
	res, err := zed2kitti.Convert(testMock(3), out, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Frames != 3 {
		t.Errorf("frames = %d, expected 3", res.Frames)
	}
	if res.OutputDir != out {
		t.Errorf("output dir = %q, expected %q", res.OutputDir, out)
	}

	for _, sub := range []string{"image_0", "image_1"} {
		entries, err := os.ReadDir(filepath.Join(out, sub))
		if err != nil {
			t.Fatalf("reading %s: %v", sub, err)
		}
		if len(entries) != 3 {
			t.Errorf("%s has %d files, expected 3", sub, len(entries))
		}
		if entries[0].Name() != "000000.png" {
			t.Errorf("first frame named %q, expected 000000.png", entries[0].Name())
		}
	}

	times, err := os.ReadFile(filepath.Join(out, "times.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(times), "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("times.txt has %d lines, expected 3", len(lines))
	}
	if lines[1] != "0.033333333" {
		t.Errorf("second timestamp = %q, expected 0.033333333", lines[1])
	}

	calib, err := os.ReadFile(filepath.Join(out, "calib.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(calib), "-84.000000000") {
		t.Errorf("calib.txt missing tx -84.000000000: %q", calib)
	}
}

func TestConvertIdempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	if _, err := zed2kitti.Convert(testMock(2), out, nil); err != nil {
		t.Fatal(err)
	}
	times1, _ := os.ReadFile(filepath.Join(out, "times.txt"))
	calib1, _ := os.ReadFile(filepath.Join(out, "calib.txt"))

	if _, err := zed2kitti.Convert(testMock(2), out, nil); err != nil {
		t.Fatal(err)
	}
	times2, _ := os.ReadFile(filepath.Join(out, "times.txt"))
	calib2, _ := os.ReadFile(filepath.Join(out, "calib.txt"))

	if string(times1) != string(times2) {
		t.Errorf("times.txt differs across identical runs")
	}
	if string(calib1) != string(calib2) {
		t.Errorf("calib.txt differs across identical runs")
	}
}

func TestConvertGrabFailure(t *testing.T) {
	grabErr := errors.New("device reported data corruption")
	m := testMock(5)
	m.GrabErrAt = 2
	m.GrabErr = grabErr

	out := filepath.Join(t.TempDir(), "out")
	res, err := zed2kitti.Convert(m, out, nil)
	if err == nil {
		t.Fatal("expected an error for a mid-stream grab failure")
	}
	if !errors.Is(err, grabErr) {
		t.Errorf("error %v does not wrap the grab error", err)
	}
	if errors.Is(err, recording.ErrExhausted) {
		t.Errorf("grab failure must be distinguishable from end of stream")
	}
	if res == nil || res.Frames != 2 {
		t.Fatalf("result = %+v, expected partial result with 2 frames", res)
	}

	// The partial dataset is kept, calibration included.
	entries, err := os.ReadDir(filepath.Join(out, "image_0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("image_0 has %d files, expected the 2 exported before the failure", len(entries))
	}
	if _, err := os.Stat(filepath.Join(out, "calib.txt")); err != nil {
		t.Errorf("calib.txt missing after grab failure: %v", err)
	}
}

func TestDefaultOutputDir(t *testing.T) {
	cases := []struct{ in, exp string }{
		{"/data/run1.svo", "/data/run1_kitti_dataset"},
		{"/data/run1.zrec", "/data/run1_kitti_dataset"},
		{"run1.mp4", "run1_kitti_dataset"},
		{"run1", "run1_kitti_dataset"},
	}
	for _, c := range cases {
		if got := zed2kitti.DefaultOutputDir(c.in); got != c.exp {
			t.Errorf("DefaultOutputDir(%q) = %q, expected %q", c.in, got, c.exp)
		}
	}
}
