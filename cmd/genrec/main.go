// Command genrec generates synthetic .zrec stereo recordings, useful for
// testing conversion without camera hardware.
//
// Example:
//
//	genrec -o sample.zrec -n 100 -width 1280 -height 720
package main

import (
	"flag"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/disintegration/imaging"

	"github.com/zedtools/zed2kitti/recording"
	"github.com/zedtools/zed2kitti/recording/zrec"
)

// disparityPx is how far the synthetic target appears shifted between the
// left and right views.
const disparityPx = 12

func main() {
	output := flag.String("o", "sample.zrec", "output path")
	frames := flag.Int("n", 100, "number of frames")
	width := flag.Int("width", 1280, "view width in pixels")
	height := flag.Int("height", 720, "view height in pixels")
	fps := flag.Float64("fps", 30, "nominal frame rate")
	baseline := flag.Float64("baseline", 0.12, "stereo baseline in meters")
	flag.Parse()
	log.SetFlags(0)

	fx := 0.8 * float64(*width)
	intr := recording.Intrinsics{
		Fx: fx,
		Fy: fx,
		Cx: float64(*width) / 2,
		Cy: float64(*height) / 2,
	}
	header := zrec.Header{
		Serial: "SYNTH-0001",
		Width:  *width,
		Height: *height,
		FPS:    *fps,
		Calibration: recording.Calibration{
			Left:      intr,
			Right:     intr,
			BaselineM: *baseline,
		},
	}

	w, err := zrec.Create(*output, header)
	if err != nil {
		log.Fatalf("creating %s: %v", *output, err)
	}

	start := time.Now().UnixNano()
	step := int64(float64(time.Second) / *fps)
	for i := 0; i < *frames; i++ {
		left, right := renderPair(i, *width, *height)
		if err := w.AppendFrame(left, right, start+int64(i)*step); err != nil {
			log.Fatalf("writing frame %d: %v", i, err)
		}
		if (i+1)%10 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}
	if err := w.Close(); err != nil {
		log.Fatalf("closing %s: %v", *output, err)
	}
	log.Printf("wrote %d frames to %s", *frames, *output)
}

// renderPair draws a gradient background with a bright target drifting
// across it. The right view sees the target shifted by a fixed disparity.
func renderPair(n, w, h int) (left, right image.Image) {
	return renderView(n, w, h, 0), renderView(n, w, h, disparityPx)
}

func renderView(n, w, h, shift int) image.Image {
	bg := imaging.New(w, h, color.NRGBA{A: 0xff})
	for y := 0; y < h; y++ {
		v := uint8(255 * y / h)
		for x := 0; x < w; x++ {
			i := bg.PixOffset(x, y)
			bg.Pix[i] = v / 2
			bg.Pix[i+1] = v / 2
			bg.Pix[i+2] = v
		}
	}
	size := h / 8
	target := imaging.New(size, size, color.NRGBA{R: 0xff, G: 0xc8, A: 0xff})
	x := (n*7)%(w-size) - shift
	return imaging.Paste(bg, target, image.Pt(x, (h-size)/2))
}
