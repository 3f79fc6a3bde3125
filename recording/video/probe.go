package video

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Meta is the video metadata needed to interpret the frame stream.
type Meta struct {
	Width   int // full side-by-side width
	Height  int
	FPS     float64
	StartNs int64 // container creation time, 0 when absent
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	Tags map[string]string `json:"tags"`
}

// probe runs ffprobe and extracts the first video stream's metadata.
func probe(path string) (*Meta, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	var p probeOutput
	if err := json.Unmarshal(out, &p); err != nil {
		return nil, fmt.Errorf("decoding ffprobe output: %w", err)
	}
	return parseProbe(&p)
}

func parseProbe(p *probeOutput) (*Meta, error) {
	for _, s := range p.Streams {
		if s.CodecType != "video" {
			continue
		}
		fps, err := parseRate(s.RFrameRate)
		if err != nil {
			return nil, fmt.Errorf("frame rate %q: %w", s.RFrameRate, err)
		}
		m := &Meta{Width: s.Width, Height: s.Height, FPS: fps}
		if ct := p.Format.Tags["creation_time"]; ct != "" {
			if t, err := time.Parse(time.RFC3339Nano, ct); err == nil {
				m.StartNs = t.UnixNano()
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("no video stream found")
}

// parseRate parses an ffprobe rational like "30000/1001", or a plain
// number.
func parseRate(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator")
		}
		return n / d, nil
	}
	return strconv.ParseFloat(s, 64)
}
