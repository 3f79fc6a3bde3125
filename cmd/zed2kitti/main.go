// Command zed2kitti converts stereo camera recordings into datasets in
// the KITTI odometry layout.
//
// Examples:
//
//	# Convert a recording, output next to the input.
//	zed2kitti recording.zrec
//
//	# Convert a side-by-side stereo video into an explicit directory.
//	zed2kitti -o /data/kitti/run1 recording.mp4
//
//	# Print calibration and frame count.
//	zed2kitti info recording.zrec
//
//	# Convert recordings as they appear in a directory.
//	zed2kitti watch /data/incoming
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zedtools/zed2kitti"
	"github.com/zedtools/zed2kitti/recording"
	"github.com/zedtools/zed2kitti/recording/video"
	"github.com/zedtools/zed2kitti/recording/zrec"
)

var (
	outputDir string
	verbose   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "zed2kitti <recording>",
		Short:        "Convert a stereo recording to a KITTI-layout dataset",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0])
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output_dir", "o", "",
		"output directory (default: <input without extension>_kitti_dataset)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.AddCommand(newInfoCmd(), newWatchCmd())
	return cmd
}

func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openRecording picks a reader by extension: .zrec files use the native
// container, everything else is handed to ffmpeg as side-by-side video.
func openRecording(path string, logger *zap.Logger) (recording.Recording, error) {
	if strings.EqualFold(filepath.Ext(path), zrec.FileExtension) {
		return zrec.Open(path)
	}
	return video.Open(path, &video.Options{Logger: logger})
}

func runConvert(input string) error {
	logger := newLogger()
	defer logger.Sync()

	rec, err := openRecording(input, logger)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer rec.Close()

	out := outputDir
	if out == "" {
		out = zed2kitti.DefaultOutputDir(input)
	}

	res, err := zed2kitti.Convert(rec, out, &zed2kitti.Options{Logger: logger})
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d stereo frames to %s\n", res.Frames, res.OutputDir)
	return nil
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "info <recording>",
		Short:        "Print calibration and frame count of a recording",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}

func runInfo(input string) error {
	logger := newLogger()
	defer logger.Sync()

	rec, err := openRecording(input, logger)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer rec.Close()

	cal, err := rec.Calibration()
	if err != nil {
		return fmt.Errorf("reading calibration: %w", err)
	}
	fmt.Printf("Left:     fx=%.3f fy=%.3f cx=%.3f cy=%.3f\n",
		cal.Left.Fx, cal.Left.Fy, cal.Left.Cx, cal.Left.Cy)
	fmt.Printf("Right:    fx=%.3f fy=%.3f cx=%.3f cy=%.3f\n",
		cal.Right.Fx, cal.Right.Fy, cal.Right.Cx, cal.Right.Cy)
	fmt.Printf("Baseline: %.4f m\n", cal.BaselineM)

	frames := 0
	var firstNs, lastNs int64
	for {
		err := rec.Grab()
		if errors.Is(err, recording.ErrExhausted) {
			break
		}
		if err != nil {
			return fmt.Errorf("grab failed after %d frames: %w", frames, err)
		}
		ts, err := rec.Timestamp(recording.TimeImage)
		if err != nil {
			return err
		}
		if frames == 0 {
			firstNs = ts
		}
		lastNs = ts
		frames++
	}
	fmt.Printf("Frames:   %d\n", frames)
	if frames > 1 {
		fmt.Printf("Duration: %.3f s\n", float64(lastNs-firstNs)*1e-9)
	}
	return nil
}
