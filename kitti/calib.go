package kitti

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/zedtools/zed2kitti/recording"
)

// ProjectionMatrices derives the 3x4 rectified projection matrices P0
// (left, the reference camera) and P1 (right) from a stereo calibration.
// The left camera carries no translation; the right camera's horizontal
// offset is tx = -fx_left * baseline, per the KITTI convention of a
// positive baseline for a left-reference rig.
func ProjectionMatrices(c *recording.Calibration) (p0, p1 *mat.Dense) {
	tx := -c.Left.Fx * c.BaselineM
	p0 = mat.NewDense(3, 4, []float64{
		c.Left.Fx, 0, c.Left.Cx, 0,
		0, c.Left.Fy, c.Left.Cy, 0,
		0, 0, 1, 0,
	})
	p1 = mat.NewDense(3, 4, []float64{
		c.Right.Fx, 0, c.Right.Cx, tx,
		0, c.Right.Fy, c.Right.Cy, 0,
		0, 0, 1, 0,
	})
	return p0, p1
}

// formatProjection renders one calib.txt line: the label followed by the
// matrix values in row-major order, each with 9 decimal places.
func formatProjection(label string, m mat.Matrix) string {
	rows, cols := m.Dims()
	var b strings.Builder
	b.WriteString(label)
	b.WriteByte(':')
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			fmt.Fprintf(&b, " %.9f", m.At(i, j))
		}
	}
	return b.String()
}
