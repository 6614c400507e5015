// Package visualize renders diagnostic plots for trained torque estimators.
package visualize

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/robodyn/torquefit/pkg/errors"
)

// importanceGrid adapts an importance matrix to plotter.GridXYZ. Columns map
// to features on X, rows to joints on Y.
type importanceGrid struct {
	m mat.Matrix
}

func (g importanceGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g importanceGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g importanceGrid) X(c int) float64    { return float64(c) }
func (g importanceGrid) Y(r int) float64    { return float64(r) }

// ImportanceHeatmap renders a per-joint feature-importance matrix as a PNG
// heatmap with feature names along X and joint labels along Y. The matrix is
// read-only; row j must hold joint j's scores.
func ImportanceHeatmap(importance mat.Matrix, featureNames, jointNames []string, path string) error {
	rows, cols := importance.Dims()
	if len(featureNames) != cols {
		return errors.NewDimensionError("ImportanceHeatmap", cols, len(featureNames), 1)
	}
	if len(jointNames) != rows {
		return errors.NewDimensionError("ImportanceHeatmap", rows, len(jointNames), 0)
	}

	pal := palette.Heat(12, 1)
	hm := plotter.NewHeatMap(importanceGrid{m: importance}, pal)

	p := plot.New()
	p.Title.Text = "Gain importance per joint"
	p.X.Label.Text = "feature"
	p.Y.Label.Text = "joint"
	p.Add(hm)

	xTicks := make([]plot.Tick, cols)
	for i, name := range featureNames {
		xTicks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -1

	yTicks := make([]plot.Tick, rows)
	for i, name := range jointNames {
		yTicks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save heatmap to %s", path)
	}

	return nil
}
