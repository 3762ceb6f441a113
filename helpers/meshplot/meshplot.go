// Package meshplot draws the edges of 1D and 2D meshes with gonum/plot. It
// is meant for eyeballing source and target meshes before a remap.
package meshplot

import (
	"fmt"
	"io"

	"github.com/soypat/remap/mesh"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot returns a plot of the cell edges of every mesh, one color per mesh.
func Plot(title string, meshes ...mesh.Mesh) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	for k, m := range meshes {
		if m.SpaceDim() > 2 {
			return nil, fmt.Errorf("meshplot: mesh %d has space dimension %d", k, m.SpaceDim())
		}
		for i := 0; i < m.NumCells(); i++ {
			pts, err := edges(mesh.CellOf(m, i))
			if err != nil {
				return nil, err
			}
			l, err := plotter.NewLine(pts)
			if err != nil {
				return nil, err
			}
			l.LineStyle.Color = plotutil.Color(k)
			l.LineStyle.Width = vg.Points(1)
			p.Add(l)
		}
	}
	return p, nil
}

// edges returns the polyline through the nodes of c, closed for 2D cells.
func edges(c mesh.Cell) (plotter.XYs, error) {
	var ids []int
	switch c.Type.Dim() {
	case 1:
		segs, err := c.Segments()
		if err != nil {
			return nil, err
		}
		ids = append(ids, segs[0][0])
		for _, s := range segs {
			ids = append(ids, s[1])
		}
	case 2:
		ring, err := c.Ring()
		if err != nil {
			return nil, err
		}
		ids = append(ring[:len(ring):len(ring)], ring[0])
	default:
		return nil, fmt.Errorf("meshplot: cannot draw %s cell %d", c.Type, c.ID)
	}
	pts := make(plotter.XYs, len(ids))
	for i, id := range ids {
		x := c.Coord(id)
		pts[i].X = x[0]
		if len(x) > 1 {
			pts[i].Y = x[1]
		}
	}
	return pts, nil
}

// WritePNG renders p as a size by size PNG image.
func WritePNG(w io.Writer, p *plot.Plot, size vg.Length) error {
	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
