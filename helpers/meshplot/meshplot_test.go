package meshplot_test

import (
	"bytes"
	"testing"

	"github.com/soypat/remap/helpers/meshplot"
	"github.com/soypat/remap/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"
	"gonum.org/v1/plot/vg"
)

func render(t *testing.T, meshes ...mesh.Mesh) []byte {
	t.Helper()
	p, err := meshplot.Plot("meshes", meshes...)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, meshplot.WritePNG(&buf, p, 6*vg.Centimeter))
	return buf.Bytes()
}

func TestPlot(t *testing.T) {
	quads, err := mesh.Grid2D("quads", 3, 3, r2.Vec{}, r2.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	defer quads.DecrRef()
	tris, err := mesh.TriGrid2D("tris", 2, 2, r2.Vec{}, r2.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	defer tris.DecrRef()
	line, err := mesh.Grid1D("line", 4, 0, 1)
	require.NoError(t, err)
	defer line.DecrRef()

	a := render(t, quads, tris)
	b := render(t, quads, tris)
	assert.True(t, bytes.HasPrefix(a, []byte("\x89PNG")))
	equal, err := cmpimg.EqualApprox("png", a, b, 0)
	require.NoError(t, err)
	assert.True(t, equal)

	c := render(t, tris, line)
	equal, err = cmpimg.EqualApprox("png", a, c, 0)
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestPlotRejectsVolumes(t *testing.T) {
	cube, err := mesh.Grid3D("cube", 1, 1, 1, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	defer cube.DecrRef()
	_, err = meshplot.Plot("cube", cube)
	assert.Error(t, err)
}
