package iconpath

import (
	"testing"

	"secureplan/internal/planner/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestParseImplicitLineTo(t *testing.T) {
	subs, err := Parse("M0 0 10 0 10 10z")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.True(t, subs[0].Closed)
	assert.Equal(t, []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, subs[0].Points)
}

func TestParseRelativeCommands(t *testing.T) {
	subs, err := Parse("m1 1l2 0h3v4H0V0")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.Equal(t, []r2.Vec{
		{X: 1, Y: 1},
		{X: 3, Y: 1},
		{X: 6, Y: 1},
		{X: 6, Y: 5},
		{X: 0, Y: 5},
		{X: 0, Y: 0},
	}, subs[0].Points)
	assert.False(t, subs[0].Closed)
}

func TestParseCompactNumbers(t *testing.T) {
	subs, err := Parse("M-1.447.894L1e1-2")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.InDelta(t, -1.447, subs[0].Points[0].X, 1e-12)
	assert.InDelta(t, 0.894, subs[0].Points[0].Y, 1e-12)
	assert.Equal(t, r2.Vec{X: 10, Y: -2}, subs[0].Points[1])
}

func TestParseArcWithCompressedFlags(t *testing.T) {
	subs, err := Parse("M15 12a3 3 0 11-6 0 3 3 0 016 0z")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.True(t, subs[0].Closed)

	center := r2.Vec{X: 12, Y: 12}
	for _, pt := range subs[0].Points {
		assert.InDelta(t, 3, r2.Norm(r2.Sub(pt, center)), 1e-9)
	}

	last := subs[0].Points[len(subs[0].Points)-1]
	assert.Equal(t, r2.Vec{X: 15, Y: 12}, last)
	assert.Greater(t, len(subs[0].Points), 10)
}

func TestParseCurvesEndAtTarget(t *testing.T) {
	subs, err := Parse("M0 0C0 10 10 10 10 0S20 -10 20 0Q25 5 30 0T40 0")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	pts := subs[0].Points
	assert.InDelta(t, 40, pts[len(pts)-1].X, 1e-9)
	assert.InDelta(t, 0, pts[len(pts)-1].Y, 1e-9)
	assert.Len(t, pts, 1+4*curveSegments)
}

func TestParseContinuesAfterClose(t *testing.T) {
	subs, err := Parse("M1 1 L5 1 Z L1 5")
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.True(t, subs[0].Closed)
	assert.Equal(t, []r2.Vec{{X: 1, Y: 1}, {X: 1, Y: 5}}, subs[1].Points)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no command":     "10 10",
		"missing coord":  "M 1",
		"bad flag":       "M0 0 A 1 1 0 2 1 3 3",
		"number after z": "M0 0 L1 1 z 2 2",
		"unknown":        "M0 0 X 1 1",
	}

	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(d)
			assert.Error(t, err)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	subs, err := Parse("  ")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestCatalogIconsFitGrid(t *testing.T) {
	for _, d := range catalog.Default().All() {
		t.Run(d.ID, func(t *testing.T) {
			subs, err := Parse(d.Icon)
			require.NoError(t, err)
			require.NotEmpty(t, subs)

			for _, s := range subs {
				for _, pt := range s.Points {
					assert.True(t, pt.X >= -0.5 && pt.X <= 24.5, "x=%v out of grid", pt.X)
					assert.True(t, pt.Y >= -0.5 && pt.Y <= 24.5, "y=%v out of grid", pt.Y)
				}
			}
		})
	}
}
