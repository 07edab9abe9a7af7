package placement

import (
	"testing"

	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlacements() []models.Placement {
	return []models.Placement{
		{ID: "p1", DeviceID: "cam_120_wall", X: 10, Y: 20, Orientation: 90, Reason: "entry"},
		{ID: "p2", DeviceID: "sensor_door", X: 50, Y: 5, Reason: "front door"},
		{ID: "p3", DeviceID: "nonexistent", X: 70, Y: 70, Reason: "?"},
	}
}

func TestReplaceAllThenCount(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.Count())

	s.ReplaceAll(samplePlacements())
	assert.Equal(t, 3, s.Count())

	s.ReplaceAll(samplePlacements()[:1])
	assert.Equal(t, 1, s.Count())

	s.ReplaceAll(nil)
	assert.Equal(t, 0, s.Count())
	assert.NotNil(t, s.List())
}

func TestReplaceAllCopiesInput(t *testing.T) {
	in := samplePlacements()
	s := NewStore(in...)
	in[0].X = 99

	p, ok := s.Get("p1")
	require.True(t, ok)
	assert.Equal(t, 10.0, p.X)

	out := s.List()
	out[0].Y = 99
	p, _ = s.Get("p1")
	assert.Equal(t, 20.0, p.Y)
}

func TestRemove(t *testing.T) {
	s := NewStore(samplePlacements()...)

	assert.True(t, s.Remove("p2"))
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []string{"p1", "p3"}, ids(s.List()))

	assert.False(t, s.Remove("missing"))
	assert.Equal(t, 2, s.Count(), "removing unknown id must not change the set")
}

func TestRemoveDropsExactlyOne(t *testing.T) {
	s := NewStore(
		models.Placement{ID: "dup", DeviceID: "sensor_glass"},
		models.Placement{ID: "dup", DeviceID: "sensor_motion"},
	)

	require.True(t, s.Remove("dup"))
	require.Equal(t, 1, s.Count())
	assert.Equal(t, "sensor_motion", s.List()[0].DeviceID)
}

func TestFindDevice(t *testing.T) {
	cat := catalog.Default()
	s := NewStore()

	d, ok := s.FindDevice("cam_360_ceiling", cat)
	require.True(t, ok)
	assert.Equal(t, "OmniView 360 Ceiling Cam", d.Name)

	_, ok = s.FindDevice("nonexistent", cat)
	assert.False(t, ok)

	_, ok = s.FindDevice("cam_360_ceiling", nil)
	assert.False(t, ok)
}

func TestResolveSkipsUnknownDevices(t *testing.T) {
	resolved := Resolve(samplePlacements(), catalog.Default())

	require.Len(t, resolved, 2)
	assert.Equal(t, "p1", resolved[0].Placement.ID)
	assert.Equal(t, "Sentry Wall Cam", resolved[0].Device.Name)
	assert.Equal(t, "p2", resolved[1].Placement.ID)
}

func ids(ps []models.Placement) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
