package archive

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"testing"

	"secureplan/internal/planner/models"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() models.SavedProject {
	return models.SavedProject{
		Name:       "Office",
		Timestamp:  "20260102030405678",
		Base64Data: "iVBORw0KGgo=",
		Placements: []models.Placement{
			{ID: "p1", DeviceID: "cam_360_ceiling", X: 50, Y: 50, Reason: "lobby"},
		},
		Strategy:     models.StrategyHighestSecurity,
		ChatHistory:  []models.ChatMessage{{Role: models.RoleModel, Text: "done", IsPlacementUpdate: true}},
		AnalysisText: "analysis",
	}
}

func entries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = b
	}
	return out
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestExportContainsProjectAndSnapshot(t *testing.T) {
	p := sampleProject()
	var buf bytes.Buffer

	err := Export(&buf, p, func(models.SavedProject) ([]byte, error) {
		return []byte("png-bytes"), nil
	})
	require.NoError(t, err)

	files := entries(t, buf.Bytes())
	assert.Equal(t, []string{"floorplan_view_20260102030405678.png", "project_20260102030405678.json"}, keys(files))
	assert.Equal(t, []byte("png-bytes"), files["floorplan_view_20260102030405678.png"])

	parsed, err := ParseProject(files["project_20260102030405678.json"])
	require.NoError(t, err)
	assert.Equal(t, p, *parsed)
}

func TestExportWithoutSnapshotOnFailure(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, sampleProject(), func(models.SavedProject) ([]byte, error) {
		return nil, errors.New("render failed")
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"project_20260102030405678.json"}, keys(entries(t, buf.Bytes())))
}

func TestReadArchiveRoundTrip(t *testing.T) {
	want := sampleProject()
	want.Strategy = models.StrategyCostEffective
	want.Placements = append(want.Placements,
		models.Placement{ID: "p2", DeviceID: "cam_120_wall", X: 12.5, Y: 80, Orientation: 270, Reason: "back door"})

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, want, nil))

	p, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, want, *p)
	assert.Equal(t, models.StrategyCostEffective, p.Strategy)
	assert.Equal(t, want.Placements, p.Placements)
}

func TestReadArchiveLimitsProjectSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleProject(), nil))

	_, err := readArchive(buf.Bytes(), 64)
	assert.ErrorIs(t, err, ErrMalformedImport)

	p, err := readArchive(buf.Bytes(), MaxProjectBytes)
	require.NoError(t, err)
	assert.Equal(t, "Office", p.Name)
}

func TestReadArchiveWithoutProject(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Parse(buf.Bytes())
	assert.ErrorIs(t, err, ErrMalformedImport)
}

func TestParseProjectDefaults(t *testing.T) {
	p, err := ParseProject([]byte(`{"timestamp":"T1","base64Data":"AAAA"}`))
	require.NoError(t, err)

	assert.Equal(t, models.StrategyHighestSecurity, p.Strategy)
	assert.NotNil(t, p.Placements)
	assert.NotNil(t, p.ChatHistory)
	assert.Equal(t, "T1", p.DisplayName())
}

func TestParseProjectRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"timestamp":`,
		"array":             `[1,2]`,
		"missing timestamp": `{"base64Data":"AAAA"}`,
		"missing image":     `{"timestamp":"T1"}`,
		"bad base64":        `{"timestamp":"T1","base64Data":"@@@"}`,
		"bad strategy":      `{"timestamp":"T1","base64Data":"AAAA","strategy":"CHEAPEST"}`,
		"bad placements":    `{"timestamp":"T1","base64Data":"AAAA","placements":"none"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProject([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedImport)
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "SecurePlan_123.zip", FileName("123"))
}
