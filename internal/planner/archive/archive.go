package archive

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"secureplan/internal/planner/models"
	"secureplan/internal/planner/snapshot"

	"github.com/klauspost/compress/zip"
	"github.com/mdobak/go-xerrors"
)

// ============================================================
// Project Archive
// ============================================================

var ErrMalformedImport = errors.New("malformed project file")

// MaxProjectBytes предел распакованного project_*.json в архиве.
const MaxProjectBytes = 32 << 20

// Snapshotter рисует PNG плана с установками для архива.
type Snapshotter func(project models.SavedProject) ([]byte, error)

func FileName(timestamp string) string {
	return "SecurePlan_" + timestamp + ".zip"
}

func projectEntry(timestamp string) string {
	return "project_" + timestamp + ".json"
}

func snapshotEntry(timestamp string) string {
	return "floorplan_view_" + timestamp + ".png"
}

// Export пишет zip с JSON проекта и снимком плана. Если снимок не
// получился, архив содержит только JSON.
func Export(w io.Writer, project models.SavedProject, snap Snapshotter) error {
	payload, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	zw := zip.NewWriter(w)

	f, err := zw.Create(projectEntry(project.Timestamp))
	if err != nil {
		return fmt.Errorf("create project entry: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("write project entry: %w", err)
	}

	if snap != nil {
		png, err := snap(project)
		if err != nil {
			slog.Warn("Snapshot failed, exporting project without image",
				"timestamp", project.Timestamp,
				"error", xerrors.New(err),
			)
		} else {
			f, err := zw.Create(snapshotEntry(project.Timestamp))
			if err != nil {
				return fmt.Errorf("create snapshot entry: %w", err)
			}
			if _, err := f.Write(png); err != nil {
				return fmt.Errorf("write snapshot entry: %w", err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

// ============================================================
// Import
// ============================================================

// ParseProject разбирает JSON проекта и проверяет обязательные поля.
func ParseProject(data []byte) (*models.SavedProject, error) {
	var p models.SavedProject
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	if strings.TrimSpace(p.Timestamp) == "" {
		return nil, fmt.Errorf("%w: timestamp is missing", ErrMalformedImport)
	}
	if strings.TrimSpace(p.Base64Data) == "" {
		return nil, fmt.Errorf("%w: base64Data is missing", ErrMalformedImport)
	}
	if _, err := base64.StdEncoding.DecodeString(snapshot.StripDataURI(p.Base64Data)); err != nil {
		return nil, fmt.Errorf("%w: base64Data: %v", ErrMalformedImport, err)
	}

	strategy, err := models.ParseStrategy(string(p.Strategy))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	p.Strategy = strategy

	if p.Placements == nil {
		p.Placements = []models.Placement{}
	}
	if p.ChatHistory == nil {
		p.ChatHistory = []models.ChatMessage{}
	}

	return &p, nil
}

// ReadArchive достает проект из ранее экспортированного zip.
func ReadArchive(data []byte) (*models.SavedProject, error) {
	return readArchive(data, MaxProjectBytes)
}

func readArchive(data []byte, limit int64) (*models.SavedProject, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	for _, f := range zr.File {
		name := path.Base(f.Name)
		if !strings.HasPrefix(name, "project_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		payload, err := io.ReadAll(io.LimitReader(rc, limit+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		if int64(len(payload)) > limit {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrMalformedImport, name, limit)
		}
		return ParseProject(payload)
	}

	return nil, fmt.Errorf("%w: archive has no project file", ErrMalformedImport)
}

// Parse принимает JSON проекта или экспортированный zip.
func Parse(data []byte) (*models.SavedProject, error) {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return ReadArchive(data)
	}
	return ParseProject(data)
}
