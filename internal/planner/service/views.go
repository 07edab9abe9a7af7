package service

import (
	"bytes"
	"fmt"

	"secureplan/internal/planner/models"
	"secureplan/internal/planner/overlay"
	"secureplan/internal/planner/snapshot"
)

// ============================================================
// Session views
// ============================================================

type ImageInfo struct {
	MIMEType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type View struct {
	ID               string               `json:"id"`
	Name             string               `json:"name,omitempty"`
	LibraryTimestamp string               `json:"libraryTimestamp,omitempty"`
	Image            ImageInfo            `json:"image"`
	Strategy         models.Strategy      `json:"strategy"`
	Placements       []models.Placement   `json:"placements"`
	PlacementCount   int                  `json:"placementCount"`
	Analysis         string               `json:"analysisText"`
	Chat             []models.ChatMessage `json:"chatHistory"`
	Busy             bool                 `json:"busy"`
}

func (s *Session) view() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	return View{
		ID:               s.ID,
		Name:             s.name,
		LibraryTimestamp: s.libraryTimestamp,
		Image: ImageInfo{
			MIMEType: s.image.MIMEType,
			Width:    s.image.Width,
			Height:   s.image.Height,
		},
		Strategy:       s.strategy,
		Placements:     s.store.List(),
		PlacementCount: s.store.Count(),
		Analysis:       s.analysis,
		Chat:           s.chatCopy(),
		Busy:           s.busy,
	}
}

// ============================================================
// Overlay
// ============================================================

type OverlayOptions struct {
	ShowCoverage bool
	HoveredID    string
	// Width/Height размер области отображения; 0 - размер изображения.
	Width  float64
	Height float64
	// Background встраивает план в SVG.
	Background bool
	ShowCount  bool
}

// Markers раскладка установок для клиента, рисующего план сам.
func (p *Planner) Markers(id string, opts OverlayOptions) ([]overlay.Marker, overlay.Bounds, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return nil, overlay.Bounds{}, err
	}

	s.mu.Lock()
	in := p.overlayInputLocked(s, opts)
	s.mu.Unlock()

	return overlay.Layout(in), in.Bounds, nil
}

// OverlaySVG рисует оверлей (и, по запросу, сам план) в SVG.
func (p *Planner) OverlaySVG(id string, opts OverlayOptions) (string, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	scene := &overlay.Scene{
		Input:          p.overlayInputLocked(s, opts),
		PlacementCount: -1,
	}
	if opts.Background {
		scene.Background = fmt.Sprintf("data:%s;base64,%s", s.image.MIMEType, s.base64Data)
	}
	if opts.ShowCount {
		scene.PlacementCount = s.store.Count()
	}
	s.mu.Unlock()

	return overlay.NewSVGRenderer().Render(scene)
}

func (p *Planner) overlayInputLocked(s *Session, opts OverlayOptions) overlay.Input {
	bounds := overlay.Bounds{Width: opts.Width, Height: opts.Height}
	if bounds.Width <= 0 || bounds.Height <= 0 {
		bounds = overlay.Bounds{Width: float64(s.image.Width), Height: float64(s.image.Height)}
	}
	return overlay.Input{
		Placements:   s.store.List(),
		Catalog:      p.catalog,
		HoveredID:    opts.HoveredID,
		ShowCoverage: opts.ShowCoverage,
		Bounds:       bounds,
	}
}

// ============================================================
// Snapshot
// ============================================================

type SnapshotOptions struct {
	ShowCoverage bool
	HoveredID    string
	MaxWidth     int
}

// Snapshot рисует PNG текущего вида сессии.
func (p *Planner) Snapshot(id string, opts SnapshotOptions) ([]byte, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, placements := s.base64Data, s.store.List()
	s.mu.Unlock()

	return p.renderSnapshot(data, placements, opts)
}

func (p *Planner) renderSnapshot(base64Data string, placements []models.Placement, opts SnapshotOptions) ([]byte, error) {
	if p.snapshots == nil {
		return nil, fmt.Errorf("snapshot renderer is not configured")
	}

	img, err := p.snapshots.Render(base64Data, placements, p.catalog, snapshot.Options{
		MaxWidth:     opts.MaxWidth,
		ShowCoverage: opts.ShowCoverage,
		HoveredID:    opts.HoveredID,
		ShowCount:    len(placements) > 0,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := p.snapshots.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
