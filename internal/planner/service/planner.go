package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"secureplan/internal/planner/ai"
	"secureplan/internal/planner/archive"
	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/models"
	"secureplan/internal/planner/snapshot"

	"github.com/mdobak/go-xerrors"
)

// ============================================================
// Planner
// ============================================================

const (
	msgAnalyzed      = "I have placed devices on the map based on your strategy."
	msgAnalyzeFailed = "Sorry, I encountered an error analyzing the plan. Please check your API key or try again."
	msgRefined       = "I've updated the plan based on your feedback. "
	msgRefineFailed  = "I couldn't process that request. Please try again."
)

// Library хранилище сохраненных проектов.
type Library interface {
	ListAll(ctx context.Context) ([]models.SavedProject, error)
	Get(ctx context.Context, timestamp string) (*models.SavedProject, error)
	Save(ctx context.Context, project models.SavedProject) error
	Delete(ctx context.Context, timestamp string) error
}

type Planner struct {
	sessions  *SessionManager
	gateway   ai.Gateway
	catalog   *catalog.Catalog
	library   Library
	snapshots *snapshot.Renderer

	tsMu   sync.Mutex
	lastTS string
	now    func() time.Time
}

func NewPlanner(sessions *SessionManager, gateway ai.Gateway, cat *catalog.Catalog, library Library, snapshots *snapshot.Renderer) *Planner {
	return &Planner{
		sessions:  sessions,
		gateway:   gateway,
		catalog:   cat,
		library:   library,
		snapshots: snapshots,
		now:       time.Now,
	}
}

func (p *Planner) Catalog() *catalog.Catalog {
	return p.catalog
}

// ============================================================
// Sessions
// ============================================================

// Upload открывает новую сессию для загруженного плана. Расстановка,
// анализ и переписка начинаются с нуля.
func (p *Planner) Upload(data []byte) (View, error) {
	img, err := floorPlanImage(data)
	if err != nil {
		return View{}, err
	}

	s := p.sessions.Issue(img)
	slog.Info("Floor plan uploaded", "session", s.ID, "format", img.MIMEType, "width", img.Width, "height", img.Height)
	return s.view(), nil
}

func (p *Planner) Session(id string) (View, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return View{}, err
	}
	return s.view(), nil
}

func (p *Planner) CloseSession(id string) bool {
	return p.sessions.Close(id)
}

// ============================================================
// AI workflow
// ============================================================

// Analyze запрашивает расстановку для выбранной стратегии. При ошибке
// модели в переписку добавляется сообщение об ошибке, расстановка не
// меняется, а вызывающий получает ai.ErrGateway вместе с видом сессии.
func (p *Planner) Analyze(ctx context.Context, id string, strategy models.Strategy, prompt string) (View, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return View{}, err
	}
	if err := s.begin(); err != nil {
		return s.view(), err
	}
	defer s.end()

	s.mu.Lock()
	s.strategy = strategy
	s.appendChat(models.ChatMessage{
		Role: models.RoleUser,
		Text: fmt.Sprintf("Analyze this floor plan with %s strategy.", strategy),
	})
	img := s.image
	s.mu.Unlock()

	resp, callErr := p.gateway.Analyze(ctx, ai.AnalyzeRequest{Image: img, Strategy: strategy, Prompt: prompt})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if callErr != nil {
		slog.Error("Analyze failed", "session", id, "error", xerrors.New(callErr))
		s.appendChat(models.ChatMessage{Role: models.RoleModel, Text: msgAnalyzeFailed})
		return s.viewLocked(), callErr
	}

	s.store.ReplaceAll(resp.Placements)
	s.analysis = resp.Analysis
	s.appendChat(models.ChatMessage{
		Role:              models.RoleModel,
		Text:              resp.Analysis + "\n\n" + msgAnalyzed,
		IsPlacementUpdate: true,
	})
	return s.viewLocked(), nil
}

// Refine отправляет отзыв пользователя вместе с текущей расстановкой.
// Текст анализа не меняется.
func (p *Planner) Refine(ctx context.Context, id, message string) (View, error) {
	if strings.TrimSpace(message) == "" {
		return View{}, ErrEmptyMessage
	}

	s, err := p.sessions.Resolve(id)
	if err != nil {
		return View{}, err
	}
	if err := s.begin(); err != nil {
		return s.view(), err
	}
	defer s.end()

	s.mu.Lock()
	req := ai.RefineRequest{
		Image:      s.image,
		Placements: s.store.List(),
		History:    s.chatCopy(),
		Message:    message,
	}
	s.appendChat(models.ChatMessage{Role: models.RoleUser, Text: message})
	s.mu.Unlock()

	resp, callErr := p.gateway.Refine(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if callErr != nil {
		slog.Error("Refine failed", "session", id, "error", xerrors.New(callErr))
		s.appendChat(models.ChatMessage{Role: models.RoleModel, Text: msgRefineFailed})
		return s.viewLocked(), callErr
	}

	s.store.ReplaceAll(resp.Placements)
	s.appendChat(models.ChatMessage{
		Role:              models.RoleModel,
		Text:              msgRefined + resp.Analysis,
		IsPlacementUpdate: true,
	})
	return s.viewLocked(), nil
}

// RemovePlacement удаляет установку; неизвестный id ничего не меняет.
func (p *Planner) RemovePlacement(id, placementID string) (View, bool, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return View{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.Remove(placementID)
	return s.viewLocked(), removed, nil
}

// ============================================================
// Persistence
// ============================================================

// Save сохраняет сессию в библиотеку. Повторное сохранение
// сохраненной или загруженной сессии обновляет ту же запись.
func (p *Planner) Save(ctx context.Context, id, name string) (models.ProjectSummary, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return models.ProjectSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.libraryTimestamp
	if ts == "" {
		ts = p.nextTimestamp()
	}
	project := s.projectLocked(ts, name)

	if err := p.library.Save(ctx, project); err != nil {
		return models.ProjectSummary{}, fmt.Errorf("save project %s: %w", ts, err)
	}

	s.libraryTimestamp = project.Timestamp
	s.name = project.Name
	slog.Info("Project saved", "session", id, "timestamp", ts, "placements", len(project.Placements))
	return project.Summary(), nil
}

// Export пишет zip-архив проекта и возвращает имя файла.
func (p *Planner) Export(id, name string, w io.Writer) (string, error) {
	s, err := p.sessions.Resolve(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	project := s.projectLocked(p.nextTimestamp(), name)
	s.mu.Unlock()

	snap := func(project models.SavedProject) ([]byte, error) {
		return p.renderSnapshot(project.Base64Data, project.Placements, SnapshotOptions{ShowCoverage: true})
	}
	if err := archive.Export(w, project, snap); err != nil {
		return "", err
	}
	return archive.FileName(project.Timestamp), nil
}

// Import открывает новую сессию из файла проекта (JSON или zip).
// Ошибка разбора не затрагивает существующие сессии.
func (p *Planner) Import(data []byte) (View, error) {
	project, err := archive.Parse(data)
	if err != nil {
		return View{}, err
	}

	s, err := p.openProject(*project)
	if err != nil {
		return View{}, fmt.Errorf("%w: %v", archive.ErrMalformedImport, err)
	}
	return s.view(), nil
}

// LoadProject открывает новую сессию из записи библиотеки.
func (p *Planner) LoadProject(ctx context.Context, timestamp string) (View, error) {
	project, err := p.library.Get(ctx, timestamp)
	if err != nil {
		return View{}, err
	}

	s, err := p.openProject(*project)
	if err != nil {
		return View{}, err
	}
	return s.view(), nil
}

func (p *Planner) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	projects, err := p.library.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProjectSummary, 0, len(projects))
	for _, pr := range projects {
		out = append(out, pr.Summary())
	}
	return out, nil
}

func (p *Planner) GetProject(ctx context.Context, timestamp string) (*models.SavedProject, error) {
	return p.library.Get(ctx, timestamp)
}

func (p *Planner) DeleteProject(ctx context.Context, timestamp string) error {
	return p.library.Delete(ctx, timestamp)
}

func (p *Planner) openProject(project models.SavedProject) (*Session, error) {
	raw, err := base64.StdEncoding.DecodeString(snapshot.StripDataURI(project.Base64Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", snapshot.ErrInvalidImage, err)
	}
	img, err := floorPlanImage(raw)
	if err != nil {
		return nil, err
	}

	s := p.sessions.Issue(img)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.ReplaceAll(project.Placements)
	s.strategy = project.Strategy
	if s.strategy == "" {
		s.strategy = models.StrategyHighestSecurity
	}
	s.analysis = project.AnalysisText
	s.name = project.Name
	s.libraryTimestamp = project.Timestamp
	s.appendChat(project.ChatHistory...)
	s.appendChat(models.ChatMessage{
		Role: models.RoleModel,
		Text: fmt.Sprintf("*** Project %q Loaded Successfully ***", project.DisplayName()),
	})

	slog.Info("Project opened", "session", s.ID, "timestamp", project.Timestamp, "placements", s.store.Count())
	return s, nil
}

// nextTimestamp выдает строго возрастающие ключи проектов.
func (p *Planner) nextTimestamp() string {
	p.tsMu.Lock()
	defer p.tsMu.Unlock()

	t := p.now()
	ts := models.FormatTimestamp(t)
	for ts <= p.lastTS {
		t = t.Add(time.Millisecond)
		ts = models.FormatTimestamp(t)
	}
	p.lastTS = ts
	return ts
}

func (s *Session) projectLocked(ts, name string) models.SavedProject {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.name
	}
	if name == "" {
		name = "Project " + ts
	}

	return models.SavedProject{
		Name:         name,
		Timestamp:    ts,
		Base64Data:   s.base64Data,
		Placements:   s.store.List(),
		Strategy:     s.strategy,
		ChatHistory:  s.chatCopy(),
		AnalysisText: s.analysis,
	}
}

func floorPlanImage(data []byte) (models.FloorPlanImage, error) {
	w, h, format, err := snapshot.Dimensions(data)
	if err != nil {
		return models.FloorPlanImage{}, err
	}
	return models.FloorPlanImage{
		Data:     data,
		MIMEType: snapshot.MimeType(format),
		Width:    w,
		Height:   h,
	}, nil
}
