package placement

import (
	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/models"
)

// ============================================================
// Placement Store
// ============================================================

// Store текущий набор установок для активного плана. Порядок - порядок
// последнего ответа AI. Синхронизацию обеспечивает владелец (сессия).
type Store struct {
	items []models.Placement
}

func NewStore(placements ...models.Placement) *Store {
	s := &Store{}
	s.ReplaceAll(placements)
	return s
}

// ReplaceAll полностью заменяет набор (после каждого ответа AI).
func (s *Store) ReplaceAll(placements []models.Placement) {
	items := make([]models.Placement, len(placements))
	copy(items, placements)
	s.items = items
}

// Remove удаляет ровно одну установку с данным id. Отсутствие id - не ошибка.
func (s *Store) Remove(id string) bool {
	for i, p := range s.items {
		if p.ID != id {
			continue
		}
		items := make([]models.Placement, 0, len(s.items)-1)
		items = append(items, s.items[:i]...)
		items = append(items, s.items[i+1:]...)
		s.items = items
		return true
	}
	return false
}

func (s *Store) Count() int {
	return len(s.items)
}

// List возвращает копию текущего набора.
func (s *Store) List() []models.Placement {
	out := make([]models.Placement, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Get(id string) (models.Placement, bool) {
	for _, p := range s.items {
		if p.ID == id {
			return p, true
		}
	}
	return models.Placement{}, false
}

// FindDevice ищет устройство установки в каталоге.
func (s *Store) FindDevice(deviceID string, cat *catalog.Catalog) (models.DeviceSpec, bool) {
	return FindDevice(deviceID, cat)
}

// FindDevice возвращает устройство или false; установки с неизвестным
// устройством молча исключаются из отрисовки.
func FindDevice(deviceID string, cat *catalog.Catalog) (models.DeviceSpec, bool) {
	if cat == nil || deviceID == "" {
		return models.DeviceSpec{}, false
	}
	return cat.Find(deviceID)
}

// Resolved пара установка + устройство.
type Resolved struct {
	Placement models.Placement
	Device    models.DeviceSpec
}

// Resolve возвращает установки с известными устройствами, сохраняя порядок.
func Resolve(placements []models.Placement, cat *catalog.Catalog) []Resolved {
	out := make([]Resolved, 0, len(placements))
	for _, p := range placements {
		device, ok := FindDevice(p.DeviceID, cat)
		if !ok {
			continue
		}
		out = append(out, Resolved{Placement: p, Device: device})
	}
	return out
}
