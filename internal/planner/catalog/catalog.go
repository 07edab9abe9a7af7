package catalog

import (
	"fmt"
	"strings"

	"secureplan/internal/planner/models"
)

// ============================================================
// Device Catalog
// ============================================================

// Catalog неизменяемый справочник устройств. Создается один раз при
// старте и передается зависимостям явно.
type Catalog struct {
	devices []models.DeviceSpec
	byID    map[string]int
}

// New строит каталог, отклоняя пустые и повторяющиеся id.
func New(devices []models.DeviceSpec) (*Catalog, error) {
	c := &Catalog{
		devices: make([]models.DeviceSpec, 0, len(devices)),
		byID:    make(map[string]int, len(devices)),
	}

	for _, d := range devices {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return nil, fmt.Errorf("device with empty id")
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate device id %q", id)
		}
		if d.Specs.ViewAngle < 0 {
			return nil, fmt.Errorf("device %q: negative view angle", id)
		}
		d.ID = id
		c.byID[id] = len(c.devices)
		c.devices = append(c.devices, d)
	}

	return c, nil
}

// Find возвращает устройство по id.
func (c *Catalog) Find(id string) (models.DeviceSpec, bool) {
	if c == nil {
		return models.DeviceSpec{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return models.DeviceSpec{}, false
	}
	return c.devices[idx], true
}

// All возвращает копию списка устройств в порядке объявления.
func (c *Catalog) All() []models.DeviceSpec {
	out := make([]models.DeviceSpec, len(c.devices))
	copy(out, c.devices)
	return out
}

func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.devices))
	for i, d := range c.devices {
		ids[i] = d.ID
	}
	return ids
}

func (c *Catalog) Len() int {
	return len(c.devices)
}
