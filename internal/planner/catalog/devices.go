package catalog

import "secureplan/internal/planner/models"

// ============================================================
// Default devices
// ============================================================

// Изменение id ломает ранее сохраненные проекты, ссылающиеся на него.
func defaultDevices() []models.DeviceSpec {
	return []models.DeviceSpec{
		{
			ID:    "cam_360_ceiling",
			Name:  "OmniView 360 Ceiling Cam",
			Type:  models.DeviceCamera,
			Color: "#3b82f6",
			Icon:  "M15 12a3 3 0 11-6 0 3 3 0 016 0z M2.458 12C3.732 7.943 7.523 5 12 5c4.478 0 8.268 2.943 9.542 7-1.274 4.057-5.064 7-9.542 7-4.477 0-8.268-2.943-9.542-7z",
			Specs: models.DeviceSpecs{
				Description: "5MP Fisheye, Ceiling Mount, No blind spots.",
				ViewAngle:   360,
				Range:       8,
				MountType:   models.MountCeiling,
				Resolution:  "5MP",
			},
		},
		{
			ID:    "cam_120_wall",
			Name:  "Sentry Wall Cam",
			Type:  models.DeviceCamera,
			Color: "#0ea5e9",
			Icon:  "M15 10l4.553-2.276A1 1 0 0121 8.618v6.764a1 1 0 01-1.447.894L15 14M5 18h8a2 2 0 002-2V8a2 2 0 00-2-2H5a2 2 0 00-2 2v8a2 2 0 002 2z",
			Specs: models.DeviceSpecs{
				Description: "2MP, 120-degree FOV, Night Vision.",
				ViewAngle:   120,
				Range:       12,
				MountType:   models.MountWall,
				Resolution:  "2MP",
			},
			// иконка смотрит вправо
			IconFacingOffset: -90,
		},
		{
			ID:    "sensor_door",
			Name:  "Door/Window Contact",
			Type:  models.DeviceSensor,
			Color: "#f59e0b",
			Icon:  "M4 4h16c1.1 0 2 .9 2 2v12c0 1.1-.9 2-2 2H4c-1.1 0-2-.9-2-2V6c0-1.1.9-2 2-2z M4 6v12h6V6H4z M14 6v12h6V6h-6z M16 12h2",
			Specs: models.DeviceSpecs{
				Description: "Magnetic contact sensor for entry points.",
				MountType:   models.MountSurface,
			},
		},
		{
			ID:    "sensor_motion",
			Name:  "PIR Motion Detector",
			Type:  models.DeviceDetector,
			Color: "#ef4444",
			Icon:  "M12 2a10 10 0 00-7.75 16.36l1.52-1.52a8 8 0 1112.46 0l1.52 1.52A10 10 0 0012 2z M12 6a4 4 0 100 8 4 4 0 000-8z",
			Specs: models.DeviceSpecs{
				Description: "Passive Infrared, ignore pets < 20kg.",
				ViewAngle:   90,
				Range:       10,
				MountType:   models.MountWall,
			},
		},
		{
			ID:    "sensor_glass",
			Name:  "Glass Break Sensor",
			Type:  models.DeviceDetector,
			Color: "#8b5cf6",
			Icon:  "M13 10V3L4 14h7v7l9-11h-7z",
			Specs: models.DeviceSpecs{
				Description: "Acoustic glass break detection.",
				Range:       6,
				MountType:   models.MountCeiling,
			},
		},
	}
}

// Default возвращает стандартный каталог.
func Default() *Catalog {
	c, err := New(defaultDevices())
	if err != nil {
		panic(err) // статический список, не должно случиться
	}
	return c
}
