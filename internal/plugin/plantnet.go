package plugin

import (
	"github.com/maelig/identibot/internal/identify"
)

const plantTags = "🪴 #identibot #plantnet"

// PlantnetConfig wires a plant identification plugin.
type PlantnetConfig struct {
	Questions   []string
	Platform    Platform
	Provider    identify.Provider
	MaxHoursOld int
}

// NewPlantnet creates the "Plantnet" plugin: direct policy, the candidate
// post itself carries the subject image.
func NewPlantnet(cfg PlantnetConfig) Identifier {
	return &identPlugin{
		name:        "Plantnet",
		questions:   cfg.Questions,
		platform:    cfg.Platform,
		provider:    cfg.Provider,
		outcome:     NewOutcome(cfg.Platform),
		tags:        plantTags,
		maxHoursOld: cfg.MaxHoursOld,
		ready:       len(cfg.Questions) > 0 && cfg.Platform != nil && cfg.Provider != nil,
	}
}

// NewAskPlantnet creates the "AskPlantnet" plugin: the candidate is a
// mention of the bot and the subject image lives on the mention's parent.
func NewAskPlantnet(cfg PlantnetConfig) Identifier {
	return &identPlugin{
		name:        "AskPlantnet",
		questions:   cfg.Questions,
		platform:    cfg.Platform,
		provider:    cfg.Provider,
		outcome:     NewOutcome(cfg.Platform),
		tags:        plantTags,
		maxHoursOld: cfg.MaxHoursOld,
		mention:     true,
		ready:       len(cfg.Questions) > 0 && cfg.Platform != nil && cfg.Provider != nil,
	}
}
