package plugin

import (
	"github.com/maelig/identibot/internal/identify"
)

const birdTags = "🦅 #identibot #birdid"

// BirdConfig wires a bird identification plugin.
type BirdConfig struct {
	Questions   []string
	Platform    Platform
	Provider    identify.Provider
	MaxHoursOld int
}

// NewBird creates the "Bird" plugin: direct policy.
func NewBird(cfg BirdConfig) Identifier {
	return &identPlugin{
		name:        "Bird",
		questions:   cfg.Questions,
		platform:    cfg.Platform,
		provider:    cfg.Provider,
		outcome:     NewOutcome(cfg.Platform),
		tags:        birdTags,
		maxHoursOld: cfg.MaxHoursOld,
		ready:       len(cfg.Questions) > 0 && cfg.Platform != nil && cfg.Provider != nil,
	}
}

// NewAskBird creates the "AskBird" plugin: mention-indirect policy.
func NewAskBird(cfg BirdConfig) Identifier {
	return &identPlugin{
		name:        "AskBird",
		questions:   cfg.Questions,
		platform:    cfg.Platform,
		provider:    cfg.Provider,
		outcome:     NewOutcome(cfg.Platform),
		tags:        birdTags,
		maxHoursOld: cfg.MaxHoursOld,
		mention:     true,
		ready:       len(cfg.Questions) > 0 && cfg.Platform != nil && cfg.Provider != nil,
	}
}
