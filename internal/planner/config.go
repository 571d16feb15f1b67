package planner

import "english_tutor_backend/internal/config"

// SelectionPolicy decides how a candidate pool is cut down to lesson items.
type SelectionPolicy string

const (
	PolicyUniform  SelectionPolicy = "uniform"
	PolicyBalanced SelectionPolicy = "balanced"
)

// Settings are the funnel's tuning knobs.
type Settings struct {
	MinUnits            int
	ExerciseSampleSize  int
	SemanticSampleSize  int
	SemanticPoolSize    int
	TopicPoolSize       int
	SeenWindowDays      int
	WeaknessProbability float64
	SelectionPolicy     SelectionPolicy
}

func DefaultSettings() Settings {
	return Settings{
		MinUnits:            4,
		ExerciseSampleSize:  5,
		SemanticSampleSize:  6,
		SemanticPoolSize:    50,
		TopicPoolSize:       30,
		SeenWindowDays:      14,
		WeaknessProbability: 0.7,
		SelectionPolicy:     PolicyUniform,
	}
}

// SettingsFromConfig maps the planner section of the application config.
func SettingsFromConfig(cfg config.PlannerConfig) Settings {
	return Settings{
		MinUnits:            cfg.MinUnits,
		ExerciseSampleSize:  cfg.ExerciseSampleSize,
		SemanticSampleSize:  cfg.SemanticSampleSize,
		SemanticPoolSize:    cfg.SemanticPoolSize,
		TopicPoolSize:       cfg.TopicPoolSize,
		SeenWindowDays:      cfg.SeenWindowDays,
		WeaknessProbability: cfg.WeaknessProbability,
		SelectionPolicy:     SelectionPolicy(cfg.SelectionPolicy),
	}.normalize()
}

// normalize fills zero values with defaults and keeps sample sizes at or
// above the minimum, so a successful sample can never be undersized.
func (s Settings) normalize() Settings {
	d := DefaultSettings()
	if s.MinUnits <= 0 {
		s.MinUnits = d.MinUnits
	}
	if s.ExerciseSampleSize < s.MinUnits {
		s.ExerciseSampleSize = max(d.ExerciseSampleSize, s.MinUnits)
	}
	if s.SemanticSampleSize < s.MinUnits {
		s.SemanticSampleSize = max(d.SemanticSampleSize, s.MinUnits)
	}
	if s.SemanticPoolSize <= 0 {
		s.SemanticPoolSize = d.SemanticPoolSize
	}
	if s.TopicPoolSize <= 0 {
		s.TopicPoolSize = d.TopicPoolSize
	}
	if s.SeenWindowDays <= 0 {
		s.SeenWindowDays = d.SeenWindowDays
	}
	if s.WeaknessProbability < 0 || s.WeaknessProbability > 1 {
		s.WeaknessProbability = d.WeaknessProbability
	}
	if s.SelectionPolicy != PolicyBalanced {
		s.SelectionPolicy = PolicyUniform
	}
	return s
}
