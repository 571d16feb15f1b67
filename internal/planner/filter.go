package planner

import (
	"strings"

	"english_tutor_backend/internal/model"
)

type FilterOptions struct {
	// Level, when set, drops units of any other level.
	Level               string
	ExcludeStrongTopics bool
	StrongTopics        map[string]struct{}
	ExcludeSeen         bool
	Seen                model.SeenSet
}

// Filter returns the units of pool that survive the enabled exclusions.
// The input slice is left untouched.
func Filter(pool []model.LearningUnit, opts FilterOptions) []model.LearningUnit {
	out := make([]model.LearningUnit, 0, len(pool))
	for _, u := range pool {
		if opts.Level != "" && !strings.EqualFold(u.Level, opts.Level) {
			continue
		}
		if opts.ExcludeStrongTopics && u.HasAnyTopic(opts.StrongTopics) {
			continue
		}
		if opts.ExcludeSeen && opts.Seen.Has(u.ID) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Relaxation is one filter-strictness level of the semantic search.
type Relaxation struct {
	Label               string
	Strategy            Strategy
	ExcludeStrongTopics bool
	ExcludeSeen         bool
}

// Relaxations are tried in order until one produces a lesson.
var Relaxations = []Relaxation{
	{Label: "ideal", Strategy: StrategySemanticIdeal, ExcludeStrongTopics: true, ExcludeSeen: true},
	{Label: "reliable", Strategy: StrategySemanticReliable, ExcludeStrongTopics: false, ExcludeSeen: true},
	{Label: "no-fail", Strategy: StrategySemanticNoFail, ExcludeStrongTopics: false, ExcludeSeen: false},
}

func (r Relaxation) options(signals Signals, level string) FilterOptions {
	return FilterOptions{
		Level:               level,
		ExcludeStrongTopics: r.ExcludeStrongTopics,
		StrongTopics:        signals.Mastery.StrongSet(),
		ExcludeSeen:         r.ExcludeSeen,
		Seen:                signals.Seen,
	}
}
