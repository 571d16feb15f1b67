package planner

import (
	"slices"

	"english_tutor_backend/internal/model"
)

// GeneralReviewTopic is returned when there is nothing specific to focus on.
const GeneralReviewTopic = "general review of all topics"

type FocusStrategy string

const (
	FocusWeakness      FocusStrategy = "weakness_focus"
	FocusDiscovery     FocusStrategy = "discovery"
	FocusGeneralReview FocusStrategy = "general_review"
)

type Focus struct {
	Topic    string
	Strategy FocusStrategy
}

// SelectFocus picks the topic the next lesson should emphasise.
//
// A weak topic wins with probability p. Otherwise a topic the student has
// not yet been classified on is preferred, then any weak topic, and finally
// the general review sentinel. Inputs are sorted before sampling so that a
// seeded source always yields the same choice.
func SelectFocus(rng Rand, mastery model.MasterySummary, topicsAtLevel []string, p float64) Focus {
	weak := sortedUnique(mastery.WeakTopics)

	if len(weak) > 0 && rng.Float64() < p {
		return Focus{Topic: weak[rng.IntN(len(weak))], Strategy: FocusWeakness}
	}

	classified := mastery.WeakSet()
	for t := range mastery.StrongSet() {
		classified[t] = struct{}{}
	}

	var unpracticed []string
	for _, t := range sortedUnique(topicsAtLevel) {
		if _, ok := classified[t]; !ok {
			unpracticed = append(unpracticed, t)
		}
	}
	if len(unpracticed) > 0 {
		return Focus{Topic: unpracticed[rng.IntN(len(unpracticed))], Strategy: FocusDiscovery}
	}

	if len(weak) > 0 {
		return Focus{Topic: weak[rng.IntN(len(weak))], Strategy: FocusWeakness}
	}

	return Focus{Topic: GeneralReviewTopic, Strategy: FocusGeneralReview}
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
