package planner

import (
	"testing"

	"english_tutor_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestSelectFocus(t *testing.T) {
	mastery := model.MasterySummary{
		WeakTopics:   []string{"travel", "food"},
		StrongTopics: []string{"greetings"},
	}
	level := []string{"greetings", "food", "travel", "weather", "animals"}

	tests := []struct {
		name    string
		rng     *stubRand
		mastery model.MasterySummary
		topics  []string
		want    Focus
	}{
		{
			name:    "weak topic under the threshold",
			rng:     &stubRand{floats: []float64{0.5}, ints: []int{1}},
			mastery: mastery,
			topics:  level,
			want:    Focus{Topic: "travel", Strategy: FocusWeakness},
		},
		{
			name:    "discovery above the threshold",
			rng:     &stubRand{floats: []float64{0.9}, ints: []int{0}},
			mastery: mastery,
			topics:  level,
			want:    Focus{Topic: "animals", Strategy: FocusDiscovery},
		},
		{
			name:    "weak fallback when nothing is unpracticed",
			rng:     &stubRand{floats: []float64{0.9}, ints: []int{0}},
			mastery: mastery,
			topics:  []string{"greetings", "food", "travel"},
			want:    Focus{Topic: "food", Strategy: FocusWeakness},
		},
		{
			name:    "discovery without weak topics",
			rng:     &stubRand{ints: []int{1}},
			mastery: model.MasterySummary{StrongTopics: []string{"food"}},
			topics:  []string{"food", "weather", "animals"},
			want:    Focus{Topic: "weather", Strategy: FocusDiscovery},
		},
		{
			name:    "general review",
			rng:     &stubRand{},
			mastery: model.MasterySummary{StrongTopics: []string{"food"}},
			topics:  []string{"food"},
			want:    Focus{Topic: GeneralReviewTopic, Strategy: FocusGeneralReview},
		},
		{
			name: "empty catalog and history",
			rng:  &stubRand{},
			want: Focus{Topic: GeneralReviewTopic, Strategy: FocusGeneralReview},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectFocus(tt.rng, tt.mastery, tt.topics, 0.7))
		})
	}
}

func TestSelectFocus_WeaknessRate(t *testing.T) {
	rng := NewSeededRand(7, 11)
	mastery := model.MasterySummary{WeakTopics: []string{"food"}}
	topics := []string{"food", "weather"}

	const runs = 10000
	weak := 0
	for i := 0; i < runs; i++ {
		if SelectFocus(rng, mastery, topics, 0.7).Strategy == FocusWeakness {
			weak++
		}
	}
	assert.InDelta(t, 0.7, float64(weak)/runs, 0.03)
}

func TestSelectFocus_DeterministicForSeed(t *testing.T) {
	mastery := model.MasterySummary{WeakTopics: []string{"b", "a", "c"}}
	topics := []string{"z", "y", "x", "a"}

	first := SelectFocus(NewSeededRand(1, 2), mastery, topics, 0.5)
	// same content in a different order
	mastery.WeakTopics = []string{"c", "a", "b"}
	second := SelectFocus(NewSeededRand(1, 2), mastery, []string{"a", "x", "z", "y"}, 0.5)
	assert.Equal(t, first, second)
}
