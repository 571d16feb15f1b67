package planner

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"english_tutor_backend/internal/model"
)

func mkUnit(id string, typ model.UnitType, level string, topics ...string) model.LearningUnit {
	u := model.LearningUnit{
		UUIDBase: model.UUIDBase{ID: id},
		Type:     typ,
		Level:    level,
		Content:  []byte(`{"title":"Unit ` + id + `"}`),
	}
	for _, t := range topics {
		u.Topics = append(u.Topics, model.UnitTopic{UnitID: id, Topic: t})
	}
	return u
}

func mkUnits(prefix string, n int, typ model.UnitType, level string, topics ...string) []model.LearningUnit {
	out := make([]model.LearningUnit, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, mkUnit(fmt.Sprintf("%s%d", prefix, i), typ, level, topics...))
	}
	return out
}

func unitIDs(units []model.LearningUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out
}

func itemUnitIDs(l *model.Lesson) []string {
	out := make([]string, len(l.Items))
	for i, it := range l.Items {
		out[i] = it.UnitID
	}
	return out
}

type fakeContent struct {
	units      []model.LearningUnit
	deps       map[string][]model.LearningUnit
	similar    []model.LearningUnit
	topics     []string
	topicErr   error
	similarErr error
}

func (f *fakeContent) UnitsByTopic(_ context.Context, topic, level string, types []model.UnitType, limit int) ([]model.LearningUnit, error) {
	if f.topicErr != nil {
		return nil, f.topicErr
	}
	var out []model.LearningUnit
	for _, u := range f.units {
		if u.Level != level || !slices.Contains(u.TopicTags(), topic) {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, u.Type) {
			continue
		}
		out = append(out, u)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeContent) UnitsByDependency(_ context.Context, anchorID, _ string) ([]model.LearningUnit, error) {
	return f.deps[anchorID], nil
}

func (f *fakeContent) UnitsBySimilarity(_ context.Context, _ []float32, _ string, limit int) ([]model.LearningUnit, error) {
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	if limit > 0 && len(f.similar) > limit {
		return f.similar[:limit], nil
	}
	return f.similar, nil
}

func (f *fakeContent) TopicsForLevel(context.Context, string) ([]string, error) {
	return f.topics, nil
}

type fakeSignals struct {
	mastery model.MasterySummary
	seen    model.SeenSet
	err     error
}

func (f *fakeSignals) MasterySummary(context.Context, string) (model.MasterySummary, error) {
	return f.mastery, f.err
}

func (f *fakeSignals) RecentlySeenUnits(context.Context, string, int) (model.SeenSet, error) {
	return f.seen, nil
}

type fakeQueries struct {
	mu     sync.Mutex
	focus  []string
	errors int // number of leading calls that fail
}

func (f *fakeQueries) SemanticQuery(_ context.Context, focusTopic string, _, _ []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focus = append(f.focus, focusTopic)
	if f.errors > 0 {
		f.errors--
		return "", fmt.Errorf("query writer unavailable")
	}
	return "A lesson about " + focusTopic, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type fakeSink struct {
	saved []*model.Lesson
	err   error
}

func (f *fakeSink) SaveLesson(_ context.Context, l *model.Lesson) error {
	if f.err != nil {
		return f.err
	}
	l.ID = fmt.Sprintf("lesson-%d", len(f.saved)+1)
	f.saved = append(f.saved, l)
	return nil
}

// stubRand replays fixed values; IntN falls back to 0 once ints run out.
type stubRand struct {
	floats []float64
	ints   []int
}

func (s *stubRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *stubRand) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}
