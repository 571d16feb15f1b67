package planner

import (
	"context"

	"english_tutor_backend/internal/model"
)

// ContentStore is the read side of the learning-unit catalog.
type ContentStore interface {
	UnitsByTopic(ctx context.Context, topic, level string, types []model.UnitType, limit int) ([]model.LearningUnit, error)
	UnitsByDependency(ctx context.Context, anchorID, level string) ([]model.LearningUnit, error)
	UnitsBySimilarity(ctx context.Context, embedding []float32, level string, limit int) ([]model.LearningUnit, error)
	TopicsForLevel(ctx context.Context, level string) ([]string, error)
}

// StudentSignals exposes what the planner knows about a student's history.
type StudentSignals interface {
	MasterySummary(ctx context.Context, studentID string) (model.MasterySummary, error)
	RecentlySeenUnits(ctx context.Context, studentID string, windowDays int) (model.SeenSet, error)
}

// QueryWriter phrases a semantic search description for a focus topic.
type QueryWriter interface {
	SemanticQuery(ctx context.Context, focusTopic string, weakTopics, strongTopics []string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LessonSink persists a planned lesson together with its ordered items and
// assigns its identifier.
type LessonSink interface {
	SaveLesson(ctx context.Context, lesson *model.Lesson) error
}
