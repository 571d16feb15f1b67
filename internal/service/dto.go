package service

import (
	"encoding/json"

	"english_tutor_backend/internal/model"
)

// UnitView 课程条目对外展示结构
type UnitView struct {
	ID       string          `json:"id"`
	UnitCode string          `json:"unit_code,omitempty"`
	Type     model.UnitType  `json:"type"`
	Level    string          `json:"level"`
	Topics   []string        `json:"topics"`
	Content  json.RawMessage `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// LessonView 课程及其有序条目
type LessonView struct {
	LessonID    string             `json:"lesson_id"`
	Title       string             `json:"title"`
	Objective   string             `json:"objective"`
	Status      model.LessonStatus `json:"status"`
	Strategy    string             `json:"strategy,omitempty"`
	Origin      model.LessonOrigin `json:"origin"`
	LessonItems []UnitView         `json:"lesson_items"`
}

func NewLessonView(l *model.Lesson) *LessonView {
	if l == nil {
		return nil
	}
	v := &LessonView{
		LessonID:    l.ID,
		Title:       l.Title,
		Objective:   l.Objective,
		Status:      l.Status,
		Strategy:    l.Strategy,
		Origin:      l.Origin,
		LessonItems: make([]UnitView, 0, len(l.Items)),
	}
	for _, u := range l.Units() {
		v.LessonItems = append(v.LessonItems, newUnitView(u))
	}
	return v
}

func newUnitView(u model.LearningUnit) UnitView {
	content := json.RawMessage(u.Content)
	if len(content) == 0 {
		content = json.RawMessage("{}")
	}
	view := UnitView{
		ID:       u.ID,
		UnitCode: u.UnitCode,
		Type:     u.Type,
		Level:    u.Level,
		Topics:   u.TopicTags(),
		Content:  content,
	}
	if len(u.Metadata) > 0 {
		view.Metadata = json.RawMessage(u.Metadata)
	}
	return view
}

// GradeResult 作答判定结果
type GradeResult struct {
	IsCorrect     bool              `json:"is_correct"`
	CorrectAnswer string            `json:"correct_answer"`
	Feedback      map[string]string `json:"feedback"`
}

// ModuleProgressView 单个模块进度
type ModuleProgressView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Progress    LessonCounter `json:"progress"`
}

type LessonCounter struct {
	CompletedLessons int `json:"completed_lessons"`
	TotalLessons     int `json:"total_lessons"`
}

type OverallProgress struct {
	CompletedModules int `json:"completed_modules"`
	TotalModules     int `json:"total_modules"`
	Percentage       int `json:"percentage"`
}

// StudyPlanProgress 学习计划总览
type StudyPlanProgress struct {
	OverallProgress OverallProgress      `json:"overall_progress"`
	Modules         []ModuleProgressView `json:"modules"`
}

const (
	ModuleNotStarted = "not_started"
	ModuleInProgress = "in_progress"
	ModuleCompleted  = "completed"
)
