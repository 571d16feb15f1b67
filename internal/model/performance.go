package model

import (
	"time"

	"gorm.io/datatypes"
)

// PerformanceRecord is one answer event. Rows are append-only.
type PerformanceRecord struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID    string         `gorm:"type:varchar(36);index:idx_perf_student_time;not null" json:"studentId"`
	LessonID     string         `gorm:"type:varchar(36);index;not null" json:"lessonId"`
	UnitID       string         `gorm:"type:varchar(36);index;not null" json:"unitId"`
	IsCorrect    bool           `gorm:"not null" json:"isCorrect"`
	AutoRecorded bool           `gorm:"not null;default:false" json:"autoRecorded"`
	ResponseData datatypes.JSON `json:"responseData"`
	CreatedAt    time.Time      `gorm:"index:idx_perf_student_time" json:"createdAt"`
}

func (PerformanceRecord) TableName() string {
	return "student_performance"
}

// CompletionNote annotates records synthesized when a lesson is completed.
const CompletionNote = "Marked as seen upon lesson completion."

// MasterySummary is the derived, non-persisted weak/strong view of a student.
type MasterySummary struct {
	WeakTopics   []string `json:"weakTopics"`
	StrongTopics []string `json:"strongTopics"`
}

func (m MasterySummary) StrongSet() map[string]struct{} {
	return toSet(m.StrongTopics)
}

func (m MasterySummary) WeakSet() map[string]struct{} {
	return toSet(m.WeakTopics)
}

// SeenSet holds unit ids a student was exposed to inside the trailing window.
type SeenSet map[string]struct{}

func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
