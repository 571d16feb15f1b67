package repository

import (
	"context"
	"sort"
	"time"

	"english_tutor_backend/internal/model"

	"gorm.io/gorm"
)

// MasteryRules 主题掌握度判定规则
type MasteryRules struct {
	Window       int
	StrongStreak int
	// Exact 为 true 时要求连续答对次数恰好等于 StrongStreak
	Exact bool
}

func DefaultMasteryRules() MasteryRules {
	return MasteryRules{Window: 5, StrongStreak: 3}
}

type PerformanceRepository struct {
	DB    *gorm.DB
	rules MasteryRules
	now   func() time.Time
}

func NewPerformanceRepository(db *gorm.DB, rules MasteryRules) *PerformanceRepository {
	if rules.Window <= 0 {
		rules.Window = DefaultMasteryRules().Window
	}
	if rules.StrongStreak <= 0 {
		rules.StrongStreak = DefaultMasteryRules().StrongStreak
	}
	return &PerformanceRepository{DB: db, rules: rules, now: time.Now}
}

// RecordAnswer 追加一条作答记录；课程首次作答时状态从 not_started 变为 in_progress
func (r *PerformanceRepository) RecordAnswer(ctx context.Context, rec *model.PerformanceRecord) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Lesson{}).
			Where("id = ? AND status = ?", rec.LessonID, model.LessonNotStarted).
			Update("status", model.LessonInProgress).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

// MarkUnitsSeen 为课程的每个条目补写一条已看过记录
func (r *PerformanceRepository) MarkUnitsSeen(ctx context.Context, studentID, lessonID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return markUnitsSeen(tx, studentID, lessonID)
	})
}

func (r *PerformanceRepository) RecentlySeenUnits(ctx context.Context, studentID string, windowDays int) (model.SeenSet, error) {
	since := r.now().AddDate(0, 0, -windowDays)

	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&model.PerformanceRecord{}).
		Distinct("unit_id").
		Where("student_id = ? AND created_at >= ?", studentID, since).
		Pluck("unit_id", &ids).Error
	if err != nil {
		return nil, err
	}

	seen := make(model.SeenSet, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

type topicAnswer struct {
	Topic     string
	IsCorrect bool
}

// MasterySummary 按主题统计最近 Window 次真实作答：
// 错多于对为弱项，否则末尾连续答对达到阈值为强项。
// 课程完成时自动补写的记录不参与统计。
func (r *PerformanceRepository) MasterySummary(ctx context.Context, studentID string) (model.MasterySummary, error) {
	var rows []topicAnswer
	err := r.DB.WithContext(ctx).
		Table("student_performance").
		Select("unit_topics.topic AS topic, student_performance.is_correct AS is_correct").
		Joins("JOIN unit_topics ON unit_topics.unit_id = student_performance.unit_id").
		Where("student_performance.student_id = ? AND student_performance.auto_recorded = ?", studentID, false).
		Order("student_performance.created_at DESC, student_performance.id DESC").
		Scan(&rows).Error
	if err != nil {
		return model.MasterySummary{}, err
	}

	recent := make(map[string][]bool)
	for _, row := range rows {
		if len(recent[row.Topic]) < r.rules.Window {
			recent[row.Topic] = append(recent[row.Topic], row.IsCorrect)
		}
	}

	summary := model.MasterySummary{WeakTopics: []string{}, StrongTopics: []string{}}
	for topic, answers := range recent {
		switch classify(answers, r.rules) {
		case masteryWeak:
			summary.WeakTopics = append(summary.WeakTopics, topic)
		case masteryStrong:
			summary.StrongTopics = append(summary.StrongTopics, topic)
		}
	}
	sort.Strings(summary.WeakTopics)
	sort.Strings(summary.StrongTopics)
	return summary, nil
}

type mastery int

const (
	masteryNeutral mastery = iota
	masteryWeak
	masteryStrong
)

// classify expects answers newest first.
func classify(answers []bool, rules MasteryRules) mastery {
	var correct, wrong int
	for _, ok := range answers {
		if ok {
			correct++
		} else {
			wrong++
		}
	}
	if wrong > correct {
		return masteryWeak
	}

	streak := 0
	for _, ok := range answers {
		if !ok {
			break
		}
		streak++
	}
	if rules.Exact {
		if streak == rules.StrongStreak {
			return masteryStrong
		}
	} else if streak >= rules.StrongStreak {
		return masteryStrong
	}
	return masteryNeutral
}
