package repository

import (
	"context"
	"errors"
	"fmt"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

// SaveLesson 在一个事务内写入课程及其有序条目
func (r *LessonRepository) SaveLesson(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createLesson(tx, lesson)
	})
}

func createLesson(tx *gorm.DB, lesson *model.Lesson) error {
	if lesson.Status == "" {
		lesson.Status = model.LessonNotStarted
	}
	if lesson.Origin.Kind == "" {
		lesson.Origin = model.PracticeMode()
	}
	if err := tx.Omit(clause.Associations).Create(lesson).Error; err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	if len(lesson.Items) == 0 {
		return nil
	}
	for i := range lesson.Items {
		lesson.Items[i].LessonID = lesson.ID
	}
	if err := tx.Omit(clause.Associations).Create(&lesson.Items).Error; err != nil {
		return fmt.Errorf("create lesson items: %w", err)
	}
	return nil
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("lesson_items.item_order")
		}).
		Preload("Items.Unit.Topics")
}

func (r *LessonRepository) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := withItems(r.DB.WithContext(ctx)).First(&lesson, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindForStudent 只返回属于该学生的课程
func (r *LessonRepository) FindForStudent(ctx context.Context, id, studentID string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := withItems(r.DB.WithContext(ctx)).
		Where("id = ? AND student_id = ?", id, studentID).
		First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ActiveForStudent 返回学生当前未完成的课程，没有时返回 nil, nil
func (r *LessonRepository) ActiveForStudent(ctx context.Context, studentID string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := withItems(r.DB.WithContext(ctx)).
		Where("student_id = ? AND status IN ?", studentID, model.ActiveLessonStatuses).
		Order("created_at DESC").
		First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) UpdateStatus(ctx context.Context, id string, status model.LessonStatus) error {
	res := r.DB.WithContext(ctx).Model(&model.Lesson{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrLessonNotFound
	}
	return nil
}

// Completion 完成课程的写入结果
type Completion struct {
	Completed      bool
	ModuleAdvanced bool
}

// Complete 在一个事务内将课程标记为完成、为每个条目补写"已看过"记录，
// 学习计划课程同时推进模块进度。任一步失败整体回滚，重试会从头执行。
// 已完成的课程返回 Completed=false 且不重复写入。
func (r *LessonRepository) Complete(ctx context.Context, lesson *model.Lesson) (Completion, error) {
	var out Completion
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Lesson{}).
			Where("id = ? AND status <> ?", lesson.ID, model.LessonCompleted).
			Update("status", model.LessonCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := markUnitsSeen(tx, lesson.StudentID, lesson.ID); err != nil {
			return err
		}
		if lesson.Origin.IsStudyPlan() {
			moved, err := advanceModule(tx, lesson.StudentID, *lesson.Origin.ModuleID)
			if err != nil {
				return fmt.Errorf("advance study plan: %w", err)
			}
			out.ModuleAdvanced = moved
		}
		out.Completed = true
		return nil
	})
	if err != nil {
		return Completion{}, err
	}
	if out.Completed {
		lesson.Status = model.LessonCompleted
	}
	return out, nil
}

func markUnitsSeen(tx *gorm.DB, studentID, lessonID string) error {
	var unitIDs []string
	if err := tx.Model(&model.LessonItem{}).
		Where("lesson_id = ?", lessonID).
		Order("item_order").
		Pluck("unit_id", &unitIDs).Error; err != nil {
		return err
	}
	if len(unitIDs) == 0 {
		return nil
	}

	note := datatypes.JSON(fmt.Sprintf(`{"note":%q}`, model.CompletionNote))
	records := make([]model.PerformanceRecord, 0, len(unitIDs))
	for _, id := range unitIDs {
		records = append(records, model.PerformanceRecord{
			StudentID:    studentID,
			LessonID:     lessonID,
			UnitID:       id,
			IsCorrect:    true,
			AutoRecorded: true,
			ResponseData: note,
		})
	}
	return tx.Create(&records).Error
}
