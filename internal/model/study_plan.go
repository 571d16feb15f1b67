package model

import "time"

// StudyModule is one step of a level's study plan.
// swagger:model StudyModule
type StudyModule struct {
	UUIDBase
	Level       string         `gorm:"size:8;index;not null" json:"level"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Order       int            `gorm:"column:module_order;default:0" json:"order"`
	Lessons     []ModuleLesson `gorm:"foreignKey:ModuleID" json:"-"`
}

func (StudyModule) TableName() string {
	return "study_modules"
}

// ModuleLesson is a fixed lesson template inside a module.
type ModuleLesson struct {
	UUIDBase
	ModuleID    string             `gorm:"type:varchar(36);index;not null" json:"moduleId"`
	LessonOrder int                `gorm:"not null" json:"lessonOrder"`
	Title       string             `gorm:"size:255;not null" json:"title"`
	Objective   string             `gorm:"type:text" json:"objective"`
	Items       []ModuleLessonItem `gorm:"foreignKey:ModuleLessonID" json:"-"`
}

func (ModuleLesson) TableName() string {
	return "module_lessons"
}

type ModuleLessonItem struct {
	ID             uint         `gorm:"primaryKey;autoIncrement" json:"-"`
	ModuleLessonID string       `gorm:"type:varchar(36);index;not null" json:"moduleLessonId"`
	UnitID         string       `gorm:"type:varchar(36);not null" json:"unitId"`
	ItemOrder      int          `gorm:"not null" json:"itemOrder"`
	Unit           LearningUnit `gorm:"foreignKey:UnitID" json:"unit"`
}

func (ModuleLessonItem) TableName() string {
	return "module_lesson_items"
}

// ModuleProgress tracks the next lesson a student should take in a module.
type ModuleProgress struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID          string    `gorm:"type:varchar(36);uniqueIndex:idx_student_module;not null" json:"studentId"`
	ModuleID           string    `gorm:"type:varchar(36);uniqueIndex:idx_student_module;not null" json:"moduleId"`
	CurrentLessonOrder int       `gorm:"not null;default:1" json:"currentLessonOrder"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (ModuleProgress) TableName() string {
	return "student_module_progress"
}

// CompletedLessons is the number of module lessons already finished.
func (p *ModuleProgress) CompletedLessons(total int) int {
	done := p.CurrentLessonOrder - 1
	if done < 0 {
		return 0
	}
	if done > total {
		return total
	}
	return done
}
