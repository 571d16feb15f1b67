package model

type LessonStatus string

const (
	LessonNotStarted LessonStatus = "not_started"
	LessonInProgress LessonStatus = "in_progress"
	LessonCompleted  LessonStatus = "completed"
)

// ActiveLessonStatuses are the statuses a student may hold at most one lesson in.
var ActiveLessonStatuses = []LessonStatus{LessonNotStarted, LessonInProgress}

type OriginKind string

const (
	OriginPractice  OriginKind = "practice"
	OriginStudyPlan OriginKind = "study_plan"
)

// LessonOrigin tells practice-mode lessons apart from study-plan lessons.
// It is fixed when the lesson is created.
type LessonOrigin struct {
	Kind     OriginKind `gorm:"column:origin_kind;size:16;not null;default:practice" json:"kind"`
	ModuleID *string    `gorm:"column:origin_module_id;type:varchar(36);index" json:"moduleId,omitempty"`
}

func PracticeMode() LessonOrigin {
	return LessonOrigin{Kind: OriginPractice}
}

func StudyPlanModule(moduleID string) LessonOrigin {
	return LessonOrigin{Kind: OriginStudyPlan, ModuleID: &moduleID}
}

func (o LessonOrigin) IsStudyPlan() bool {
	return o.Kind == OriginStudyPlan && o.ModuleID != nil
}

// swagger:model Lesson
type Lesson struct {
	UUIDBase
	StudentID string       `gorm:"type:varchar(36);index;not null" json:"studentId"`
	Title     string       `gorm:"size:255;not null" json:"title"`
	Objective string       `gorm:"type:text" json:"objective"`
	Status    LessonStatus `gorm:"size:16;index;not null;default:not_started" json:"status"`
	Strategy  string       `gorm:"size:32" json:"strategy"`
	Origin    LessonOrigin `gorm:"embedded" json:"origin"`
	Items     []LessonItem `gorm:"foreignKey:LessonID" json:"-"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Units returns the lesson's units in item order. Items must have been
// loaded with their Unit association.
func (l *Lesson) Units() []LearningUnit {
	units := make([]LearningUnit, 0, len(l.Items))
	for _, it := range l.Items {
		units = append(units, it.Unit)
	}
	return units
}

func (l *Lesson) IsActive() bool {
	return l.Status == LessonNotStarted || l.Status == LessonInProgress
}

type LessonItem struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"-"`
	LessonID  string       `gorm:"type:varchar(36);index;not null" json:"lessonId"`
	UnitID    string       `gorm:"type:varchar(36);index;not null" json:"unitId"`
	ItemOrder int          `gorm:"not null" json:"itemOrder"`
	Unit      LearningUnit `gorm:"foreignKey:UnitID" json:"unit"`
}

func (LessonItem) TableName() string {
	return "lesson_items"
}
