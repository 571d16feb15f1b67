package service

import (
	"context"
	"fmt"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/repository"
	"english_tutor_backend/internal/util"
	"english_tutor_backend/pkg/locker"
	"english_tutor_backend/pkg/logger"

	"go.uber.org/zap"
)

const studyPlanStrategy = "study_plan"

type StudyPlanService struct {
	StudyPlans   *repository.StudyPlanRepository
	Lessons      *repository.LessonRepository
	Locker       locker.Locker
	DefaultLevel string
}

func NewStudyPlanService(plans *repository.StudyPlanRepository, lessons *repository.LessonRepository, lk locker.Locker, defaultLevel string) *StudyPlanService {
	return &StudyPlanService{StudyPlans: plans, Lessons: lessons, Locker: lk, DefaultLevel: defaultLevel}
}

// Progress 汇总学生在某个级别学习计划中的进度
func (s *StudyPlanService) Progress(ctx context.Context, studentID, level string) (*StudyPlanProgress, error) {
	if level == "" {
		level = s.DefaultLevel
	}
	modules, err := s.StudyPlans.ModulesForLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	progress, err := s.StudyPlans.ProgressForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	active, err := s.StudyPlans.ActiveModuleIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := &StudyPlanProgress{Modules: make([]ModuleProgressView, 0, len(modules))}
	for _, m := range modules {
		completed := 0
		if p, ok := progress[m.ID]; ok {
			completed = p.CompletedLessons(m.TotalLessons)
		}

		status := ModuleNotStarted
		switch {
		case m.TotalLessons > 0 && completed >= m.TotalLessons:
			status = ModuleCompleted
			out.OverallProgress.CompletedModules++
		case completed > 0 || active[m.ID]:
			status = ModuleInProgress
		}

		out.Modules = append(out.Modules, ModuleProgressView{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Status:      status,
			Progress:    LessonCounter{CompletedLessons: completed, TotalLessons: m.TotalLessons},
		})
	}

	out.OverallProgress.TotalModules = len(modules)
	if len(modules) > 0 {
		out.OverallProgress.Percentage = out.OverallProgress.CompletedModules * 100 / len(modules)
	}
	return out, nil
}

// StartModuleLesson 为模块当前课程创建一节课。若该模块已有进行中的课程则直接返回它。
func (s *StudyPlanService) StartModuleLesson(ctx context.Context, studentID, moduleID string) (*model.Lesson, error) {
	release, err := s.Locker.Acquire(ctx, studentLockKey(studentID))
	if err != nil {
		return nil, fmt.Errorf("lock student: %w", err)
	}
	defer release()

	module, err := s.StudyPlans.FindModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	active, err := s.Lessons.ActiveForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if active.Origin.IsStudyPlan() && *active.Origin.ModuleID == moduleID {
			return active, nil
		}
		return nil, util.ErrActiveLessonExists
	}

	progress, err := s.StudyPlans.Progress(ctx, studentID, moduleID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.StudyPlans.ModuleLesson(ctx, moduleID, progress.CurrentLessonOrder)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		StudentID: studentID,
		Title:     tmpl.Title,
		Objective: tmpl.Objective,
		Status:    model.LessonNotStarted,
		Strategy:  studyPlanStrategy,
		Origin:    model.StudyPlanModule(module.ID),
		Items:     make([]model.LessonItem, 0, len(tmpl.Items)),
	}
	for i, it := range tmpl.Items {
		lesson.Items = append(lesson.Items, model.LessonItem{
			UnitID:    it.UnitID,
			ItemOrder: i + 1,
			Unit:      it.Unit,
		})
	}
	if err := s.Lessons.SaveLesson(ctx, lesson); err != nil {
		return nil, fmt.Errorf("save module lesson: %w", err)
	}

	logger.L(ctx).Info("Study plan lesson started",
		zap.String("studentId", studentID),
		zap.String("moduleId", moduleID),
		zap.Int("lessonOrder", tmpl.LessonOrder),
		zap.String("lessonId", lesson.ID))
	return lesson, nil
}
