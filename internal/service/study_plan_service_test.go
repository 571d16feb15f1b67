package service

import (
	"errors"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"

	"gorm.io/gorm"
)

func (s *ServiceSuite) TestStudyPlan_Progress_Empty() {
	got, err := s.studyPlans.Progress(s.ctx, "student-1", "C2")
	s.Require().NoError(err)
	s.Empty(got.Modules)
	s.Equal(OverallProgress{}, got.OverallProgress)
}

func (s *ServiceSuite) TestStudyPlan_WalkThroughModule() {
	s.twoLessonModule()

	progress, err := s.studyPlans.Progress(s.ctx, "student-1", "")
	s.Require().NoError(err)
	s.Require().Len(progress.Modules, 1)
	s.Equal(ModuleNotStarted, progress.Modules[0].Status)
	s.Equal(LessonCounter{CompletedLessons: 0, TotalLessons: 2}, progress.Modules[0].Progress)

	first, err := s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.Require().NoError(err)
	s.Equal("Saying hello", first.Title)
	s.Equal(studyPlanStrategy, first.Strategy)
	s.True(first.Origin.IsStudyPlan())
	s.Equal("module-1", *first.Origin.ModuleID)
	s.Equal("m-u1", first.Items[0].UnitID)

	// 同一模块重复开始返回同一节课
	same, err := s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.Require().NoError(err)
	s.Equal(first.ID, same.ID)

	progress, err = s.studyPlans.Progress(s.ctx, "student-1", "A1")
	s.Require().NoError(err)
	s.Equal(ModuleInProgress, progress.Modules[0].Status)

	res, err := s.lessonSvc.Complete(s.ctx, "student-1", first.ID)
	s.Require().NoError(err)
	s.True(res.ModuleAdvance)

	second, err := s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.Require().NoError(err)
	s.Equal("Time of day", second.Title)
	_, err = s.lessonSvc.Complete(s.ctx, "student-1", second.ID)
	s.Require().NoError(err)

	progress, err = s.studyPlans.Progress(s.ctx, "student-1", "A1")
	s.Require().NoError(err)
	s.Equal(ModuleCompleted, progress.Modules[0].Status)
	s.Equal(LessonCounter{CompletedLessons: 2, TotalLessons: 2}, progress.Modules[0].Progress)
	s.Equal(OverallProgress{CompletedModules: 1, TotalModules: 1, Percentage: 100}, progress.OverallProgress)

	_, err = s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.ErrorIs(err, util.ErrNoModuleLesson)
}

func (s *ServiceSuite) TestStudyPlan_ConflictsWithPracticeLesson() {
	s.twoLessonModule()
	s.unit("u1", "food", `{}`)
	s.planner.units = []string{"u1"}

	_, _, err := s.lessonSvc.StartPractice(s.ctx, "student-1", "food", "")
	s.Require().NoError(err)

	_, err = s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.ErrorIs(err, util.ErrActiveLessonExists)
}

func (s *ServiceSuite) TestStudyPlan_StartPracticeReturnsModuleLesson() {
	s.twoLessonModule()

	lesson, err := s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.Require().NoError(err)

	active, existing, err := s.lessonSvc.StartPractice(s.ctx, "student-1", "food", "")
	s.Require().NoError(err)
	s.True(existing)
	s.Equal(lesson.ID, active.ID)
	s.Equal(model.OriginStudyPlan, active.Origin.Kind)
	s.Empty(s.planner.calls)
}

func (s *ServiceSuite) TestStudyPlan_UnknownModule() {
	_, err := s.studyPlans.StartModuleLesson(s.ctx, "student-1", "nope")
	s.ErrorIs(err, util.ErrModuleNotFound)
}

func (s *ServiceSuite) TestStudyPlan_CompleteRetryAdvancesAfterFailure() {
	s.twoLessonModule()

	first, err := s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.Require().NoError(err)

	const name = "test:fail_progress"
	s.Require().NoError(s.db.Callback().Update().Before("gorm:update").Register(name, func(db *gorm.DB) {
		if db.Statement.Table == (model.ModuleProgress{}).TableName() {
			db.AddError(errors.New("transient db error"))
		}
	}))
	_, err = s.lessonSvc.Complete(s.ctx, "student-1", first.ID)
	s.Require().Error(err)
	s.Require().NoError(s.db.Callback().Update().Remove(name))

	res, err := s.lessonSvc.Complete(s.ctx, "student-1", first.ID)
	s.Require().NoError(err)
	s.False(res.AlreadyDone)
	s.True(res.ModuleAdvance)

	next, err := s.studyPlans.StartModuleLesson(s.ctx, "student-1", "module-1")
	s.Require().NoError(err)
	s.Equal("Time of day", next.Title)
}
