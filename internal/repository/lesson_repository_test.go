package repository

import (
	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"
)

func (s *RepositorySuite) TestSaveLesson_PersistsOrderedItems() {
	s.unit("u1", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("u2", model.UnitGrammarRule, "A1", []string{"food"}, nil)
	s.unit("u3", model.UnitVocabulary, "A1", []string{"food"}, nil)

	l := s.lesson("student-1", model.PracticeMode(), "u3", "u1", "u2")
	s.NotEmpty(l.ID)

	repo := NewLessonRepository(s.db)
	got, err := repo.FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Equal(model.LessonNotStarted, got.Status)
	s.Equal(model.OriginPractice, got.Origin.Kind)
	s.Nil(got.Origin.ModuleID)
	s.Equal([]string{"u3", "u1", "u2"}, ids(got.Units()))
	s.Equal([]string{"food"}, got.Items[0].Unit.TopicTags())
}

func (s *RepositorySuite) TestSaveLesson_StudyPlanOrigin() {
	s.unit("u1", model.UnitExercise, "A1", nil, nil)
	l := s.lesson("student-1", model.StudyPlanModule("module-9"), "u1")

	got, err := NewLessonRepository(s.db).FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.True(got.Origin.IsStudyPlan())
	s.Equal("module-9", *got.Origin.ModuleID)
}

func (s *RepositorySuite) TestFindForStudent_RejectsOtherStudents() {
	s.unit("u1", model.UnitExercise, "A1", nil, nil)
	l := s.lesson("student-1", model.PracticeMode(), "u1")

	repo := NewLessonRepository(s.db)
	_, err := repo.FindForStudent(s.ctx, l.ID, "student-2")
	s.ErrorIs(err, util.ErrLessonNotFound)

	got, err := repo.FindForStudent(s.ctx, l.ID, "student-1")
	s.Require().NoError(err)
	s.Equal(l.ID, got.ID)
}

func (s *RepositorySuite) TestActiveForStudent() {
	s.unit("u1", model.UnitExercise, "A1", nil, nil)
	repo := NewLessonRepository(s.db)

	none, err := repo.ActiveForStudent(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Nil(none)

	l := s.lesson("student-1", model.PracticeMode(), "u1")
	active, err := repo.ActiveForStudent(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(l.ID, active.ID)

	s.Require().NoError(repo.UpdateStatus(s.ctx, l.ID, model.LessonInProgress))
	active, err = repo.ActiveForStudent(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(model.LessonInProgress, active.Status)

	s.Require().NoError(repo.UpdateStatus(s.ctx, l.ID, model.LessonCompleted))
	none, err = repo.ActiveForStudent(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Nil(none)

	s.ErrorIs(repo.UpdateStatus(s.ctx, "missing", model.LessonCompleted), util.ErrLessonNotFound)
}

func (s *RepositorySuite) TestComplete_SeedsRecencyOnce() {
	s.unit("u1", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("u2", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("u3", model.UnitExercise, "A1", []string{"food"}, nil)
	l := s.lesson("student-1", model.PracticeMode(), "u1", "u2", "u3")

	lessons := NewLessonRepository(s.db)
	perf := NewPerformanceRepository(s.db, DefaultMasteryRules())

	// one real answer before completion
	s.Require().NoError(perf.RecordAnswer(s.ctx, &model.PerformanceRecord{
		StudentID: "student-1", LessonID: l.ID, UnitID: "u1", IsCorrect: false,
	}))

	done, err := lessons.Complete(s.ctx, l)
	s.Require().NoError(err)
	s.True(done.Completed)
	s.False(done.ModuleAdvanced)
	s.Equal(model.LessonCompleted, l.Status)

	seen, err := perf.RecentlySeenUnits(s.ctx, "student-1", 14)
	s.Require().NoError(err)
	for _, id := range []string{"u1", "u2", "u3"} {
		s.True(seen.Has(id), id)
	}

	var auto int64
	s.Require().NoError(s.db.Model(&model.PerformanceRecord{}).
		Where("lesson_id = ? AND auto_recorded = ?", l.ID, true).Count(&auto).Error)
	s.EqualValues(3, auto)

	again, err := lessons.Complete(s.ctx, l)
	s.Require().NoError(err)
	s.False(again.Completed)
	s.Require().NoError(s.db.Model(&model.PerformanceRecord{}).
		Where("lesson_id = ? AND auto_recorded = ?", l.ID, true).Count(&auto).Error)
	s.EqualValues(3, auto)

	// completion records do not count towards mastery
	summary, err := perf.MasterySummary(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Equal([]string{"food"}, summary.WeakTopics)
	s.Empty(summary.StrongTopics)
}

func (s *RepositorySuite) TestComplete_AdvancesModuleInSameTransaction() {
	s.unit("u1", model.UnitExercise, "A1", []string{"greetings"}, nil)
	s.module("m1", "A1", 1, []string{"u1"}, []string{"u1"})
	l := s.lesson("student-1", model.StudyPlanModule("m1"), "u1")

	lessons := NewLessonRepository(s.db)
	plans := NewStudyPlanRepository(s.db)

	restore := s.failUpdates(model.ModuleProgress{}.TableName())
	_, err := lessons.Complete(s.ctx, l)
	s.Require().Error(err)
	restore()

	// 推进失败时课程状态和已看过记录一起回滚
	got, err := lessons.FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Equal(model.LessonNotStarted, got.Status)
	var auto int64
	s.Require().NoError(s.db.Model(&model.PerformanceRecord{}).
		Where("lesson_id = ? AND auto_recorded = ?", l.ID, true).Count(&auto).Error)
	s.Zero(auto)

	done, err := lessons.Complete(s.ctx, got)
	s.Require().NoError(err)
	s.True(done.Completed)
	s.True(done.ModuleAdvanced)

	p, err := plans.Progress(s.ctx, "student-1", "m1")
	s.Require().NoError(err)
	s.Equal(2, p.CurrentLessonOrder)
}
