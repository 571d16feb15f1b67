package repository

import (
	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"
)

func (s *RepositorySuite) module(id, level string, order int, lessons ...[]string) *model.StudyModule {
	m := &model.StudyModule{
		UUIDBase: model.UUIDBase{ID: id},
		Level:    level,
		Title:    "Module " + id,
		Order:    order,
	}
	for _, unitIDs := range lessons {
		ml := model.ModuleLesson{Title: "Lesson", Objective: "objective"}
		for _, u := range unitIDs {
			ml.Items = append(ml.Items, model.ModuleLessonItem{UnitID: u})
		}
		m.Lessons = append(m.Lessons, ml)
	}
	s.Require().NoError(NewStudyPlanRepository(s.db).UpsertModule(s.ctx, m))
	return m
}

func (s *RepositorySuite) TestModulesForLevel_OrderedWithCounts() {
	s.unit("u1", model.UnitExercise, "A1", nil, nil)
	s.module("m2", "A1", 2, []string{"u1"})
	s.module("m1", "A1", 1, []string{"u1"}, []string{"u1"})
	s.module("b1", "B1", 1, []string{"u1"})

	modules, err := NewStudyPlanRepository(s.db).ModulesForLevel(s.ctx, "A1")
	s.Require().NoError(err)
	s.Require().Len(modules, 2)
	s.Equal("m1", modules[0].ID)
	s.Equal(2, modules[0].TotalLessons)
	s.Equal("m2", modules[1].ID)
	s.Equal(1, modules[1].TotalLessons)

	none, err := NewStudyPlanRepository(s.db).ModulesForLevel(s.ctx, "C2")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *RepositorySuite) TestModuleLesson() {
	s.unit("u1", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("u2", model.UnitVocabulary, "A1", []string{"food"}, nil)
	s.module("m1", "A1", 1, []string{"u2", "u1"})

	repo := NewStudyPlanRepository(s.db)
	ml, err := repo.ModuleLesson(s.ctx, "m1", 1)
	s.Require().NoError(err)
	s.Require().Len(ml.Items, 2)
	s.Equal("u2", ml.Items[0].Unit.ID)
	s.Equal("u1", ml.Items[1].Unit.ID)
	s.Equal([]string{"food"}, ml.Items[0].Unit.TopicTags())

	_, err = repo.ModuleLesson(s.ctx, "m1", 2)
	s.ErrorIs(err, util.ErrNoModuleLesson)

	_, err = repo.FindModule(s.ctx, "missing")
	s.ErrorIs(err, util.ErrModuleNotFound)
}

func (s *RepositorySuite) TestUpsertModule_ReplacesLessons() {
	s.unit("u1", model.UnitExercise, "A1", nil, nil)
	s.module("m1", "A1", 1, []string{"u1"}, []string{"u1"}, []string{"u1"})
	s.module("m1", "A1", 1, []string{"u1"})

	n, err := NewStudyPlanRepository(s.db).CountLessons(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(1, n)

	var items int64
	s.Require().NoError(s.db.Model(&model.ModuleLessonItem{}).Count(&items).Error)
	s.EqualValues(1, items)
}

func (s *RepositorySuite) TestProgress_StartsAtFirstLessonAndCapsAdvance() {
	repo := NewStudyPlanRepository(s.db)

	p, err := repo.Progress(s.ctx, "student-1", "m1")
	s.Require().NoError(err)
	s.Equal(1, p.CurrentLessonOrder)

	for i := 0; i < 2; i++ {
		moved, err := repo.Advance(s.ctx, "student-1", "m1", 2)
		s.Require().NoError(err)
		s.True(moved)
	}
	moved, err := repo.Advance(s.ctx, "student-1", "m1", 2)
	s.Require().NoError(err)
	s.False(moved)

	p, err = repo.Progress(s.ctx, "student-1", "m1")
	s.Require().NoError(err)
	s.Equal(3, p.CurrentLessonOrder)
	s.Equal(2, p.CompletedLessons(2))

	all, err := repo.ProgressForStudent(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Len(all, 1)
	s.Equal(3, all["m1"].CurrentLessonOrder)
}

func (s *RepositorySuite) TestActiveModuleIDs() {
	s.unit("u1", model.UnitExercise, "A1", nil, nil)
	s.lesson("student-1", model.StudyPlanModule("m1"), "u1")
	done := s.lesson("student-1", model.StudyPlanModule("m2"), "u1")
	s.lesson("student-1", model.PracticeMode(), "u1")
	s.Require().NoError(NewLessonRepository(s.db).UpdateStatus(s.ctx, done.ID, model.LessonCompleted))

	ids, err := NewStudyPlanRepository(s.db).ActiveModuleIDs(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Equal(map[string]bool{"m1": true}, ids)
}
