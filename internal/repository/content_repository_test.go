package repository

import (
	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"
)

func (s *RepositorySuite) TestUnitsByTopic_FiltersLevelTypeAndTopic() {
	s.unit("d1", model.UnitDialogue, "A1", []string{"greetings"}, nil)
	s.unit("r1", model.UnitReadAndAnswer, "A1", []string{"greetings", "simple-present"}, nil)
	s.unit("e1", model.UnitExercise, "A1", []string{"greetings"}, nil)
	s.unit("d2", model.UnitDialogue, "A2", []string{"greetings"}, nil)
	s.unit("d3", model.UnitDialogue, "A1", []string{"travel"}, nil)

	repo := NewContentRepository(s.db)
	units, err := repo.UnitsByTopic(s.ctx, "greetings", "A1", model.AnchorTypes, 30)
	s.Require().NoError(err)
	s.Equal([]string{"d1", "r1"}, ids(units))
	s.ElementsMatch([]string{"greetings", "simple-present"}, units[1].TopicTags())

	limited, err := repo.UnitsByTopic(s.ctx, "greetings", "A1", nil, 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *RepositorySuite) TestUnitsByDependency() {
	s.unit("anchor", model.UnitReadAndAnswer, "A1", []string{"travel"}, nil)
	s.unit("q1", model.UnitExercise, "A1", []string{"travel"}, nil, "anchor")
	s.unit("q2", model.UnitExercise, "A1", []string{"travel"}, nil, "anchor")
	s.unit("q3", model.UnitExercise, "A2", []string{"travel"}, nil, "anchor")
	s.unit("other", model.UnitExercise, "A1", []string{"travel"}, nil)

	units, err := NewContentRepository(s.db).UnitsByDependency(s.ctx, "anchor", "A1")
	s.Require().NoError(err)
	s.Equal([]string{"q1", "q2"}, ids(units))
}

func (s *RepositorySuite) TestUnitsBySimilarity_RanksByCosine() {
	s.unit("near", model.UnitExercise, "A1", []string{"food"}, []float32{1, 0, 0})
	s.unit("mid", model.UnitExercise, "A1", []string{"food"}, []float32{1, 1, 0})
	s.unit("far", model.UnitExercise, "A1", []string{"food"}, []float32{0, 0, 1})
	s.unit("other-level", model.UnitExercise, "B1", []string{"food"}, []float32{1, 0, 0})
	s.unit("no-embedding", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("wrong-dims", model.UnitExercise, "A1", []string{"food"}, []float32{1, 0})

	repo := NewContentRepository(s.db)
	units, err := repo.UnitsBySimilarity(s.ctx, []float32{2, 0, 0}, "A1", 50)
	s.Require().NoError(err)
	s.Equal([]string{"near", "mid", "far"}, ids(units))

	top, err := repo.UnitsBySimilarity(s.ctx, []float32{2, 0, 0}, "A1", 1)
	s.Require().NoError(err)
	s.Equal([]string{"near"}, ids(top))

	_, err = repo.UnitsBySimilarity(s.ctx, nil, "A1", 5)
	s.Error(err)
}

func (s *RepositorySuite) TestTopicsForLevel_CachedUntilUpsert() {
	s.unit("a", model.UnitExercise, "A1", []string{"travel", "food"}, nil)
	s.unit("b", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("c", model.UnitExercise, "B1", []string{"business"}, nil)

	repo := NewContentRepository(s.db)
	topics, err := repo.TopicsForLevel(s.ctx, "A1")
	s.Require().NoError(err)
	s.Equal([]string{"food", "travel"}, topics)

	u := model.LearningUnit{
		UUIDBase: model.UUIDBase{ID: "d"},
		Type:     model.UnitVocabulary,
		Level:    "A1",
		Topics:   []model.UnitTopic{{Topic: "animals"}},
	}
	s.Require().NoError(repo.Upsert(s.ctx, &u))

	topics, err = repo.TopicsForLevel(s.ctx, "A1")
	s.Require().NoError(err)
	s.Equal([]string{"animals", "food", "travel"}, topics)
}

func (s *RepositorySuite) TestUpsert_ReplacesTopics() {
	s.unit("a", model.UnitExercise, "A1", []string{"travel"}, nil)

	repo := NewContentRepository(s.db)
	u := model.LearningUnit{
		UUIDBase: model.UUIDBase{ID: "a"},
		Type:     model.UnitExercise,
		Level:    "A1",
		Topics:   []model.UnitTopic{{Topic: "food"}},
	}
	s.Require().NoError(repo.Upsert(s.ctx, &u))

	got, err := repo.FindByID(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal([]string{"food"}, got.TopicTags())
}

func (s *RepositorySuite) TestFindByID_NotFound() {
	_, err := NewContentRepository(s.db).FindByID(s.ctx, "missing")
	s.ErrorIs(err, util.ErrUnitNotFound)
}
