package repository

import (
	"testing"
	"time"

	"english_tutor_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func (s *RepositorySuite) TestRecordAnswer_StartsLesson() {
	s.unit("u1", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("u2", model.UnitExercise, "A1", []string{"food"}, nil)
	l := s.lesson("student-1", model.PracticeMode(), "u1", "u2")

	perf := NewPerformanceRepository(s.db, DefaultMasteryRules())
	s.Require().NoError(perf.RecordAnswer(s.ctx, &model.PerformanceRecord{
		StudentID: "student-1", LessonID: l.ID, UnitID: "u1", IsCorrect: true,
	}))

	got, err := NewLessonRepository(s.db).FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Equal(model.LessonInProgress, got.Status)

	s.Require().NoError(perf.RecordAnswer(s.ctx, &model.PerformanceRecord{
		StudentID: "student-1", LessonID: l.ID, UnitID: "u2", IsCorrect: false,
	}))
	got, err = NewLessonRepository(s.db).FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Equal(model.LessonInProgress, got.Status)

	var n int64
	s.Require().NoError(s.db.Model(&model.PerformanceRecord{}).Where("lesson_id = ?", l.ID).Count(&n).Error)
	s.EqualValues(2, n)
}

func (s *RepositorySuite) TestMarkUnitsSeen() {
	s.unit("u1", model.UnitExercise, "A1", nil, nil)
	s.unit("u2", model.UnitExercise, "A1", nil, nil)
	l := s.lesson("student-1", model.PracticeMode(), "u1", "u2")

	perf := NewPerformanceRepository(s.db, DefaultMasteryRules())
	s.Require().NoError(perf.MarkUnitsSeen(s.ctx, "student-1", l.ID))

	var recs []model.PerformanceRecord
	s.Require().NoError(s.db.Where("lesson_id = ?", l.ID).Order("id").Find(&recs).Error)
	s.Require().Len(recs, 2)
	for _, r := range recs {
		s.True(r.IsCorrect)
		s.True(r.AutoRecorded)
		s.JSONEq(`{"note":"`+model.CompletionNote+`"}`, string(r.ResponseData))
	}
}

func (s *RepositorySuite) TestRecentlySeenUnits_Window() {
	now := time.Now()
	s.answer("student-1", "l1", "old", true, now.AddDate(0, 0, -20))
	s.answer("student-1", "l1", "recent", false, now.AddDate(0, 0, -3))
	s.answer("student-1", "l1", "recent", true, now.AddDate(0, 0, -2))
	s.answer("student-2", "l2", "someone-else", true, now)

	seen, err := NewPerformanceRepository(s.db, DefaultMasteryRules()).RecentlySeenUnits(s.ctx, "student-1", 14)
	s.Require().NoError(err)
	s.Equal(model.SeenSet{"recent": {}}, seen)
}

func (s *RepositorySuite) TestMasterySummary_Classifies() {
	s.unit("food", model.UnitExercise, "A1", []string{"food"}, nil)
	s.unit("travel", model.UnitExercise, "A1", []string{"travel"}, nil)
	s.unit("music", model.UnitExercise, "A1", []string{"music"}, nil)

	at := func(i int) time.Time { return s.base.Add(time.Duration(i) * time.Minute) }

	// oldest first: F F T T T -> strong
	for i, ok := range []bool{false, false, true, true, true} {
		s.answer("student-1", "l1", "food", ok, at(i))
	}
	// T F F -> weak
	for i, ok := range []bool{true, false, false} {
		s.answer("student-1", "l1", "travel", ok, at(i))
	}
	// T T -> neither
	for i, ok := range []bool{true, true} {
		s.answer("student-1", "l1", "music", ok, at(i))
	}

	summary, err := NewPerformanceRepository(s.db, DefaultMasteryRules()).MasterySummary(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Equal([]string{"travel"}, summary.WeakTopics)
	s.Equal([]string{"food"}, summary.StrongTopics)
}

func (s *RepositorySuite) TestMasterySummary_OnlyRecentWindowCounts() {
	s.unit("art", model.UnitExercise, "A1", []string{"art"}, nil)
	for i := 0; i < 6; i++ {
		s.answer("student-1", "l1", "art", false, s.base.Add(time.Duration(i)*time.Minute))
	}
	for i := 6; i < 11; i++ {
		s.answer("student-1", "l1", "art", true, s.base.Add(time.Duration(i)*time.Minute))
	}

	summary, err := NewPerformanceRepository(s.db, DefaultMasteryRules()).MasterySummary(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Empty(summary.WeakTopics)
	s.Equal([]string{"art"}, summary.StrongTopics)
}

func (s *RepositorySuite) TestMasterySummary_NoHistory() {
	summary, err := NewPerformanceRepository(s.db, DefaultMasteryRules()).MasterySummary(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(summary.WeakTopics)
	s.Empty(summary.StrongTopics)
}

func TestClassify(t *testing.T) {
	rules := DefaultMasteryRules()
	exact := MasteryRules{Window: 5, StrongStreak: 3, Exact: true}

	tests := []struct {
		name    string
		answers []bool // newest first
		rules   MasteryRules
		want    mastery
	}{
		{"more wrong than right", []bool{true, false, false}, rules, masteryWeak},
		{"tie is not weak", []bool{true, false}, rules, masteryNeutral},
		{"streak of three", []bool{true, true, true, false, false}, rules, masteryStrong},
		{"streak of four", []bool{true, true, true, true}, rules, masteryStrong},
		{"streak broken by newest", []bool{false, true, true, true, true}, rules, masteryNeutral},
		{"exact streak of three", []bool{true, true, true, false}, exact, masteryStrong},
		{"exact rejects four", []bool{true, true, true, true}, exact, masteryNeutral},
		{"empty", nil, rules, masteryNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.answers, tt.rules))
		})
	}
}
