package repository

import (
	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"
)

func (s *RepositorySuite) TestHistory_ReturnsLatestOldestFirst() {
	repo := NewConversationRepository(s.db)
	for _, msg := range []string{"one", "two", "three", "four"} {
		s.Require().NoError(repo.SaveTurn(s.ctx, "student-1", model.RoleUser, msg))
	}
	s.Require().NoError(repo.SaveTurn(s.ctx, "student-2", model.RoleUser, "other"))

	turns, err := repo.History(s.ctx, "student-1", 3)
	s.Require().NoError(err)
	s.Require().Len(turns, 3)
	s.Equal("two", turns[0].Content)
	s.Equal("four", turns[2].Content)
}

func (s *RepositorySuite) TestTutorMessages() {
	repo := NewTutorMessageRepository(s.db)
	first, err := repo.Create(s.ctx, "student-1", "first")
	s.Require().NoError(err)
	_, err = repo.Create(s.ctx, "student-1", "second")
	s.Require().NoError(err)

	unread, err := repo.Unread(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Require().Len(unread, 2)
	s.Equal("second", unread[0].MessageContent)

	s.ErrorIs(repo.MarkRead(s.ctx, "student-2", first.ID), util.ErrMessageNotFound)
	s.Require().NoError(repo.MarkRead(s.ctx, "student-1", first.ID))

	unread, err = repo.Unread(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Require().Len(unread, 1)
	s.Equal("second", unread[0].MessageContent)
}
