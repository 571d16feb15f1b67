package service

import (
	"errors"
	"fmt"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/planner"
	"english_tutor_backend/internal/util"
)

func (s *ServiceSuite) tutor(router *fakeRouter, replier *fakeReplier) *TutorService {
	return NewTutorService(s.lessonSvc, s.convs, s.msgs, router, replier)
}

func (s *ServiceSuite) TestInteract_ButtonNewLesson() {
	s.unit("u1", "food", `{}`)
	s.planner.units = []string{"u1"}
	tutor := s.tutor(&fakeRouter{}, &fakeReplier{})

	resp, err := tutor.Interact(s.ctx, "student-1", Intent{Type: IntentButtonClick, ActionID: ActionGenerateNewLesson})
	s.Require().NoError(err)
	s.Equal(ResponseNewLesson, resp.ResponseType)
	s.Require().NotNil(resp.Content)
	s.Len(resp.Content.LessonItems, 1)
	s.Equal(planner.GeneralTopic, s.planner.calls[0].Topic)

	resp, err = tutor.Interact(s.ctx, "student-1", Intent{Type: IntentButtonClick, ActionID: ActionGenerateNewLesson})
	s.Require().NoError(err)
	s.Equal(ResponseActiveLessonReturned, resp.ResponseType)
}

func (s *ServiceSuite) TestInteract_ButtonExhausted() {
	s.planner.err = planner.ErrExhausted
	tutor := s.tutor(&fakeRouter{}, &fakeReplier{})

	resp, err := tutor.Interact(s.ctx, "student-1", Intent{Type: IntentButtonClick, ActionID: ActionGenerateNewLesson})
	s.Require().NoError(err)
	s.Equal(ResponseError, resp.ResponseType)
	s.Nil(resp.Content)
}

func (s *ServiceSuite) TestInteract_ButtonComplete() {
	s.unit("u1", "food", `{}`)
	s.planner.units = []string{"u1"}
	lesson, _, err := s.lessonSvc.StartPractice(s.ctx, "student-1", "food", "")
	s.Require().NoError(err)
	tutor := s.tutor(&fakeRouter{}, &fakeReplier{})

	_, err = tutor.Interact(s.ctx, "student-1", Intent{Type: IntentButtonClick, ActionID: ActionCompleteCurrentLesson})
	s.ErrorIs(err, util.ErrIntentInvalid)

	resp, err := tutor.Interact(s.ctx, "student-1", Intent{
		Type:     IntentButtonClick,
		ActionID: ActionCompleteCurrentLesson,
		Metadata: map[string]any{"lesson_id": lesson.ID},
	})
	s.Require().NoError(err)
	s.Equal(ResponseTutorFeedback, resp.ResponseType)
	s.Equal("Great job completing the lesson!", resp.MessageToUser)

	active, err := s.lessons.ActiveForStudent(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Nil(active)
}

func (s *ServiceSuite) TestInteract_InvalidIntents() {
	tutor := s.tutor(&fakeRouter{}, &fakeReplier{})
	for _, in := range []Intent{
		{Type: "voice"},
		{Type: IntentButtonClick, ActionID: "dance"},
		{Type: IntentChatMessage, Text: "   "},
	} {
		_, err := tutor.Interact(s.ctx, "student-1", in)
		s.True(errors.Is(err, util.ErrIntentInvalid), "%+v", in)
	}
}

func (s *ServiceSuite) TestInteract_ChatConversation() {
	s.Require().NoError(s.convs.SaveTurn(s.ctx, "student-1", model.RoleUser, "earlier"))
	replier := &fakeReplier{reply: "I'm great, thanks!"}
	tutor := s.tutor(&fakeRouter{route: Route{ToolName: ToolGeneralConversation, TopicTag: planner.GeneralTopic}}, replier)

	resp, err := tutor.Interact(s.ctx, "student-1", Intent{Type: IntentChatMessage, Text: "How are you?"})
	s.Require().NoError(err)
	s.Equal(ResponseTutorFeedback, resp.ResponseType)
	s.Equal("I'm great, thanks!", resp.MessageToUser)

	// 当前消息不重复出现在历史里
	s.Require().Len(replier.history, 1)
	s.Equal("earlier", replier.history[0].Content)

	history, err := tutor.History(s.ctx, "student-1", 0)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(model.RoleUser, history[1].Role)
	s.Equal(model.RoleAI, history[2].Role)
	s.Equal("I'm great, thanks!", history[2].Content)
}

func (s *ServiceSuite) TestInteract_ChatUsesFullHistoryWindow() {
	for i := 1; i <= historyTurns+2; i++ {
		role := model.RoleUser
		if i%2 == 0 {
			role = model.RoleAI
		}
		s.Require().NoError(s.convs.SaveTurn(s.ctx, "student-1", role, fmt.Sprintf("turn %d", i)))
	}
	replier := &fakeReplier{reply: "ok"}
	tutor := s.tutor(&fakeRouter{route: Route{ToolName: ToolGeneralConversation, TopicTag: planner.GeneralTopic}}, replier)

	_, err := tutor.Interact(s.ctx, "student-1", Intent{Type: IntentChatMessage, Text: "latest"})
	s.Require().NoError(err)

	s.Require().Len(replier.history, historyTurns)
	s.Equal("turn 3", replier.history[0].Content)
	s.Equal(fmt.Sprintf("turn %d", historyTurns+2), replier.history[historyTurns-1].Content)
}

func (s *ServiceSuite) TestInteract_ChatPlansLesson() {
	s.unit("u1", "simple-past", `{}`)
	s.planner.units = []string{"u1"}
	tutor := s.tutor(&fakeRouter{route: Route{ToolName: ToolPlanNewLesson, TopicTag: "simple-past"}}, &fakeReplier{})

	resp, err := tutor.Interact(s.ctx, "student-1", Intent{Type: IntentChatMessage, Text: "teach me the simple past"})
	s.Require().NoError(err)
	s.Equal(ResponseNewLesson, resp.ResponseType)
	s.Equal("simple-past", s.planner.calls[0].Topic)
	s.Contains(resp.MessageToUser, "Practice simple-past")
}

func (s *ServiceSuite) TestInteract_ChatExhaustedMessages() {
	s.planner.err = planner.ErrExhausted
	router := &fakeRouter{route: Route{ToolName: ToolPlanNewLesson, TopicTag: "quantum-physics"}}
	tutor := s.tutor(router, &fakeReplier{})

	resp, err := tutor.Interact(s.ctx, "student-1", Intent{Type: IntentChatMessage, Text: "quantum physics please"})
	s.Require().NoError(err)
	s.Equal(ResponseTutorFeedback, resp.ResponseType)
	s.Contains(resp.MessageToUser, "quantum physics")
	s.Contains(resp.MessageToUser, "different topic")

	router.route.TopicTag = planner.GeneralTopic
	resp, err = tutor.Interact(s.ctx, "student-1", Intent{Type: IntentChatMessage, Text: "give me a lesson"})
	s.Require().NoError(err)
	s.Contains(resp.MessageToUser, "try again")
}

func (s *ServiceSuite) TestInteract_RouterFailure() {
	tutor := s.tutor(&fakeRouter{err: errors.New("provider down")}, &fakeReplier{})

	resp, err := tutor.Interact(s.ctx, "student-1", Intent{Type: IntentChatMessage, Text: "hi"})
	s.Require().NoError(err)
	s.Equal(ResponseError, resp.ResponseType)
}

func (s *ServiceSuite) TestTutorMessages() {
	tutor := s.tutor(&fakeRouter{}, &fakeReplier{})

	none, err := tutor.UnreadMessages(s.ctx, "student-1")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)

	msg, err := s.msgs.Create(s.ctx, "student-1", "practice food")
	s.Require().NoError(err)

	s.ErrorIs(tutor.MarkMessageRead(s.ctx, "student-2", msg.ID), util.ErrMessageNotFound)
	s.Require().NoError(tutor.MarkMessageRead(s.ctx, "student-1", msg.ID))

	unread, err := tutor.UnreadMessages(s.ctx, "student-1")
	s.Require().NoError(err)
	s.Empty(unread)
}
