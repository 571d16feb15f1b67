package service

import (
	"context"
	"fmt"
	"strings"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/planner"
	"english_tutor_backend/internal/repository"
	"english_tutor_backend/internal/util"
	"english_tutor_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	IntentButtonClick = "button_click"
	IntentChatMessage = "chat_message"

	ActionGenerateNewLesson     = "generate_new_lesson"
	ActionCompleteCurrentLesson = "complete_current_lesson"
)

const (
	ResponseNewLesson            = "new_lesson"
	ResponseActiveLessonReturned = "active_lesson_returned"
	ResponseTutorFeedback        = "tutor_feedback"
	ResponseError                = "error"
)

// historyTurns 路由和对话使用的最近轮数
const historyTurns = 10

// Intent 前端发来的一次交互
type Intent struct {
	Type     string         `json:"type" binding:"required,oneof=button_click chat_message"`
	ActionID string         `json:"action_id,omitempty"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type AIResponse struct {
	ResponseType  string      `json:"response_type"`
	MessageToUser string      `json:"message_to_user"`
	Content       *LessonView `json:"content,omitempty"`
}

type IntentRouter interface {
	Route(ctx context.Context, history []model.ConversationTurn, message string) (Route, error)
}

type ChatReplier interface {
	Reply(ctx context.Context, history []model.ConversationTurn, message string) (string, error)
}

// TutorService 对话式导师入口：按钮动作与自由聊天
type TutorService struct {
	Lessons       *LessonService
	Conversations *repository.ConversationRepository
	Messages      *repository.TutorMessageRepository
	Router        IntentRouter
	Replier       ChatReplier
}

func NewTutorService(
	lessons *LessonService,
	conversations *repository.ConversationRepository,
	messages *repository.TutorMessageRepository,
	router IntentRouter,
	replier ChatReplier,
) *TutorService {
	return &TutorService{
		Lessons:       lessons,
		Conversations: conversations,
		Messages:      messages,
		Router:        router,
		Replier:       replier,
	}
}

func (s *TutorService) Interact(ctx context.Context, studentID string, in Intent) (*AIResponse, error) {
	switch in.Type {
	case IntentButtonClick:
		switch in.ActionID {
		case ActionGenerateNewLesson:
			return s.newLesson(ctx, studentID, planner.GeneralTopic, false)
		case ActionCompleteCurrentLesson:
			return s.completeLesson(ctx, studentID, in.Metadata)
		}
		return nil, fmt.Errorf("%w: unknown action %q", util.ErrIntentInvalid, in.ActionID)
	case IntentChatMessage:
		if strings.TrimSpace(in.Text) == "" {
			return nil, fmt.Errorf("%w: empty chat message", util.ErrIntentInvalid)
		}
		return s.chat(ctx, studentID, in.Text)
	}
	return nil, fmt.Errorf("%w: unknown type %q", util.ErrIntentInvalid, in.Type)
}

// newLesson 聊天触发时规划失败给出友好提示，按钮触发时返回 error 类型响应
func (s *TutorService) newLesson(ctx context.Context, studentID, topic string, fromChat bool) (*AIResponse, error) {
	lesson, existing, err := s.Lessons.StartPractice(ctx, studentID, topic, "")
	if IsExhausted(err) {
		logger.L(ctx).Info("No lesson could be planned",
			zap.String("studentId", studentID),
			zap.String("topic", topic))
		if !fromChat {
			return &AIResponse{
				ResponseType:  ResponseError,
				MessageToUser: "Sorry, I couldn't put a lesson together right now. Please try again in a moment.",
			}, nil
		}
		if topic == planner.GeneralTopic {
			return &AIResponse{
				ResponseType:  ResponseTutorFeedback,
				MessageToUser: "I couldn't put a practice lesson together right now. Please try again.",
			}, nil
		}
		return &AIResponse{
			ResponseType: ResponseTutorFeedback,
			MessageToUser: fmt.Sprintf("I couldn't find enough material about %s at your level. How about trying a different topic?",
				strings.ReplaceAll(topic, "-", " ")),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if existing {
		return &AIResponse{
			ResponseType:  ResponseActiveLessonReturned,
			MessageToUser: "You still have a lesson in progress. Let's finish it first!",
			Content:       NewLessonView(lesson),
		}, nil
	}
	return &AIResponse{
		ResponseType:  ResponseNewLesson,
		MessageToUser: fmt.Sprintf("Here is your new lesson: %s", lesson.Title),
		Content:       NewLessonView(lesson),
	}, nil
}

func (s *TutorService) completeLesson(ctx context.Context, studentID string, meta map[string]any) (*AIResponse, error) {
	lessonID, _ := meta["lesson_id"].(string)
	if lessonID == "" {
		return nil, fmt.Errorf("%w: lesson_id is required", util.ErrIntentInvalid)
	}

	res, err := s.Lessons.Complete(ctx, studentID, lessonID)
	if err != nil {
		return nil, err
	}

	msg := "Great job completing the lesson!"
	switch {
	case res.AlreadyDone:
		msg = "This lesson is already completed."
	case res.TutorMessage != nil:
		msg = res.TutorMessage.MessageContent
	}
	return &AIResponse{ResponseType: ResponseTutorFeedback, MessageToUser: msg}, nil
}

func (s *TutorService) chat(ctx context.Context, studentID, text string) (*AIResponse, error) {
	if err := s.Conversations.SaveTurn(ctx, studentID, model.RoleUser, text); err != nil {
		return nil, fmt.Errorf("save user turn: %w", err)
	}
	// 多取一轮：刚保存的消息单独传给模型，不计入历史
	history, err := s.Conversations.History(ctx, studentID, historyTurns+1)
	if err != nil {
		return nil, err
	}
	if n := len(history); n > 0 && history[n-1].Role == model.RoleUser && history[n-1].Content == text {
		history = history[:n-1]
	}
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	route, err := s.Router.Route(ctx, history, text)
	if err != nil {
		logger.L(ctx).Warn("Topic routing failed",
			zap.String("studentId", studentID),
			zap.Error(err))
		return &AIResponse{
			ResponseType:  ResponseError,
			MessageToUser: "Sorry, I didn't quite get that. Could you say it another way?",
		}, nil
	}

	var resp *AIResponse
	if route.ToolName == ToolPlanNewLesson {
		resp, err = s.newLesson(ctx, studentID, route.TopicTag, true)
		if err != nil {
			return nil, err
		}
	} else {
		reply, err := s.Replier.Reply(ctx, history, text)
		if err != nil {
			return nil, fmt.Errorf("conversation reply: %w", err)
		}
		resp = &AIResponse{ResponseType: ResponseTutorFeedback, MessageToUser: reply}
	}

	if err := s.Conversations.SaveTurn(ctx, studentID, model.RoleAI, resp.MessageToUser); err != nil {
		return nil, fmt.Errorf("save ai turn: %w", err)
	}
	return resp, nil
}

func (s *TutorService) History(ctx context.Context, studentID string, limit int) ([]model.ConversationTurn, error) {
	return s.Conversations.History(ctx, studentID, limit)
}

func (s *TutorService) UnreadMessages(ctx context.Context, studentID string) ([]model.TutorMessage, error) {
	msgs, err := s.Messages.Unread(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.TutorMessage{}
	}
	return msgs, nil
}

func (s *TutorService) MarkMessageRead(ctx context.Context, studentID string, id uint) error {
	return s.Messages.MarkRead(ctx, studentID, id)
}
