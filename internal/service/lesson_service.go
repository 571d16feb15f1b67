package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/planner"
	"english_tutor_backend/internal/repository"
	"english_tutor_backend/internal/util"
	"english_tutor_backend/pkg/locker"
	"english_tutor_backend/pkg/logger"
	"english_tutor_backend/pkg/monitoring"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// LessonPlanner 课程规划入口，由 planner.Planner 实现
type LessonPlanner interface {
	PlanLesson(ctx context.Context, req planner.Request) (*model.Lesson, error)
}

type LessonService struct {
	Planner      LessonPlanner
	Lessons      *repository.LessonRepository
	Content      *repository.ContentRepository
	Performance  *repository.PerformanceRepository
	Messages     *repository.TutorMessageRepository
	Locker       locker.Locker
	DefaultLevel string
}

func NewLessonService(
	p LessonPlanner,
	lessons *repository.LessonRepository,
	content *repository.ContentRepository,
	perf *repository.PerformanceRepository,
	messages *repository.TutorMessageRepository,
	lk locker.Locker,
	defaultLevel string,
) *LessonService {
	return &LessonService{
		Planner:      p,
		Lessons:      lessons,
		Content:      content,
		Performance:  perf,
		Messages:     messages,
		Locker:       lk,
		DefaultLevel: defaultLevel,
	}
}

func studentLockKey(studentID string) string {
	return "student:" + studentID
}

// StartPractice 返回学生当前未完成的课程；没有时规划一节新课。
// 第二个返回值表示返回的是已有课程。
func (s *LessonService) StartPractice(ctx context.Context, studentID, topic, level string) (*model.Lesson, bool, error) {
	release, err := s.Locker.Acquire(ctx, studentLockKey(studentID))
	if err != nil {
		return nil, false, fmt.Errorf("lock student: %w", err)
	}
	defer release()

	active, err := s.Lessons.ActiveForStudent(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if active != nil {
		return active, true, nil
	}

	if level == "" {
		level = s.DefaultLevel
	}
	lesson, err := s.Planner.PlanLesson(ctx, planner.Request{
		StudentID: studentID,
		Topic:     NormalizeTopic(topic),
		Level:     level,
	})
	if err != nil {
		return nil, false, err
	}
	return lesson, false, nil
}

func (s *LessonService) ActiveLesson(ctx context.Context, studentID string) (*model.Lesson, error) {
	lesson, err := s.Lessons.ActiveForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, util.ErrLessonNotFound
	}
	return lesson, nil
}

// GradeAnswer 判定作答并追加一条作答记录；单元必须属于该课程
func (s *LessonService) GradeAnswer(ctx context.Context, studentID, lessonID, unitID, response string) (*GradeResult, error) {
	lesson, err := s.Lessons.FindForStudent(ctx, lessonID, studentID)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(lesson.Items, func(it model.LessonItem) bool { return it.UnitID == unitID }) {
		return nil, util.ErrUnitNotFound
	}
	unit, err := s.Content.FindByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	result := gradeResponse(unit.Content, response)

	payload, err := json.Marshal(map[string]string{"answer": response})
	if err != nil {
		return nil, err
	}
	if err := s.Performance.RecordAnswer(ctx, &model.PerformanceRecord{
		StudentID:    studentID,
		LessonID:     lessonID,
		UnitID:       unitID,
		IsCorrect:    result.IsCorrect,
		ResponseData: datatypes.JSON(payload),
	}); err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}

	monitoring.AnswersGraded.WithLabelValues(strconv.FormatBool(result.IsCorrect)).Inc()
	return &result, nil
}

// gradeResponse 忽略大小写和首尾空白比较答案。没有标准答案的单元一律判对。
func gradeResponse(content []byte, response string) GradeResult {
	result := GradeResult{Feedback: feedbackMap(gjson.GetBytes(content, "feedback"))}

	answer := gjson.GetBytes(content, "correct_answer")
	expected := strings.TrimSpace(answer.String())
	if !answer.Exists() || expected == "" {
		result.IsCorrect = true
		return result
	}

	result.CorrectAnswer = answer.String()
	result.IsCorrect = strings.ToLower(strings.TrimSpace(response)) == strings.ToLower(expected)
	return result
}

func feedbackMap(fb gjson.Result) map[string]string {
	out := map[string]string{}
	switch {
	case fb.IsObject():
		fb.ForEach(func(k, v gjson.Result) bool {
			out[k.String()] = v.String()
			return true
		})
	case fb.Type == gjson.String && fb.String() != "":
		out["message"] = fb.String()
	}
	return out
}

// CompletionResult 课程完成后的附加信息
type CompletionResult struct {
	Lesson        *model.Lesson       `json:"-"`
	AlreadyDone   bool                `json:"already_completed"`
	TutorMessage  *model.TutorMessage `json:"tutor_message,omitempty"`
	ModuleAdvance bool                `json:"module_advanced"`
}

// Complete 完成课程：补写已看过记录，推进学习计划，并在有弱项时留下一条导师消息
func (s *LessonService) Complete(ctx context.Context, studentID, lessonID string) (*CompletionResult, error) {
	release, err := s.Locker.Acquire(ctx, studentLockKey(studentID))
	if err != nil {
		return nil, fmt.Errorf("lock student: %w", err)
	}
	defer release()

	lesson, err := s.Lessons.FindForStudent(ctx, lessonID, studentID)
	if err != nil {
		return nil, err
	}

	done, err := s.Lessons.Complete(ctx, lesson)
	if err != nil {
		return nil, fmt.Errorf("complete lesson: %w", err)
	}
	res := &CompletionResult{Lesson: lesson, AlreadyDone: !done.Completed, ModuleAdvance: done.ModuleAdvanced}
	if !done.Completed {
		return res, nil
	}

	msg, err := s.proactiveFeedback(ctx, studentID)
	if err != nil {
		logger.L(ctx).Warn("Proactive feedback failed",
			zap.String("studentId", studentID),
			zap.String("lessonId", lessonID),
			zap.Error(err))
	}
	res.TutorMessage = msg
	return res, nil
}

func (s *LessonService) proactiveFeedback(ctx context.Context, studentID string) (*model.TutorMessage, error) {
	summary, err := s.Performance.MasterySummary(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(summary.WeakTopics) == 0 {
		return nil, nil
	}

	topics := make([]string, len(summary.WeakTopics))
	for i, t := range summary.WeakTopics {
		topics[i] = strings.ReplaceAll(t, "-", " ")
	}
	content := fmt.Sprintf("Nice work finishing your lesson! I noticed %s could use a bit more practice. Ask me for a lesson on it whenever you are ready.",
		strings.Join(topics, ", "))
	return s.Messages.Create(ctx, studentID, content)
}

// IsExhausted 规划失败是否因为内容不足
func IsExhausted(err error) bool {
	return errors.Is(err, planner.ErrExhausted)
}
