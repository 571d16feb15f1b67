package controller

import (
	"context"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/service"
	"english_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// LessonService 课程相关用例，由 service.LessonService 实现
type LessonService interface {
	StartPractice(ctx context.Context, studentID, topic, level string) (*model.Lesson, bool, error)
	ActiveLesson(ctx context.Context, studentID string) (*model.Lesson, error)
	GradeAnswer(ctx context.Context, studentID, lessonID, unitID, response string) (*service.GradeResult, error)
	Complete(ctx context.Context, studentID, lessonID string) (*service.CompletionResult, error)
}

type LessonController struct {
	LessonService LessonService
}

func NewLessonController(lessonService LessonService) *LessonController {
	return &LessonController{LessonService: lessonService}
}

type NewLessonRequest struct {
	Topic string `json:"topic"`
	Level string `json:"level"`
}

type NewLessonResponse struct {
	Lesson         *service.LessonView `json:"lesson"`
	ActiveReturned bool                `json:"active_lesson_returned"`
	Message        string              `json:"message,omitempty"`
}

type AnswerRequest struct {
	LessonID        string `json:"lesson_id" binding:"required"`
	UnitID          string `json:"unit_id" binding:"required"`
	StudentResponse string `json:"student_response"`
}

const exhaustedMessage = "We couldn't put together a lesson for this topic right now. Try a different topic or try again later."

// @Summary 生成新课程
// @Description 已有未完成课程时直接返回该课程，否则按主题规划一节新课
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NewLessonRequest false "主题与级别"
// @Success 200 {object} util.Response{data=NewLessonResponse}
// @Router /api/v1/lessons/new [post]
func (c *LessonController) NewLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req NewLessonRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	lesson, existing, err := c.LessonService.StartPractice(ctx.Request.Context(), user.StudentID(), req.Topic, req.Level)
	if service.IsExhausted(err) {
		util.Success(ctx, NewLessonResponse{Message: exhaustedMessage})
		return
	}
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, NewLessonResponse{
		Lesson:         service.NewLessonView(lesson),
		ActiveReturned: existing,
	})
}

// @Summary 获取当前课程
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.LessonView}
// @Failure 404 {object} util.Response
// @Router /api/v1/lessons/active [get]
func (c *LessonController) ActiveLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	lesson, err := c.LessonService.ActiveLesson(ctx.Request.Context(), user.StudentID())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, service.NewLessonView(lesson))
}

// @Summary 提交作答
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AnswerRequest true "作答"
// @Success 200 {object} util.Response{data=service.GradeResult}
// @Router /api/v1/lessons/answer [post]
func (c *LessonController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.LessonService.GradeAnswer(ctx.Request.Context(), user.StudentID(), req.LessonID, req.UnitID, req.StudentResponse)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 完成课程
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=service.CompletionResult}
// @Router /api/v1/lessons/{id}/complete [post]
func (c *LessonController) CompleteLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	res, err := c.LessonService.Complete(ctx.Request.Context(), user.StudentID(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
