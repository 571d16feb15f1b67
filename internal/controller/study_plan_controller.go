package controller

import (
	"context"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/service"
	"english_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudyPlanService interface {
	Progress(ctx context.Context, studentID, level string) (*service.StudyPlanProgress, error)
	StartModuleLesson(ctx context.Context, studentID, moduleID string) (*model.Lesson, error)
}

type StudyPlanController struct {
	StudyPlanService StudyPlanService
}

func NewStudyPlanController(s StudyPlanService) *StudyPlanController {
	return &StudyPlanController{StudyPlanService: s}
}

type StartModuleLessonRequest struct {
	ModuleID string `json:"module_id" binding:"required"`
}

// @Summary 学习计划进度
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Param level query string false "级别，默认 A1"
// @Success 200 {object} util.Response{data=service.StudyPlanProgress}
// @Router /api/v1/study-plan/progress [get]
func (c *StudyPlanController) Progress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.StudyPlanService.Progress(ctx.Request.Context(), user.StudentID(), ctx.Query("level"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 开始模块课程
// @Description 返回该模块当前应学的课程；已在进行中时返回同一节课
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StartModuleLessonRequest true "模块"
// @Success 200 {object} util.Response{data=service.LessonView}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/v1/study-plan/start-lesson [post]
func (c *StudyPlanController) StartLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartModuleLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.StudyPlanService.StartModuleLesson(ctx.Request.Context(), user.StudentID(), req.ModuleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, service.NewLessonView(lesson))
}
