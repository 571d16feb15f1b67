package controller

import (
	"context"
	"strconv"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/service"
	"english_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TutorService interface {
	Interact(ctx context.Context, studentID string, in service.Intent) (*service.AIResponse, error)
	History(ctx context.Context, studentID string, limit int) ([]model.ConversationTurn, error)
	UnreadMessages(ctx context.Context, studentID string) ([]model.TutorMessage, error)
	MarkMessageRead(ctx context.Context, studentID string, id uint) error
}

type TutorController struct {
	TutorService TutorService
}

func NewTutorController(s TutorService) *TutorController {
	return &TutorController{TutorService: s}
}

// @Summary 与导师交互
// @Description 按钮动作（生成新课、完成课程）或自由聊天
// @Tags 导师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.Intent true "交互意图"
// @Success 200 {object} util.Response{data=service.AIResponse}
// @Router /api/v1/tutor/interact [post]
func (c *TutorController) Interact(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var in service.Intent
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.TutorService.Interact(ctx.Request.Context(), user.StudentID(), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 对话历史
// @Tags 导师
// @Produce json
// @Security BearerAuth
// @Param limit query int false "最近条数，默认全部"
// @Success 200 {object} util.Response
// @Router /api/v1/tutor/history [get]
func (c *TutorController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	turns, err := c.TutorService.History(ctx.Request.Context(), user.StudentID(), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if turns == nil {
		turns = []model.ConversationTurn{}
	}
	util.Success(ctx, turns)
}

// @Summary 未读导师消息
// @Tags 导师
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/v1/tutor/messages [get]
func (c *TutorController) UnreadMessages(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	msgs, err := c.TutorService.UnreadMessages(ctx.Request.Context(), user.StudentID())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, msgs)
}

// @Summary 标记消息已读
// @Tags 导师
// @Produce json
// @Security BearerAuth
// @Param id path int true "消息ID"
// @Success 200 {object} util.Response
// @Router /api/v1/tutor/messages/{id}/read [post]
func (c *TutorController) MarkRead(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := util.ParseUintID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.TutorService.MarkMessageRead(ctx.Request.Context(), user.StudentID(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
