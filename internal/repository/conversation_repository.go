package repository

import (
	"context"
	"errors"
	"slices"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	DB *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

func (r *ConversationRepository) SaveTurn(ctx context.Context, studentID string, role model.ConversationRole, content string) error {
	return r.DB.WithContext(ctx).Create(&model.ConversationTurn{
		StudentID: studentID,
		Role:      role,
		Content:   content,
	}).Error
}

// History 返回最近 limit 条对话，按时间正序
func (r *ConversationRepository) History(ctx context.Context, studentID string, limit int) ([]model.ConversationTurn, error) {
	var turns []model.ConversationTurn
	q := r.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&turns).Error; err != nil {
		return nil, err
	}
	slices.Reverse(turns)
	return turns, nil
}

type TutorMessageRepository struct {
	DB *gorm.DB
}

func NewTutorMessageRepository(db *gorm.DB) *TutorMessageRepository {
	return &TutorMessageRepository{DB: db}
}

func (r *TutorMessageRepository) Create(ctx context.Context, studentID, content string) (*model.TutorMessage, error) {
	msg := &model.TutorMessage{
		StudentID:      studentID,
		MessageContent: content,
		Status:         model.MessageUnread,
	}
	if err := r.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// Unread 最新的在前
func (r *TutorMessageRepository) Unread(ctx context.Context, studentID string) ([]model.TutorMessage, error) {
	var msgs []model.TutorMessage
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, model.MessageUnread).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	return msgs, err
}

func (r *TutorMessageRepository) MarkRead(ctx context.Context, studentID string, id uint) error {
	var msg model.TutorMessage
	err := r.DB.WithContext(ctx).Where("id = ? AND student_id = ?", id, studentID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Model(&msg).Update("status", model.MessageRead).Error
}
