package model

import "time"

type ConversationRole string

const (
	RoleUser ConversationRole = "user"
	RoleAI   ConversationRole = "ai"
)

type ConversationTurn struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID string           `gorm:"type:varchar(36);index;not null" json:"-"`
	Role      ConversationRole `gorm:"size:8;not null" json:"role"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
}

func (ConversationTurn) TableName() string {
	return "conversation_history"
}

type TutorMessageStatus string

const (
	MessageUnread TutorMessageStatus = "unread"
	MessageRead   TutorMessageStatus = "read"
)

// swagger:model TutorMessage
type TutorMessage struct {
	ID             uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID      string             `gorm:"type:varchar(36);index;not null" json:"-"`
	MessageContent string             `gorm:"type:text;not null" json:"message_content"`
	Status         TutorMessageStatus `gorm:"size:8;index;not null;default:unread" json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

func (TutorMessage) TableName() string {
	return "tutor_messages"
}
