package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"partystream/internal/domain"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

type chatMessageModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	BookingID int64     `gorm:"column:booking_id;index"`
	SenderID  int64     `gorm:"column:sender_id"`
	Content   string    `gorm:"column:content;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (chatMessageModel) TableName() string { return "chat_messages" }

func toDomainChatMessage(m chatMessageModel) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        m.ID,
		BookingID: m.BookingID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (r *ChatRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	m := chatMessageModel{
		BookingID: msg.BookingID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*msg = *toDomainChatMessage(m)
	return nil
}

// ListByBooking returns messages in persisted timestamp order, oldest
// first, so a joining client can replay the log top to bottom.
func (r *ChatRepository) ListByBooking(ctx context.Context, bookingID int64, limit, offset int) ([]domain.ChatMessage, error) {
	var ms []chatMessageModel
	tx := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.ChatMessage, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainChatMessage(m))
	}
	return out, nil
}
