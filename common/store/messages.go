package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
)

type Message struct {
	MessageId   sql.NullString `gorm:"primary_key"`
	SenderId    sql.NullString `gorm:"index"`
	ReceiverId  sql.NullString `gorm:"index"`
	MessageText sql.NullString `gorm:"type:text"`
	SentAt      time.Time
}

func (Message) TableName() string {
	return "messages"
}

func (s *Store) AddMessage(tx *gorm.DB, message Message) (Message, error) {
	db := s.dbOrTx(tx)

	message.MessageId = s.newId()
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}
	if err := db.Create(&message).Error; err != nil {
		return Message{}, err
	}
	return message, nil
}

// ListMessagesReceivedBy returns the inbox of receiverId, newest first.
func (s *Store) ListMessagesReceivedBy(tx *gorm.DB, receiverId string) ([]Message, error) {
	db := s.dbOrTx(tx)

	messages := []Message{}
	if err := db.Where("receiver_id = ?", receiverId).Order("sent_at desc").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
