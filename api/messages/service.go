package messages

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/claims"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingFields    = errors.New("Receiver and message text are required")
	ErrInvalidReceiver  = errors.New("Invalid receiver ID format.")
	ErrReceiverNotFound = errors.New("Receiver user not found")
	ErrSelfMessage      = errors.New("Cannot send messages to yourself.")
)

type Service interface {
	SendMessage(ctx context.Context, request MessageTransport) (store.Message, map[string]store.User, error)
	ListInbox(ctx context.Context) ([]store.Message, map[string]store.User, error)
}

type MessageService struct {
	Store interface {
		GetUser(tx *gorm.DB, userId string) (store.User, error)
		FindUsersByIds(tx *gorm.DB, userIds []string) (map[string]store.User, error)
		AddMessage(tx *gorm.DB, message store.Message) (store.Message, error)
		ListMessagesReceivedBy(tx *gorm.DB, receiverId string) ([]store.Message, error)
	} `inject:""`
	Logger *log.Logger `inject:""`
}

// SendMessage sends a message from the caller to request.ReceiverId.
func (m *MessageService) SendMessage(ctx context.Context, request MessageTransport) (store.Message, map[string]store.User, error) {
	caller, ok := claims.GetCaller(ctx)
	if !ok {
		return store.Message{}, nil, authentication.ErrMissingIdentity
	}

	if request.ReceiverId == "" || request.MessageText == "" {
		return store.Message{}, nil, ErrMissingFields
	}
	if err := shared.ValidateId(request.ReceiverId); err != nil {
		return store.Message{}, nil, ErrInvalidReceiver
	}

	receiver, err := m.Store.GetUser(nil, request.ReceiverId)
	if err == store.ErrUserNotFound {
		return store.Message{}, nil, ErrReceiverNotFound
	}
	if err != nil {
		return store.Message{}, nil, errors.Wrap(err, "failed to send message")
	}
	if receiver.UserId.String == caller.UserId {
		return store.Message{}, nil, ErrSelfMessage
	}

	message, err := m.Store.AddMessage(nil, store.Message{
		SenderId:    store.NullString(caller.UserId),
		ReceiverId:  receiver.UserId,
		MessageText: store.NullString(request.MessageText),
	})
	if err != nil {
		return store.Message{}, nil, errors.Wrap(err, "failed to send message")
	}
	m.Logger.Info(ctx, "message sent", "messageId", message.MessageId.String, "receiverId", receiver.UserId.String)

	senders, err := m.Store.FindUsersByIds(nil, []string{caller.UserId})
	if err != nil {
		return store.Message{}, nil, errors.Wrap(err, "failed to send message")
	}
	return message, senders, nil
}

// ListInbox returns the messages received by the caller, newest first.
func (m *MessageService) ListInbox(ctx context.Context) ([]store.Message, map[string]store.User, error) {
	caller, ok := claims.GetCaller(ctx)
	if !ok {
		return nil, nil, authentication.ErrMissingIdentity
	}

	messages, err := m.Store.ListMessagesReceivedBy(nil, caller.UserId)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list messages")
	}
	senderIds := make([]string, 0, len(messages))
	for _, message := range messages {
		senderIds = append(senderIds, message.SenderId.String)
	}
	senders, err := m.Store.FindUsersByIds(nil, senderIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list messages")
	}
	return messages, senders, nil
}
