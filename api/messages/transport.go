package messages

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type MessageTransport struct {
	Id          string              `json:"id"`
	SenderId    string              `json:"sender_id"`
	Sender      *shared.UserSummary `json:"sender"`
	ReceiverId  string              `json:"receiver_id"`
	MessageText string              `json:"message_text"`
	SentAt      string              `json:"sent_at"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Send(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeSendEndpoint(h.Service),
		decodeMessageTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) Inbox(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeInboxEndpoint(h.Service),
		shared.IgnorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeSendEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(MessageTransport)
		message, senders, err := svc.SendMessage(ctx, req)
		if err != nil {
			return nil, err
		}
		return storeToTransport(message, senders), nil
	}
}

func makeInboxEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		messages, senders, err := svc.ListInbox(ctx)
		if err != nil {
			return nil, err
		}
		response := []MessageTransport{}
		for _, message := range messages {
			response = append(response, storeToTransport(message, senders))
		}
		return response, nil
	}
}

func decodeMessageTransport(_ context.Context, r *http.Request) (interface{}, error) {
	request := MessageTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	request.ReceiverId = strings.TrimSpace(request.ReceiverId)
	request.MessageText = strings.TrimSpace(request.MessageText)
	return request, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch errors.Cause(err) {
	case ErrMissingFields, ErrInvalidReceiver, ErrSelfMessage:
		shared.EncodeErrorWithStatus(err, http.StatusBadRequest, w)
	case ErrReceiverNotFound:
		shared.EncodeErrorWithStatus(err, http.StatusNotFound, w)
	case authentication.ErrMissingIdentity:
		shared.EncodeErrorWithStatus(err, http.StatusUnauthorized, w)
	default:
		shared.EncodeError(ctx, err, w)
	}
}

func storeToTransport(message store.Message, senders map[string]store.User) MessageTransport {
	return MessageTransport{
		Id:          message.MessageId.String,
		SenderId:    message.SenderId.String,
		Sender:      shared.UserSummaryFrom(senders, message.SenderId.String),
		ReceiverId:  message.ReceiverId.String,
		MessageText: message.MessageText.String,
		SentAt:      message.SentAt.UTC().Format(time.RFC3339),
	}
}
