package inquiries

import (
	"context"
	"net/http"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

const (
	MESSAGE_CONFIRMED = "Inquiry received successfully. An email confirmation has been sent."
	MESSAGE_PARTIAL   = "Inquiry received, but confirmation email could not be sent."
)

type InquiryTransport struct {
	Id         string               `json:"id"`
	Name       string               `json:"name"`
	Email      string               `json:"email"`
	Subject    string               `json:"subject"`
	Message    string               `json:"message"`
	ChildId    string               `json:"childId,omitempty"`
	Child      *shared.ChildSummary `json:"child"`
	Status     string               `json:"status"`
	ReceivedAt string               `json:"receivedAt"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Submit(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeSubmitEndpoint(h.Service),
		decodeInquiryTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		shared.IgnorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) UpdateStatus(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpdateStatusEndpoint(h.Service),
		decodeStatusRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeSubmitEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(InquiryTransport)
		inquiry, mailed, err := svc.SubmitInquiry(ctx, req)
		if err != nil {
			return nil, err
		}
		message := MESSAGE_CONFIRMED
		if !mailed {
			message = MESSAGE_PARTIAL
		}
		return map[string]interface{}{
			"message": message,
			"inquiry": storeToTransport(inquiry, nil),
		}, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		inquiries, children, err := svc.ListInquiries(ctx)
		if err != nil {
			return nil, err
		}
		response := []InquiryTransport{}
		for _, inquiry := range inquiries {
			response = append(response, storeToTransport(inquiry, children))
		}
		return response, nil
	}
}

func makeUpdateStatusEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(InquiryTransport)
		inquiry, err := svc.UpdateStatus(ctx, req.Id, req.Status)
		if err != nil {
			return nil, err
		}
		return storeToTransport(inquiry, nil), nil
	}
}

func decodeInquiryTransport(_ context.Context, r *http.Request) (interface{}, error) {
	request := InquiryTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeStatusRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	request := InquiryTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return InquiryTransport{Id: id, Status: request.Status}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch errors.Cause(err) {
	case ErrMissingFields:
		shared.EncodeErrorWithStatus(err, http.StatusBadRequest, w)
	default:
		shared.EncodeError(ctx, err, w)
	}
}

func storeToTransport(inquiry store.Inquiry, children map[string]store.Child) InquiryTransport {
	return InquiryTransport{
		Id:         inquiry.InquiryId.String,
		Name:       inquiry.Name.String,
		Email:      inquiry.Email.String,
		Subject:    inquiry.Subject.String,
		Message:    inquiry.Message.String,
		ChildId:    inquiry.ChildId.String,
		Child:      shared.ChildSummaryFrom(children, inquiry.ChildId.String),
		Status:     inquiry.Status.String,
		ReceivedAt: inquiry.ReceivedAt.UTC().Format(time.RFC3339),
	}
}
