package staffassignments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

var ErrInvalidStaffFilter = errors.New("Invalid staff_id format provided for filtering.")

type StaffAssignmentTransport struct {
	Id         string               `json:"id"`
	StaffId    string               `json:"staff_id"`
	Staff      *shared.UserSummary  `json:"staff"`
	ChildId    string               `json:"child_id"`
	Child      *shared.ChildSummary `json:"child"`
	AssignedAt string               `json:"assigned_at"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeStaffAssignmentTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) Get(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetEndpoint(h.Service),
		decodeGetOrDeleteRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		decodeListRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Update(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpdateEndpoint(h.Service),
		decodeUpdateRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeGetOrDeleteRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(StaffAssignmentTransport)
		assignment, err := svc.AddStaffAssignment(ctx, req)
		if err != nil {
			return nil, err
		}
		return withSummaries(ctx, svc, assignment)
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(StaffAssignmentTransport)
		assignment, err := svc.GetStaffAssignment(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return withSummaries(ctx, svc, assignment)
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(StaffAssignmentTransport)
		assignments, err := svc.ListStaffAssignments(ctx, req.StaffId)
		if err != nil {
			return nil, err
		}
		staff, children, err := svc.Summaries(ctx, assignments...)
		if err != nil {
			return nil, err
		}
		response := []StaffAssignmentTransport{}
		for _, assignment := range assignments {
			response = append(response, storeToTransport(assignment, staff, children))
		}
		return response, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(StaffAssignmentTransport)
		assignment, err := svc.UpdateStaffAssignment(ctx, req)
		if err != nil {
			return nil, err
		}
		return withSummaries(ctx, svc, assignment)
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(StaffAssignmentTransport)
		if err := svc.DeleteStaffAssignment(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Assignment deleted successfully"}, nil
	}
}

func withSummaries(ctx context.Context, svc Service, assignment store.StaffAssignment) (interface{}, error) {
	staff, children, err := svc.Summaries(ctx, assignment)
	if err != nil {
		return nil, err
	}
	return storeToTransport(assignment, staff, children), nil
}

func decodeStaffAssignmentTransport(_ context.Context, r *http.Request) (interface{}, error) {
	request := StaffAssignmentTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	request.StaffId = strings.TrimSpace(request.StaffId)
	request.ChildId = strings.TrimSpace(request.ChildId)
	return request, nil
}

func decodeUpdateRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	request, err := decodeStaffAssignmentTransport(ctx, r)
	if err != nil {
		return nil, err
	}
	transport := request.(StaffAssignmentTransport)
	transport.Id = id
	return transport, nil
}

func decodeListRequest(_ context.Context, r *http.Request) (interface{}, error) {
	staffId := r.URL.Query().Get("staff_id")
	if staffId != "" && shared.ValidateId(staffId) != nil {
		return nil, ErrInvalidStaffFilter
	}
	return StaffAssignmentTransport{StaffId: staffId}, nil
}

func decodeGetOrDeleteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	return StaffAssignmentTransport{Id: id}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch errors.Cause(err) {
	case ErrMissingIds, ErrInvalidStaffFilter:
		shared.EncodeErrorWithStatus(err, http.StatusBadRequest, w)
	case ErrAlreadyAssigned:
		shared.EncodeErrorWithStatus(err, http.StatusConflict, w)
	default:
		shared.EncodeError(ctx, err, w)
	}
}

func storeToTransport(assignment store.StaffAssignment, staff map[string]store.User, children map[string]store.Child) StaffAssignmentTransport {
	return StaffAssignmentTransport{
		Id:         assignment.StaffAssignmentId.String,
		StaffId:    assignment.StaffId.String,
		Staff:      shared.UserSummaryFrom(staff, assignment.StaffId.String),
		ChildId:    assignment.ChildId.String,
		Child:      shared.ChildSummaryFrom(children, assignment.ChildId.String),
		AssignedAt: assignment.AssignedAt.UTC().Format(time.RFC3339),
	}
}
