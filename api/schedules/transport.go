package schedules

import (
	"context"
	"net/http"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type TaskTransport struct {
	Id              string              `json:"id"`
	StaffId         string              `json:"staffId"`
	Staff           *shared.UserSummary `json:"staff,omitempty"`
	TaskDescription string              `json:"taskDescription"`
	DueDate         string              `json:"dueDate,omitempty"`
	Status          string              `json:"status"`
	DateAssigned    string              `json:"dateAssigned"`
	DateCompleted   *string             `json:"dateCompleted,omitempty"`
	AssignedBy      string              `json:"assignedBy,omitempty"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Assign(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAssignEndpoint(h.Service),
		decodeTaskTransport,
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

func (h *HandlerFactory) ListStaff(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListStaffEndpoint(h.Service),
		decodeStaffQuery,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) ListMine(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListMineEndpoint(h.Service),
		shared.IgnorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeTaskId,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Complete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeCompleteEndpoint(h.Service),
		decodeTaskId,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeAssignEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(TaskTransport)
		task, err := svc.AssignTask(ctx, req)
		if err != nil {
			return nil, err
		}
		staff, err := svc.Staff(ctx, task)
		if err != nil {
			return nil, err
		}
		return storeToTransport(task, staff), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		tasks, err := svc.ListTasks(ctx)
		if err != nil {
			return nil, err
		}
		staff, err := svc.Staff(ctx, tasks...)
		if err != nil {
			return nil, err
		}
		return toTransports(tasks, staff), nil
	}
}

func makeListStaffEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(TaskTransport)
		tasks, err := svc.ListStaffTasks(ctx, req.StaffId)
		if err != nil {
			return nil, err
		}
		return toTransports(tasks, nil), nil
	}
}

func makeListMineEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		tasks, err := svc.ListMyTasks(ctx)
		if err != nil {
			return nil, err
		}
		return toTransports(tasks, nil), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(TaskTransport)
		if err := svc.DeleteTask(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Task deleted successfully"}, nil
	}
}

func makeCompleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(TaskTransport)
		task, err := svc.CompleteTask(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"message": "Task marked as complete",
			"task":    storeToTransport(task, nil),
		}, nil
	}
}

func decodeTaskTransport(_ context.Context, r *http.Request) (interface{}, error) {
	request := TaskTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeStaffQuery(_ context.Context, r *http.Request) (interface{}, error) {
	return TaskTransport{StaffId: r.URL.Query().Get("staffId")}, nil
}

func decodeTaskId(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	return TaskTransport{Id: id}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch errors.Cause(err) {
	case ErrMissingFields, ErrMissingStaffId, ErrAlreadyCompleted:
		shared.EncodeErrorWithStatus(err, http.StatusBadRequest, w)
	case ErrForbidden:
		shared.EncodeErrorWithStatus(err, http.StatusForbidden, w)
	case ErrTaskNotFound, ErrStaffNotFound:
		shared.EncodeErrorWithStatus(err, http.StatusNotFound, w)
	case authentication.ErrMissingIdentity:
		shared.EncodeErrorWithStatus(err, http.StatusUnauthorized, w)
	default:
		shared.EncodeError(ctx, err, w)
	}
}

func toTransports(tasks []store.Task, staff map[string]store.User) []TaskTransport {
	response := []TaskTransport{}
	for _, task := range tasks {
		response = append(response, storeToTransport(task, staff))
	}
	return response
}

func storeToTransport(task store.Task, staff map[string]store.User) TaskTransport {
	transport := TaskTransport{
		Id:              task.TaskId.String,
		StaffId:         task.StaffId.String,
		Staff:           shared.UserSummaryFrom(staff, task.StaffId.String),
		TaskDescription: task.TaskDescription.String,
		Status:          task.Status.String,
		DateAssigned:    task.DateAssigned.UTC().Format(time.RFC3339),
		DateCompleted:   shared.FormatDate(task.DateCompleted),
		AssignedBy:      task.AssignedBy.String,
	}
	if dueDate := shared.FormatDate(task.DueDate); dueDate != nil {
		transport.DueDate = *dueDate
	}
	return transport
}
