package children

import (
	"context"
	"net/http"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

// ChildRequest is decoded from a multipart form.
type ChildRequest struct {
	Id            string
	FirstName     string
	LastName      string
	DateOfBirth   string
	Age           string
	Gender        string
	AdmissionDate string
	Photo         *shared.Upload
}

type ChildTransport struct {
	Id            string  `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DateOfBirth   *string `json:"date_of_birth"`
	Age           *int64  `json:"age"`
	Gender        string  `json:"gender"`
	AdmissionDate *string `json:"admission_date"`
	PhotoUrl      string  `json:"photo_url"`
}

type childResponse struct {
	Message string         `json:"message"`
	Child   ChildTransport `json:"child"`
}

type HandlerFactory struct {
	Service Service           `inject:""`
	Config  *shared.AppConfig `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeChildRequest(h.Config.MaxUploadSize(), false),
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
		shared.IgnorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

// ListSummaries backs the child picker of the staff assignment screen.
func (h *HandlerFactory) ListSummaries(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListSummariesEndpoint(h.Service),
		shared.IgnorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Update(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpdateEndpoint(h.Service),
		decodeChildRequest(h.Config.MaxUploadSize(), true),
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
		req := request.(ChildRequest)
		child, err := svc.AddChild(ctx, req)
		if err != nil {
			return nil, err
		}
		return childResponse{Message: "Child added successfully", Child: storeToTransport(child)}, nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildRequest)
		child, err := svc.GetChild(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return storeToTransport(child), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		children, err := svc.ListChildren(ctx)
		if err != nil {
			return nil, err
		}
		response := []ChildTransport{}
		for _, child := range children {
			response = append(response, storeToTransport(child))
		}
		return response, nil
	}
}

func makeListSummariesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		children, err := svc.ListChildren(ctx)
		if err != nil {
			return nil, err
		}
		response := []shared.ChildSummary{}
		for _, child := range children {
			response = append(response, shared.ChildSummaryOf(child))
		}
		return response, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildRequest)
		child, err := svc.UpdateChild(ctx, req)
		if err != nil {
			return nil, err
		}
		return childResponse{Message: "Child updated successfully", Child: storeToTransport(child)}, nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildRequest)
		if _, err := svc.DeleteChild(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Child and associated records deleted successfully"}, nil
	}
}

func decodeChildRequest(maxBytes int64, withId bool) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (interface{}, error) {
		request := ChildRequest{}
		if withId {
			id, err := shared.PathId(r, "childId")
			if err != nil {
				return nil, err
			}
			request.Id = id
		}

		if err := shared.ParseMultipart(r, maxBytes); err != nil {
			return nil, err
		}
		request.FirstName = shared.FormValue(r, "first_name")
		request.LastName = shared.FormValue(r, "last_name")
		request.DateOfBirth = shared.FormValue(r, "date_of_birth")
		request.Age = shared.FormValue(r, "age")
		request.Gender = shared.FormValue(r, "gender")
		request.AdmissionDate = shared.FormValue(r, "admission_date")

		photo, err := shared.ReadUpload(r, "photo", maxBytes)
		if err != nil {
			return nil, err
		}
		request.Photo = photo
		return request, nil
	}
}

func decodeGetOrDeleteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "childId")
	if err != nil {
		return nil, err
	}
	return ChildRequest{Id: id}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	shared.EncodeError(ctx, err, w)
}

func storeToTransport(child store.Child) ChildTransport {
	transport := ChildTransport{
		Id:            child.ChildId.String,
		FirstName:     child.FirstName.String,
		LastName:      child.LastName.String,
		DateOfBirth:   shared.FormatDate(child.DateOfBirth),
		Gender:        child.Gender.String,
		AdmissionDate: shared.FormatDate(child.AdmissionDate),
		PhotoUrl:      child.PhotoUrl.String,
	}
	if child.Age.Valid {
		age := child.Age.Int64
		transport.Age = &age
	}
	return transport
}
