package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

type JobTransport struct {
	Id          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   *string         `json:"last_error"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	CompletedAt *string         `json:"completed_at"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Get(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetEndpoint(h.Service),
		decodeGetRequest,
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

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(JobTransport)
		job, err := svc.GetJob(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return storeToTransport(job), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(JobTransport)
		jobs, err := svc.ListJobs(ctx, req.Status)
		if err != nil {
			return nil, err
		}
		response := []JobTransport{}
		for _, job := range jobs {
			response = append(response, storeToTransport(job))
		}
		return response, nil
	}
}

func decodeGetRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	return JobTransport{Id: id}, nil
}

func decodeListRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return JobTransport{Status: r.URL.Query().Get("status")}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	shared.EncodeError(ctx, err, w)
}

func storeToTransport(job store.BackgroundJob) JobTransport {
	transport := JobTransport{
		Id:          job.JobId.String,
		Type:        job.Type.String,
		Status:      job.Status.String,
		Attempts:    job.Attempts,
		CreatedAt:   job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   job.UpdatedAt.UTC().Format(time.RFC3339),
		CompletedAt: shared.FormatDate(job.CompletedAt),
	}
	if json.Valid([]byte(job.Payload.String)) {
		transport.Payload = json.RawMessage(job.Payload.String)
	}
	if job.LastError.Valid {
		transport.LastError = &job.LastError.String
	}
	return transport
}
