package healthrecords

import (
	"context"
	"net/http"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

type HealthRecordTransport struct {
	Id              string               `json:"id"`
	ChildId         string               `json:"child_id"`
	Child           *shared.ChildSummary `json:"child"`
	MedicalHistory  string               `json:"medical_history"`
	Vaccinations    string               `json:"vaccinations"`
	Treatments      string               `json:"treatments"`
	LastCheckup     *string              `json:"last_checkup"`
	NextAppointment *string              `json:"next_appointment"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeHealthRecordTransport,
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
		req := request.(HealthRecordTransport)
		record, err := svc.AddHealthRecord(ctx, req)
		if err != nil {
			return nil, err
		}
		return StoreToTransport(record, nil), nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(HealthRecordTransport)
		record, child, err := svc.GetHealthRecord(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return StoreToTransport(record, map[string]store.Child{child.ChildId.String: child}), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(HealthRecordTransport)
		records, children, err := svc.ListHealthRecords(ctx, req.ChildId)
		if err != nil {
			return nil, err
		}
		response := []HealthRecordTransport{}
		for _, record := range records {
			response = append(response, StoreToTransport(record, children))
		}
		return response, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(HealthRecordTransport)
		record, err := svc.UpdateHealthRecord(ctx, req)
		if err != nil {
			return nil, err
		}
		return StoreToTransport(record, nil), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(HealthRecordTransport)
		if err := svc.DeleteHealthRecord(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Health record deleted"}, nil
	}
}

func decodeHealthRecordTransport(_ context.Context, r *http.Request) (interface{}, error) {
	request := HealthRecordTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeUpdateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	request := HealthRecordTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	request.Id = id
	return request, nil
}

func decodeListRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId := r.URL.Query().Get("child_id")
	if childId != "" {
		if err := shared.ValidateId(childId); err != nil {
			return nil, err
		}
	}
	return HealthRecordTransport{ChildId: childId}, nil
}

func decodeGetOrDeleteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	return HealthRecordTransport{Id: id}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	shared.EncodeError(ctx, err, w)
}

func StoreToTransport(record store.HealthRecord, children map[string]store.Child) HealthRecordTransport {
	return HealthRecordTransport{
		Id:              record.HealthRecordId.String,
		ChildId:         record.ChildId.String,
		Child:           shared.ChildSummaryFrom(children, record.ChildId.String),
		MedicalHistory:  record.MedicalHistory.String,
		Vaccinations:    record.Vaccinations.String,
		Treatments:      record.Treatments.String,
		LastCheckup:     shared.FormatDate(record.LastCheckup),
		NextAppointment: shared.FormatDate(record.NextAppointment),
	}
}
