package educationalrecords

import (
	"context"
	"net/http"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

type EducationalRecordTransport struct {
	Id                        string               `json:"id"`
	ChildId                   string               `json:"child_id"`
	Child                     *shared.ChildSummary `json:"child"`
	SchoolName                string               `json:"school_name"`
	Grade                     string               `json:"grade"`
	Class                     string               `json:"class"`
	Performance               string               `json:"performance"`
	Attendance                string               `json:"attendance"`
	ExtracurricularActivities string               `json:"extracurricular_activities"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeEducationalRecordTransport,
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
		req := request.(EducationalRecordTransport)
		record, err := svc.AddEducationalRecord(ctx, req)
		if err != nil {
			return nil, err
		}
		return StoreToTransport(record, nil), nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(EducationalRecordTransport)
		record, children, err := svc.GetEducationalRecord(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return StoreToTransport(record, children), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(EducationalRecordTransport)
		records, children, err := svc.ListEducationalRecords(ctx, req.ChildId)
		if err != nil {
			return nil, err
		}
		response := []EducationalRecordTransport{}
		for _, record := range records {
			response = append(response, StoreToTransport(record, children))
		}
		return response, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(EducationalRecordTransport)
		record, err := svc.UpdateEducationalRecord(ctx, req)
		if err != nil {
			return nil, err
		}
		return StoreToTransport(record, nil), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(EducationalRecordTransport)
		if err := svc.DeleteEducationalRecord(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Educational record deleted"}, nil
	}
}

func decodeEducationalRecordTransport(_ context.Context, r *http.Request) (interface{}, error) {
	request := EducationalRecordTransport{}
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
	request := EducationalRecordTransport{}
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
	return EducationalRecordTransport{ChildId: childId}, nil
}

func decodeGetOrDeleteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	return EducationalRecordTransport{Id: id}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	shared.EncodeError(ctx, err, w)
}

func StoreToTransport(record store.EducationalRecord, children map[string]store.Child) EducationalRecordTransport {
	return EducationalRecordTransport{
		Id:                        record.EducationalRecordId.String,
		ChildId:                   record.ChildId.String,
		Child:                     shared.ChildSummaryFrom(children, record.ChildId.String),
		SchoolName:                record.SchoolName.String,
		Grade:                     record.Grade.String,
		Class:                     record.Class.String,
		Performance:               record.Performance.String,
		Attendance:                record.Attendance.String,
		ExtracurricularActivities: record.ExtracurricularActivities.String,
	}
}
