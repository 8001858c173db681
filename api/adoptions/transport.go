package adoptions

import (
	"context"
	"net/http"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

type AdoptionTransport struct {
	Id             string               `json:"id"`
	ChildId        string               `json:"child_id"`
	Child          *shared.ChildSummary `json:"child"`
	AdopterName    string               `json:"adopter_name"`
	AdopterContact string               `json:"adopter_contact"`
	AdopterNid     string               `json:"adopter_nid"`
	AdoptionDate   string               `json:"adoption_date"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeAdoptionTransport,
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
		req := request.(AdoptionTransport)
		adoption, err := svc.AddAdoption(ctx, req)
		if err != nil {
			return nil, err
		}
		return withChild(ctx, svc, adoption)
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(AdoptionTransport)
		adoption, err := svc.GetAdoption(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return withChild(ctx, svc, adoption)
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		adoptions, err := svc.ListAdoptions(ctx)
		if err != nil {
			return nil, err
		}
		children, err := svc.Children(ctx, adoptions...)
		if err != nil {
			return nil, err
		}
		response := []AdoptionTransport{}
		for _, adoption := range adoptions {
			response = append(response, storeToTransport(adoption, children))
		}
		return response, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(AdoptionTransport)
		adoption, err := svc.UpdateAdoption(ctx, req)
		if err != nil {
			return nil, err
		}
		return withChild(ctx, svc, adoption)
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(AdoptionTransport)
		if err := svc.DeleteAdoption(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Adoption record deleted"}, nil
	}
}

func withChild(ctx context.Context, svc Service, adoption store.Adoption) (interface{}, error) {
	children, err := svc.Children(ctx, adoption)
	if err != nil {
		return nil, err
	}
	return storeToTransport(adoption, children), nil
}

func decodeAdoptionTransport(_ context.Context, r *http.Request) (interface{}, error) {
	request := AdoptionTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeUpdateRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	request := AdoptionTransport{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	request.Id = id
	return request, nil
}

func decodeGetOrDeleteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	return AdoptionTransport{Id: id}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	shared.EncodeError(ctx, err, w)
}

func storeToTransport(adoption store.Adoption, children map[string]store.Child) AdoptionTransport {
	transport := AdoptionTransport{
		Id:             adoption.AdoptionId.String,
		ChildId:        adoption.ChildId.String,
		Child:          shared.ChildSummaryFrom(children, adoption.ChildId.String),
		AdopterName:    adoption.AdopterName.String,
		AdopterContact: adoption.AdopterContact.String,
		AdopterNid:     adoption.AdopterNid.String,
	}
	if date := shared.FormatDate(adoption.AdoptionDate); date != nil {
		transport.AdoptionDate = *date
	}
	return transport
}
