package users

import (
	"context"
	"net/http"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/roles"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

type UserTransport struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Gender      string `json:"gender"`
	Role        string `json:"role"`
	Password    string `json:"password,omitempty"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeUserRequest,
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
		decodeUpdateUserRequest,
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

// ListMessagingUsers lists the users a message can be sent to.
func (h *HandlerFactory) ListMessagingUsers(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListSummaryEndpoint(h.Service, roles.ROLE_ADMIN, roles.ROLE_STAFF),
		shared.IgnorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) ListStaff(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListSummaryEndpoint(h.Service, roles.ROLE_STAFF),
		shared.IgnorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(UserTransport)
		createdUser, err := svc.AddUser(ctx, req)
		if err != nil {
			return nil, err
		}
		return dbToTransport(createdUser), nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(UserTransport)
		user, err := svc.GetUser(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return dbToTransport(user), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		users, err := svc.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		allUsers := []UserTransport{}
		for _, user := range users {
			allUsers = append(allUsers, dbToTransport(user))
		}
		return allUsers, nil
	}
}

func makeListSummaryEndpoint(svc Service, roles ...string) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		users, err := svc.ListUsers(ctx, roles...)
		if err != nil {
			return nil, err
		}
		summaries := []shared.UserSummary{}
		for _, user := range users {
			summaries = append(summaries, shared.UserSummaryOf(user))
		}
		return summaries, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(UserTransport)
		user, err := svc.UpdateUser(ctx, req)
		if err != nil {
			return nil, err
		}
		return dbToTransport(user), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(UserTransport)
		if err := svc.DeleteUser(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "User deleted successfully"}, nil
	}
}

func decodeUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request UserTransport
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	request.Id = ""
	return request, nil
}

func decodeUpdateUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "id")
	if err != nil {
		return nil, err
	}
	var request UserTransport
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
	return UserTransport{Id: id}, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	shared.EncodeError(ctx, err, w)
}

func dbToTransport(user store.User) UserTransport {
	return UserTransport{
		Id:          user.UserId.String,
		Name:        user.Name.String,
		Username:    user.Username.String,
		Email:       user.Email.String,
		PhoneNumber: user.PhoneNumber.String,
		Gender:      user.Gender.String,
		Role:        user.Role.String,
	}
}
