package authentication

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/claims"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type RegisterTransport struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Gender      string `json:"gender"`
	Password    string `json:"password"`
	// Role is accepted for compatibility and ignored.
	Role string `json:"role,omitempty"`
}

type LoginTransport struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string        `json:"message"`
	User    claims.Caller `json:"user"`
	Token   string        `json:"token,omitempty"`
}

type HandlerFactory struct {
	Service       Service        `inject:""`
	Authenticator *Authenticator `inject:""`
}

func (h *HandlerFactory) Register(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeRegisterEndpoint(h.Service),
		decodeRegisterRequest,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) Login(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeLoginEndpoint(h.Service, h.Authenticator),
		decodeLoginRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeRegisterEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RegisterTransport)
		user, err := svc.Register(ctx, req)
		if err != nil {
			return nil, err
		}
		return AuthResponse{
			Message: "User registered successfully",
			User:    CallerOf(user),
		}, nil
	}
}

func makeLoginEndpoint(svc Service, authenticator *Authenticator) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(LoginTransport)
		user, err := svc.Login(ctx, req)
		if err != nil {
			return nil, err
		}

		response := AuthResponse{
			Message: "Login successful",
			User:    CallerOf(user),
		}
		if authenticator != nil && authenticator.Config.AuthMode == shared.AUTH_MODE_TOKEN {
			if response.Token, err = authenticator.IssueToken(response.User); err != nil {
				return nil, err
			}
		}
		return response, nil
	}
}

func decodeRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request RegisterTransport
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request LoginTransport
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return request, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch errors.Cause(err) {
	case ErrUserAlreadyExists:
		shared.EncodeErrorWithStatus(err, http.StatusBadRequest, w)
	case ErrInvalidCredentials:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": ErrInvalidCredentials.Error(),
		})
	default:
		shared.EncodeError(ctx, err, w)
	}
}
