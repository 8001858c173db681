package donations

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

// DonationRequest is the donation form as the public page posts it.
type DonationRequest struct {
	Amount         interface{} `json:"donation_amount"`
	Frequency      string      `json:"donation_frequency"`
	CardholderName string      `json:"cardholder_name"`
	DonorEmail     string      `json:"donor_email"`
}

type DonationTransport struct {
	Id            string  `json:"id"`
	DonorName     string  `json:"donor_name"`
	DonorEmail    *string `json:"donor_email"`
	Amount        float64 `json:"amount"`
	Frequency     string  `json:"frequency"`
	Status        string  `json:"status"`
	TransactionId string  `json:"transaction_id"`
	DonationDate  string  `json:"date"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeDonationRequest,
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

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(DonationRequest)
		donation, err := svc.AddDonation(ctx, req)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"message":  "Donation recorded successfully (Simulated)",
			"donation": storeToTransport(donation),
		}, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		donations, err := svc.ListDonations(ctx)
		if err != nil {
			return nil, err
		}
		response := []DonationTransport{}
		for _, donation := range donations {
			response = append(response, storeToTransport(donation))
		}
		return response, nil
	}
}

func decodeDonationRequest(_ context.Context, r *http.Request) (interface{}, error) {
	request := DonationRequest{}
	if err := shared.DecodeJSON(r, &request); err != nil {
		return nil, err
	}
	return request, nil
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch errors.Cause(err) {
	case ErrMissingFields, ErrInvalidAmount:
		shared.EncodeErrorWithStatus(err, http.StatusBadRequest, w)
	default:
		shared.EncodeError(ctx, err, w)
	}
}

func storeToTransport(donation store.Donation) DonationTransport {
	transport := DonationTransport{
		Id:            donation.DonationId.String,
		DonorName:     donation.DonorName.String,
		Amount:        donation.Amount,
		Frequency:     donation.Frequency.String,
		Status:        donation.Status.String,
		TransactionId: donation.TransactionId.String,
		DonationDate:  donation.DonationDate.UTC().Format(time.RFC3339),
	}
	if donation.DonorEmail.Valid {
		transport.DonorEmail = &donation.DonorEmail.String
	}
	return transport
}
