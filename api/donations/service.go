package donations

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingFields = errors.New("Missing required donation fields (amount, frequency, name).")
	ErrInvalidAmount = errors.New("Invalid donation amount.")
)

type Service interface {
	AddDonation(ctx context.Context, request DonationRequest) (store.Donation, error)
	ListDonations(ctx context.Context) ([]store.Donation, error)
}

type DonationService struct {
	Store interface {
		AddDonation(tx *gorm.DB, donation store.Donation) (store.Donation, error)
		ListDonations(tx *gorm.DB) ([]store.Donation, error)
	} `inject:""`
	StringGenerator interface {
		GenerateRandomDigits() string
	} `inject:""`
	Logger *log.Logger `inject:""`
}

type donationFrequency struct {
	Frequency string `json:"donation_frequency" validate:"oneof=one-time monthly"`
}

// AddDonation records a donation. There is no payment provider behind it:
// every donation is stored as completed with a simulated transaction id.
func (c *DonationService) AddDonation(ctx context.Context, request DonationRequest) (store.Donation, error) {
	if request.Amount == nil || request.Frequency == "" || request.CardholderName == "" {
		return store.Donation{}, ErrMissingFields
	}
	amount, err := parseAmount(request.Amount)
	if err != nil {
		return store.Donation{}, err
	}
	if err := shared.Validate(donationFrequency{Frequency: request.Frequency}); err != nil {
		return store.Donation{}, err
	}
	donation := store.Donation{
		DonorName:     store.NullString(request.CardholderName),
		Amount:        amount,
		Frequency:     store.NullString(request.Frequency),
		Status:        store.NullString(store.DONATION_COMPLETED),
		TransactionId: store.NullString(c.transactionId()),
	}
	if email := strings.TrimSpace(request.DonorEmail); email != "" {
		if err := shared.ValidateEmail(email); err != nil {
			return store.Donation{}, err
		}
		donation.DonorEmail = store.NullString(email)
	}

	donation, err = c.Store.AddDonation(nil, donation)
	if err != nil {
		return store.Donation{}, errors.Wrap(err, "failed to add donation")
	}
	c.Logger.Info(ctx, "donation recorded", "donationId", donation.DonationId.String, "transactionId", donation.TransactionId.String)
	return donation, nil
}

func (c *DonationService) ListDonations(ctx context.Context) ([]store.Donation, error) {
	donations, err := c.Store.ListDonations(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list donations")
	}
	return donations, nil
}

func (c *DonationService) transactionId() string {
	return fmt.Sprintf("sim_txn_%d%s", time.Now().UnixNano()/int64(time.Millisecond), c.StringGenerator.GenerateRandomDigits())
}

// parseAmount accepts the amount as a json number or a numeric string.
func parseAmount(raw interface{}) (float64, error) {
	var amount float64
	switch v := raw.(type) {
	case float64:
		amount = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		amount = parsed
	default:
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}
