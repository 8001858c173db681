package donations_test

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/sri-ravi13/Orphan-Management-System/api/donations"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"
	"github.com/sri-ravi13/Orphan-Management-System/common/store/storetest"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transport", func() {

	var (
		router   *mux.Router
		recorder *httptest.ResponseRecorder

		concreteStore *store.Store

		httpMethodToUse, httpEndpointToUse, httpBodyToUse string
	)

	var (
		assertHttpCode = func(code int) {
			It(fmt.Sprintf("should respond with status code %d", code), func() {
				Expect(recorder.Code).To(Equal(code))
			})
		}

		assertMessage = func(message string) {
			It(fmt.Sprintf("should respond with message %q", message), func() {
				body := map[string]interface{}{}
				Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
				Expect(body["message"]).To(Equal(message))
			})
		}

		assertNothingStored = func() {
			It("should not store a donation", func() {
				donations, err := concreteStore.ListDonations(nil)
				Expect(err).ToNot(HaveOccurred())
				Expect(donations).To(BeEmpty())
			})
		}
	)

	BeforeEach(func() {
		logger := log.NewLoggerWithWriter("test", ioutil.Discard)
		concreteStore = storetest.NewStore()
		recorder = httptest.NewRecorder()

		handlerFactory := HandlerFactory{
			Service: &DonationService{
				Store:           concreteStore,
				StringGenerator: &storetest.SequenceGenerator{},
				Logger:          logger,
			},
		}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/donations", handlerFactory.List(opts)).Methods(http.MethodGet)
		router.Handle("/api/donations", handlerFactory.Add(opts)).Methods(http.MethodPost)

		httpBodyToUse = ""
	})

	AfterEach(func() {
		concreteStore.Db.Close()
	})

	JustBeforeEach(func() {
		req, _ := http.NewRequest(httpMethodToUse, httpEndpointToUse, strings.NewReader(httpBodyToUse))
		router.ServeHTTP(recorder, req)
	})

	Describe("CREATE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPost
			httpEndpointToUse = "/api/donations"
		})

		Context("When the donation is complete", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"donation_amount":"25.50","donation_frequency":"monthly","cardholder_name":"Jane Donor","donor_email":"Jane@Example.com"}`
			})

			assertHttpCode(http.StatusCreated)
			assertMessage("Donation recorded successfully (Simulated)")

			It("should store a completed donation with a simulated transaction", func() {
				response := struct {
					Donation DonationTransport `json:"donation"`
				}{}
				Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
				Expect(response.Donation.Id).To(Equal(storetest.Id(1)))
				Expect(response.Donation.Amount).To(Equal(25.5))
				Expect(response.Donation.Status).To(Equal(store.DONATION_COMPLETED))
				Expect(response.Donation.TransactionId).To(MatchRegexp(`^sim_txn_\d+123456789$`))
				Expect(*response.Donation.DonorEmail).To(Equal("jane@example.com"))
			})
		})

		Context("When the amount is a number and no email is given", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"donation_amount":10,"donation_frequency":"one-time","cardholder_name":"Anonymous"}`
			})
			assertHttpCode(http.StatusCreated)
			It("should leave the email empty", func() {
				donations, err := concreteStore.ListDonations(nil)
				Expect(err).ToNot(HaveOccurred())
				Expect(donations).To(HaveLen(1))
				Expect(donations[0].DonorEmail.Valid).To(BeFalse())
			})
		})

		Context("When the name is missing", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"donation_amount":10,"donation_frequency":"one-time"}`
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("Missing required donation fields (amount, frequency, name).")
			assertNothingStored()
		})

		Context("When the amount is not positive", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"donation_amount":"-5","donation_frequency":"one-time","cardholder_name":"Jane"}`
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("Invalid donation amount.")
			assertNothingStored()
		})

		Context("When the amount is not a number", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"donation_amount":"lots","donation_frequency":"one-time","cardholder_name":"Jane"}`
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("Invalid donation amount.")
		})

		Context("When the frequency is unknown", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"donation_amount":5,"donation_frequency":"weekly","cardholder_name":"Jane"}`
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("donation_frequency must be one of: one-time, monthly")
		})

		Context("When the email is invalid", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"donation_amount":5,"donation_frequency":"one-time","cardholder_name":"Jane","donor_email":"nope"}`
			})
			assertHttpCode(http.StatusBadRequest)
			assertNothingStored()
		})
	})

	Describe("LIST", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
			httpEndpointToUse = "/api/donations"

			for i, name := range []string{"First", "Second"} {
				_, err := concreteStore.AddDonation(nil, store.Donation{
					DonorName:     store.NullString(name),
					Amount:        float64(10 * (i + 1)),
					Frequency:     store.NullString("one-time"),
					Status:        store.NullString(store.DONATION_COMPLETED),
					TransactionId: store.NullString(fmt.Sprintf("txn-%d", i)),
					DonationDate:  time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
				})
				Expect(err).ToNot(HaveOccurred())
			}
		})

		assertHttpCode(http.StatusOK)

		It("should list the newest donation first", func() {
			var donations []DonationTransport
			Expect(json.Unmarshal(recorder.Body.Bytes(), &donations)).To(Succeed())
			Expect(donations).To(HaveLen(2))
			Expect(donations[0].DonorName).To(Equal("Second"))
			Expect(donations[0].DonationDate).To(Equal("2024-02-01T00:00:00Z"))
			Expect(donations[1].DonorName).To(Equal("First"))
		})
	})
})
