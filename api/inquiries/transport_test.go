package inquiries_test

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/sri-ravi13/Orphan-Management-System/api/inquiries"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/mailer"
	mailermocks "github.com/sri-ravi13/Orphan-Management-System/common/mailer/mocks"
	"github.com/sri-ravi13/Orphan-Management-System/common/messaging"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"
	"github.com/sri-ravi13/Orphan-Management-System/common/store/storetest"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("Transport", func() {

	var (
		router   *mux.Router
		recorder *httptest.ResponseRecorder

		concreteStore *store.Store
		mockMailer    *mailermocks.MockMailer

		httpMethodToUse, httpEndpointToUse, httpBodyToUse string

		alice store.Child
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

		storedInquiries = func() []store.Inquiry {
			inquiries, err := concreteStore.ListInquiries(nil)
			Expect(err).ToNot(HaveOccurred())
			return inquiries
		}

		jobsWithStatus = func(status string) []store.BackgroundJob {
			found, err := concreteStore.ListJobs(nil, status)
			Expect(err).ToNot(HaveOccurred())
			return found
		}
	)

	BeforeEach(func() {
		logger := log.NewLoggerWithWriter("test", ioutil.Discard)
		concreteStore = storetest.NewStore()
		recorder = httptest.NewRecorder()
		mockMailer = &mailermocks.MockMailer{}

		alice = storetest.MustAddChild(concreteStore, "Alice", "Smith")

		handlerFactory := HandlerFactory{
			Service: &InquiryService{
				Store: concreteStore,
				Jobs: &jobs.Runner{
					Store:    concreteStore,
					Queue:    messaging.NewMemoryQueue(16),
					Config:   &shared.AppConfig{JobMaxAttempts: 5},
					Logger:   logger,
					Handlers: []jobs.Handler{&jobs.InquiryConfirmationHandler{Mailer: mockMailer}},
				},
				Logger: logger,
			},
		}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/inquiries", handlerFactory.Submit(opts)).Methods(http.MethodPost)
		router.Handle("/api/inquiries", handlerFactory.List(opts)).Methods(http.MethodGet)
		router.Handle("/api/inquiries/{id}", handlerFactory.UpdateStatus(opts)).Methods(http.MethodPatch)

		httpBodyToUse = ""
	})

	AfterEach(func() {
		concreteStore.Db.Close()
	})

	JustBeforeEach(func() {
		req, _ := http.NewRequest(httpMethodToUse, httpEndpointToUse, strings.NewReader(httpBodyToUse))
		router.ServeHTTP(recorder, req)
	})

	Describe("SUBMIT", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPost
			httpEndpointToUse = "/api/inquiries"
		})

		Context("When the confirmation mail is sent", func() {
			BeforeEach(func() {
				mockMailer.On("Send", mock.Anything, mock.Anything).Return(nil)
				httpBodyToUse = `{"name":"Jane","email":"jane@example.com","subject":"Volunteering","message":"Can I help?"}`
			})

			assertHttpCode(http.StatusCreated)
			assertMessage(MESSAGE_CONFIRMED)

			It("should store a new inquiry", func() {
				inquiries := storedInquiries()
				Expect(inquiries).To(HaveLen(1))
				Expect(inquiries[0].Status.String).To(Equal(store.INQUIRY_NEW))
				Expect(inquiries[0].ChildId.Valid).To(BeFalse())
			})

			It("should send the default acknowledgement", func() {
				mails := mockMailer.SentMails()
				Expect(mails).To(HaveLen(1))
				Expect(mails[0].To).To(Equal("jane@example.com"))
				Expect(mails[0].Subject).To(Equal("Regarding Your Inquiry: Volunteering"))
				Expect(mails[0].Body).To(ContainSubstring("A team member will review your inquiry"))
			})

			It("should record the job as succeeded", func() {
				Expect(jobsWithStatus(store.JOB_SUCCEEDED)).To(HaveLen(1))
			})
		})

		Context("When the inquiry is about a known child", func() {
			BeforeEach(func() {
				mockMailer.On("Send", mock.Anything, mock.Anything).Return(nil)
				httpBodyToUse = fmt.Sprintf(`{"name":"Jane","email":"jane@example.com","subject":"Hello","message":"Tell me more","childId":"%s"}`, alice.ChildId.String)
			})

			assertHttpCode(http.StatusCreated)

			It("should link the child", func() {
				Expect(storedInquiries()[0].ChildId.String).To(Equal(alice.ChildId.String))
			})

			It("should send the adoption procedure", func() {
				mails := mockMailer.SentMails()
				Expect(mails).To(HaveLen(1))
				Expect(mails[0].Body).To(ContainSubstring("adoption inquiry regarding Alice"))
				Expect(mails[0].Body).To(ContainSubstring("Legal Finalization"))
			})
		})

		Context("When the child id is unknown", func() {
			BeforeEach(func() {
				mockMailer.On("Send", mock.Anything, mock.Anything).Return(nil)
				httpBodyToUse = fmt.Sprintf(`{"name":"Jane","email":"jane@example.com","subject":"Adoption","message":"Hi","childId":"%s"}`, storetest.Id(99))
			})

			assertHttpCode(http.StatusCreated)

			It("should store the inquiry without a child", func() {
				Expect(storedInquiries()[0].ChildId.Valid).To(BeFalse())
			})

			It("should still use the adoption template", func() {
				Expect(mockMailer.SentMails()[0].Body).To(ContainSubstring("Thank you for your adoption inquiry!"))
			})
		})

		Context("When the child id is malformed", func() {
			BeforeEach(func() {
				mockMailer.On("Send", mock.Anything, mock.Anything).Return(nil)
				httpBodyToUse = `{"name":"Jane","email":"jane@example.com","subject":"Hello","message":"Hi","childId":"abc"}`
			})
			assertHttpCode(http.StatusCreated)
			It("should store the inquiry without a child", func() {
				Expect(storedInquiries()[0].ChildId.Valid).To(BeFalse())
			})
		})

		Context("When the mail cannot be sent", func() {
			BeforeEach(func() {
				mockMailer.On("Send", mock.Anything, mock.Anything).Return(mailer.ErrNotConfigured)
				httpBodyToUse = `{"name":"Jane","email":"jane@example.com","subject":"Hello","message":"Hi"}`
			})

			assertHttpCode(http.StatusCreated)
			assertMessage(MESSAGE_PARTIAL)

			It("should keep the inquiry", func() {
				Expect(storedInquiries()).To(HaveLen(1))
			})

			It("should leave the job failed for a retry", func() {
				failed := jobsWithStatus(store.JOB_FAILED)
				Expect(failed).To(HaveLen(1))
				Expect(failed[0].Type.String).To(Equal(jobs.TYPE_INQUIRY_CONFIRMATION))
				Expect(failed[0].Attempts).To(Equal(1))
			})
		})

		Context("When a field is missing", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name":"Jane","email":"jane@example.com","subject":"  "}`
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("Name, email, subject, and message are required.")
			It("should not store anything", func() {
				Expect(storedInquiries()).To(BeEmpty())
				Expect(mockMailer.SentMails()).To(BeEmpty())
			})
		})

		Context("When the email is invalid", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name":"Jane","email":"not-an-email","subject":"Hello","message":"Hi"}`
			})
			assertHttpCode(http.StatusBadRequest)
		})
	})

	Describe("LIST", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
			httpEndpointToUse = "/api/inquiries"

			_, err := concreteStore.AddInquiry(nil, store.Inquiry{
				Name: store.NullString("Old"), Email: store.NullString("old@example.com"),
				Subject: store.NullString("s"), Message: store.NullString("m"),
				ReceivedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			})
			Expect(err).ToNot(HaveOccurred())
			_, err = concreteStore.AddInquiry(nil, store.Inquiry{
				Name: store.NullString("New"), Email: store.NullString("new@example.com"),
				Subject: store.NullString("s"), Message: store.NullString("m"),
				ChildId:    alice.ChildId,
				ReceivedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			})
			Expect(err).ToNot(HaveOccurred())
		})

		assertHttpCode(http.StatusOK)

		It("should list the newest inquiry first with its child", func() {
			var inquiries []InquiryTransport
			Expect(json.Unmarshal(recorder.Body.Bytes(), &inquiries)).To(Succeed())
			Expect(inquiries).To(HaveLen(2))
			Expect(inquiries[0].Name).To(Equal("New"))
			Expect(inquiries[0].Child).To(Equal(&shared.ChildSummary{Id: alice.ChildId.String, FirstName: "Alice", LastName: "Smith"}))
			Expect(inquiries[0].ReceivedAt).To(Equal("2024-02-01T00:00:00Z"))
			Expect(inquiries[1].Child).To(BeNil())
		})
	})

	Describe("UPDATE STATUS", func() {

		var inquiry store.Inquiry

		BeforeEach(func() {
			httpMethodToUse = http.MethodPatch

			var err error
			inquiry, err = concreteStore.AddInquiry(nil, store.Inquiry{
				Name: store.NullString("Jane"), Email: store.NullString("jane@example.com"),
				Subject: store.NullString("s"), Message: store.NullString("m"),
			})
			Expect(err).ToNot(HaveOccurred())
			httpEndpointToUse = "/api/inquiries/" + inquiry.InquiryId.String
		})

		Context("When the status is valid", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"status":"Responded"}`
			})
			assertHttpCode(http.StatusOK)
			It("should store the status", func() {
				stored, err := concreteStore.GetInquiry(nil, inquiry.InquiryId.String)
				Expect(err).ToNot(HaveOccurred())
				Expect(stored.Status.String).To(Equal(store.INQUIRY_RESPONDED))
			})
		})

		Context("When the status is unknown", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"status":"Archived"}`
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("status must be one of: New, Responded, Closed")
		})

		Context("When the inquiry does not exist", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/inquiries/" + storetest.Id(99)
				httpBodyToUse = `{"status":"Closed"}`
			})
			assertHttpCode(http.StatusNotFound)
		})
	})
})
