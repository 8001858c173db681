package jobs_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	. "github.com/sri-ravi13/Orphan-Management-System/api/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/roles"
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

		httpEndpointToUse, callerToUse string

		admin, staff          store.User
		pendingJob, failedJob store.BackgroundJob
	)

	var (
		assertHttpCode = func(code int) {
			It(fmt.Sprintf("should respond with status code %d", code), func() {
				Expect(recorder.Code).To(Equal(code))
			})
		}

		addJob = func(jobType, payload string) store.BackgroundJob {
			job, err := concreteStore.AddJob(nil, store.BackgroundJob{
				Type:    store.NullString(jobType),
				Payload: store.NullString(payload),
			})
			Expect(err).ToNot(HaveOccurred())
			return job
		}
	)

	BeforeEach(func() {
		logger := log.NewLoggerWithWriter("test", ioutil.Discard)
		concreteStore = storetest.NewStore()
		recorder = httptest.NewRecorder()

		admin = storetest.MustAddUser(concreteStore, "admin", roles.ROLE_ADMIN)
		staff = storetest.MustAddUser(concreteStore, "staff", roles.ROLE_STAFF)

		pendingJob = addJob("file_cleanup", `{"paths":["/uploads/a.png"]}`)
		failedJob = addJob("inquiry_confirmation", `{"name":"Jane"}`)
		claimed, err := concreteStore.MarkJobRunning(nil, failedJob.JobId.String, time.Time{})
		Expect(err).ToNot(HaveOccurred())
		Expect(claimed).To(BeTrue())
		Expect(concreteStore.MarkJobFailed(nil, failedJob.JobId.String, errors.New("smtp down"))).To(Succeed())

		authenticator := &authentication.Authenticator{
			Store:  concreteStore,
			Config: &shared.AppConfig{AuthMode: shared.AUTH_MODE_HEADER},
			Logger: logger,
		}
		handlerFactory := HandlerFactory{
			Service: &JobService{
				Store:  concreteStore,
				Logger: logger,
			},
		}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/jobs", authenticator.Identity(authenticator.Roles(handlerFactory.List(opts), roles.ROLE_ADMIN))).Methods(http.MethodGet)
		router.Handle("/api/jobs/{id}", authenticator.Identity(authenticator.Roles(handlerFactory.Get(opts), roles.ROLE_ADMIN))).Methods(http.MethodGet)

		callerToUse = admin.UserId.String
	})

	AfterEach(func() {
		concreteStore.Db.Close()
	})

	JustBeforeEach(func() {
		req, _ := http.NewRequest(http.MethodGet, httpEndpointToUse, nil)
		if callerToUse != "" {
			req.Header.Set(authentication.HEADER_USER_ID, callerToUse)
		}
		router.ServeHTTP(recorder, req)
	})

	Describe("LIST", func() {

		Context("When filtering on failed jobs", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/jobs?status=failed"
			})

			assertHttpCode(http.StatusOK)

			It("should return only the failed job with its error", func() {
				var jobs []JobTransport
				Expect(json.Unmarshal(recorder.Body.Bytes(), &jobs)).To(Succeed())
				Expect(jobs).To(HaveLen(1))
				Expect(jobs[0].Id).To(Equal(failedJob.JobId.String))
				Expect(jobs[0].Attempts).To(Equal(1))
				Expect(*jobs[0].LastError).To(Equal("smtp down"))
				Expect(string(jobs[0].Payload)).To(MatchJSON(`{"name":"Jane"}`))
			})
		})

		Context("When no filter is given", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/jobs"
			})
			It("should return every job", func() {
				var jobs []JobTransport
				Expect(json.Unmarshal(recorder.Body.Bytes(), &jobs)).To(Succeed())
				Expect(jobs).To(HaveLen(2))
			})
		})

		Context("When the status is unknown", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/jobs?status=lost"
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("When the caller is not an admin", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/jobs"
				callerToUse = staff.UserId.String
			})
			assertHttpCode(http.StatusForbidden)
		})

		Context("When the caller is not identified", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/jobs"
				callerToUse = ""
			})
			assertHttpCode(http.StatusUnauthorized)
		})
	})

	Describe("GET", func() {

		Context("When the job exists", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/jobs/" + pendingJob.JobId.String
			})
			assertHttpCode(http.StatusOK)
			It("should return the pending job", func() {
				job := JobTransport{}
				Expect(json.Unmarshal(recorder.Body.Bytes(), &job)).To(Succeed())
				Expect(job.Status).To(Equal(store.JOB_PENDING))
				Expect(job.Type).To(Equal("file_cleanup"))
				Expect(job.LastError).To(BeNil())
				Expect(job.CompletedAt).To(BeNil())
			})
		})

		Context("When the job does not exist", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/jobs/" + storetest.Id(99)
			})
			assertHttpCode(http.StatusNotFound)
		})
	})
})
