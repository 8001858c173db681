package staffassignments_test

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/sri-ravi13/Orphan-Management-System/api/staffassignments"
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

		httpMethodToUse, httpEndpointToUse, httpBodyToUse string

		staff1, staff2 store.User
		alice, bob     store.Child
		assignment     store.StaffAssignment
	)

	var (
		assertHttpCode = func(code int) {
			It(fmt.Sprintf("should respond with status code %d", code), func() {
				Expect(recorder.Code).To(Equal(code))
			})
		}

		assertJsonResponse = func(response string) {
			It("should respond with json response", func() {
				Expect(recorder.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
				Expect(recorder.Body.String()).To(MatchJSON(response))
			})
		}

		assertMessage = func(message string) {
			It(fmt.Sprintf("should respond with message %q", message), func() {
				body := map[string]interface{}{}
				Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
				Expect(body["message"]).To(Equal(message))
			})
		}

		body = func(staff store.User, child store.Child) string {
			return fmt.Sprintf(`{"staff_id":"%s","child_id":"%s"}`, staff.UserId.String, child.ChildId.String)
		}
	)

	BeforeEach(func() {
		logger := log.NewLoggerWithWriter("test", ioutil.Discard)
		concreteStore = storetest.NewStore()
		recorder = httptest.NewRecorder()

		staff1 = storetest.MustAddUser(concreteStore, "staff1", roles.ROLE_STAFF)
		staff2 = storetest.MustAddUser(concreteStore, "staff2", roles.ROLE_STAFF)
		alice = storetest.MustAddChild(concreteStore, "Alice", "Smith")
		bob = storetest.MustAddChild(concreteStore, "Bob", "Jones")

		var err error
		assignment, err = concreteStore.AddStaffAssignment(nil, store.StaffAssignment{
			StaffId:    staff1.UserId,
			ChildId:    alice.ChildId,
			AssignedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		Expect(err).ToNot(HaveOccurred())

		handlerFactory := HandlerFactory{
			Service: &StaffAssignmentService{
				Store:  concreteStore,
				Logger: logger,
			},
		}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/staff-assignments", handlerFactory.List(opts)).Methods(http.MethodGet)
		router.Handle("/api/staff-assignments", handlerFactory.Add(opts)).Methods(http.MethodPost)
		router.Handle("/api/staff-assignments/{id}", handlerFactory.Get(opts)).Methods(http.MethodGet)
		router.Handle("/api/staff-assignments/{id}", handlerFactory.Update(opts)).Methods(http.MethodPut)
		router.Handle("/api/staff-assignments/{id}", handlerFactory.Delete(opts)).Methods(http.MethodDelete)

		httpBodyToUse = ""
	})

	AfterEach(func() {
		concreteStore.Db.Close()
	})

	JustBeforeEach(func() {
		req, _ := http.NewRequest(httpMethodToUse, httpEndpointToUse, strings.NewReader(httpBodyToUse))
		router.ServeHTTP(recorder, req)
	})

	Describe("LIST", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
			httpEndpointToUse = "/api/staff-assignments"
		})

		Context("When assignments exist", func() {
			assertHttpCode(http.StatusOK)
			assertJsonResponse(fmt.Sprintf(`[{"id":"%s","staff_id":"%s","staff":{"id":"%s","username":"staff1","name":"staff1"},"child_id":"%s","child":{"id":"%s","first_name":"Alice","last_name":"Smith"},"assigned_at":"2024-01-01T00:00:00Z"}]`,
				storetest.Id(5), storetest.Id(1), storetest.Id(1), storetest.Id(3), storetest.Id(3)))
		})

		Context("When filtering on another staff member", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/staff-assignments?staff_id=" + staff2.UserId.String
			})
			assertHttpCode(http.StatusOK)
			assertJsonResponse(`[]`)
		})

		Context("When the filter is malformed", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/staff-assignments?staff_id=42"
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("Invalid staff_id format provided for filtering.")
		})
	})

	Describe("GET", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
		})

		Context("When the assignment exists", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/staff-assignments/" + assignment.StaffAssignmentId.String
			})
			assertHttpCode(http.StatusOK)
		})

		Context("When the assignment does not exist", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/staff-assignments/" + storetest.Id(99)
			})
			assertHttpCode(http.StatusNotFound)
			assertMessage("staff assignment not found")
		})
	})

	Describe("CREATE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPost
			httpEndpointToUse = "/api/staff-assignments"
		})

		Context("When the pair is new", func() {
			BeforeEach(func() {
				httpBodyToUse = body(staff2, alice)
			})
			assertHttpCode(http.StatusCreated)
			It("should return the assignment with its summaries", func() {
				created := StaffAssignmentTransport{}
				Expect(json.Unmarshal(recorder.Body.Bytes(), &created)).To(Succeed())
				Expect(created.Id).To(Equal(storetest.Id(6)))
				Expect(created.Staff.Username).To(Equal("staff2"))
				Expect(created.Child.FirstName).To(Equal("Alice"))
			})
		})

		Context("When the pair already exists", func() {
			BeforeEach(func() {
				httpBodyToUse = body(staff1, alice)
			})
			assertHttpCode(http.StatusConflict)
			assertMessage("This staff member may already be assigned to this child.")
		})

		Context("When an id is missing", func() {
			BeforeEach(func() {
				httpBodyToUse = fmt.Sprintf(`{"staff_id":"%s"}`, staff1.UserId.String)
			})
			assertHttpCode(http.StatusBadRequest)
			assertMessage("Child ID and Staff ID are required")
		})

		Context("When the staff member does not exist", func() {
			BeforeEach(func() {
				httpBodyToUse = fmt.Sprintf(`{"staff_id":"%s","child_id":"%s"}`, storetest.Id(99), bob.ChildId.String)
			})
			assertHttpCode(http.StatusNotFound)
			assertMessage("user not found")
		})

		Context("When the child does not exist", func() {
			BeforeEach(func() {
				httpBodyToUse = fmt.Sprintf(`{"staff_id":"%s","child_id":"%s"}`, staff1.UserId.String, storetest.Id(99))
			})
			assertHttpCode(http.StatusNotFound)
			assertMessage("child not found")
		})
	})

	Describe("UPDATE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPut
			httpEndpointToUse = "/api/staff-assignments/" + assignment.StaffAssignmentId.String
		})

		Context("When the assignment moves to another child", func() {
			BeforeEach(func() {
				httpBodyToUse = body(staff1, bob)
			})
			assertHttpCode(http.StatusOK)
			It("should store the new child", func() {
				updated, err := concreteStore.GetStaffAssignment(nil, assignment.StaffAssignmentId.String)
				Expect(err).ToNot(HaveOccurred())
				Expect(updated.ChildId.String).To(Equal(bob.ChildId.String))
			})
		})

		Context("When the update collides with another assignment", func() {
			BeforeEach(func() {
				_, err := concreteStore.AddStaffAssignment(nil, store.StaffAssignment{StaffId: staff1.UserId, ChildId: bob.ChildId})
				Expect(err).ToNot(HaveOccurred())
				httpBodyToUse = body(staff1, bob)
			})
			assertHttpCode(http.StatusConflict)
		})

		Context("When the assignment does not exist", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/staff-assignments/" + storetest.Id(99)
				httpBodyToUse = body(staff2, bob)
			})
			assertHttpCode(http.StatusNotFound)
		})
	})

	Describe("DELETE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodDelete
			httpEndpointToUse = "/api/staff-assignments/" + assignment.StaffAssignmentId.String
		})

		assertHttpCode(http.StatusOK)
		assertJsonResponse(`{"message":"Assignment deleted successfully"}`)
	})
})
