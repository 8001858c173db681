package users_test

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	. "github.com/sri-ravi13/Orphan-Management-System/api/users"
	"github.com/sri-ravi13/Orphan-Management-System/common/claims"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/roles"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"
	"github.com/sri-ravi13/Orphan-Management-System/common/store/storetest"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type mapCache struct {
	values map[string]claims.Caller
}

func (c *mapCache) Get(_ context.Context, userId string) (claims.Caller, bool) {
	caller, ok := c.values[userId]
	return caller, ok
}

func (c *mapCache) Set(_ context.Context, caller claims.Caller) {
	c.values[caller.UserId] = caller
}

func (c *mapCache) Invalidate(_ context.Context, userId string) {
	delete(c.values, userId)
}

var _ = Describe("Cached identities", func() {

	var (
		router        *mux.Router
		concreteStore *store.Store
		cache         *mapCache
		admin, other  store.User
	)

	var serve = func(method, endpoint, body, callerId string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		req, _ := http.NewRequest(method, endpoint, strings.NewReader(body))
		req.Header.Set(authentication.HEADER_USER_ID, callerId)
		router.ServeHTTP(recorder, req)
		return recorder
	}

	BeforeEach(func() {
		logger := log.NewLoggerWithWriter("test", ioutil.Discard)
		concreteStore = storetest.NewStore()
		cache = &mapCache{values: map[string]claims.Caller{}}

		admin = storetest.MustAddUser(concreteStore, "admin", roles.ROLE_ADMIN)
		other = storetest.MustAddUser(concreteStore, "admin2", roles.ROLE_ADMIN)

		authenticator := &authentication.Authenticator{
			Store:  concreteStore,
			Config: &shared.AppConfig{AuthMode: shared.AUTH_MODE_HEADER},
			Logger: logger,
			Cache:  cache,
		}
		handlerFactory := HandlerFactory{
			Service: &UserService{
				Store:  concreteStore,
				Logger: logger,
				Cache:  cache,
			},
		}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}
		adminOnly := func(h http.Handler) http.Handler {
			return authenticator.Identity(authenticator.Roles(h, roles.ROLE_ADMIN))
		}

		router = mux.NewRouter()
		router.Handle("/api/users", adminOnly(handlerFactory.List(opts))).Methods(http.MethodGet)
		router.Handle("/api/users/{id}", adminOnly(handlerFactory.Update(opts))).Methods(http.MethodPut)
		router.Handle("/api/users/{id}", adminOnly(handlerFactory.Delete(opts))).Methods(http.MethodDelete)

		Expect(serve(http.MethodGet, "/api/users", "", other.UserId.String).Code).To(Equal(http.StatusOK))
		Expect(cache.values).To(HaveKey(other.UserId.String))
	})

	AfterEach(func() {
		concreteStore.Db.Close()
	})

	Context("When the user is demoted", func() {
		BeforeEach(func() {
			recorder := serve(http.MethodPut, "/api/users/"+other.UserId.String,
				`{"username":"admin2","email":"admin2@example.com","role":"Staff"}`, admin.UserId.String)
			Expect(recorder.Code).To(Equal(http.StatusOK))
		})

		It("should drop the cached caller", func() {
			Expect(cache.values).ToNot(HaveKey(other.UserId.String))
		})

		It("should reject the next admin request", func() {
			Expect(serve(http.MethodGet, "/api/users", "", other.UserId.String).Code).To(Equal(http.StatusForbidden))
		})
	})

	Context("When the user is deleted", func() {
		BeforeEach(func() {
			recorder := serve(http.MethodDelete, "/api/users/"+other.UserId.String, "", admin.UserId.String)
			Expect(recorder.Code).To(Equal(http.StatusOK))
		})

		It("should reject the next request", func() {
			Expect(serve(http.MethodGet, "/api/users", "", other.UserId.String).Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
