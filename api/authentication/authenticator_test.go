package authentication_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"

	. "github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/claims"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/roles"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"
	"github.com/sri-ravi13/Orphan-Management-System/common/store/storetest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var jsonUnmarshal = json.Unmarshal

var whoAmI = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	caller, ok := claims.GetCaller(r.Context())
	if !ok {
		shared.WriteJSON(w, map[string]interface{}{"anonymous": true}, http.StatusOK)
		return
	}
	shared.WriteJSON(w, caller, http.StatusOK)
})

type mapCache struct {
	values map[string]claims.Caller
	gets   int
}

func (c *mapCache) Get(_ context.Context, userId string) (claims.Caller, bool) {
	c.gets++
	caller, ok := c.values[userId]
	return caller, ok
}

func (c *mapCache) Set(_ context.Context, caller claims.Caller) {
	c.values[caller.UserId] = caller
}

func (c *mapCache) Invalidate(_ context.Context, userId string) {
	delete(c.values, userId)
}

var _ = Describe("Authenticator", func() {

	var (
		recorder      *httptest.ResponseRecorder
		concreteStore *store.Store
		authenticator *Authenticator
		handler       http.Handler
		staff         store.User
		headerToUse   string
	)

	var (
		assertHttpCode = func(code int) {
			It(fmt.Sprintf("should respond with status code %d", code), func() {
				Expect(recorder.Code).To(Equal(code))
			})
		}

		assertJsonResponse = func(response string) {
			It("should respond with json response", func() {
				Expect(recorder.Body.String()).To(MatchJSON(response))
			})
		}
	)

	BeforeEach(func() {
		concreteStore = storetest.NewStore()
		staff = storetest.MustAddUser(concreteStore, "staff1", roles.ROLE_STAFF)
		recorder = httptest.NewRecorder()
		authenticator = &Authenticator{
			Store:  concreteStore,
			Config: &shared.AppConfig{AuthMode: shared.AUTH_MODE_HEADER},
			Logger: log.NewLoggerWithWriter("test", ioutil.Discard),
		}
		headerToUse = staff.UserId.String
	})

	AfterEach(func() {
		concreteStore.Db.Close()
	})

	JustBeforeEach(func() {
		req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
		if headerToUse != "" {
			req.Header.Set(HEADER_USER_ID, headerToUse)
		}
		handler.ServeHTTP(recorder, req)
	})

	Describe("Identity", func() {

		BeforeEach(func() {
			handler = authenticator.Identity(whoAmI)
		})

		Context("When the header names an existing user", func() {
			assertHttpCode(http.StatusOK)
			assertJsonResponse(fmt.Sprintf(`{"id":"%s","username":"staff1","name":"staff1","email":"staff1@example.com","role":"Staff"}`, storetest.Id(1)))
		})

		Context("When the header is missing", func() {
			BeforeEach(func() { headerToUse = "" })
			assertHttpCode(http.StatusUnauthorized)
			assertJsonResponse(`{"message":"Authentication required: Missing user identifier header.","error":"Authentication required: Missing user identifier header."}`)
		})

		Context("When the header is not an identifier", func() {
			BeforeEach(func() { headerToUse = "42" })
			assertHttpCode(http.StatusBadRequest)
			assertJsonResponse(`{"message":"Invalid user identifier format.","error":"Invalid user identifier format."}`)
		})

		Context("When the user does not exist", func() {
			BeforeEach(func() { headerToUse = storetest.Id(99) })
			assertHttpCode(http.StatusUnauthorized)
			assertJsonResponse(`{"message":"Authentication failed: User not found.","error":"Authentication failed: User not found."}`)
		})

		Context("When a cache is configured", func() {
			var cache *mapCache

			BeforeEach(func() {
				cache = &mapCache{values: map[string]claims.Caller{}}
				authenticator.Cache = cache
			})

			It("should remember the resolved caller", func() {
				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(cache.values).To(HaveKey(staff.UserId.String))
			})

			It("should serve the next request from the cache once the user is gone", func() {
				concreteStore.DeleteUser(nil, staff.UserId.String)
				second := httptest.NewRecorder()
				req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
				req.Header.Set(HEADER_USER_ID, staff.UserId.String)
				handler.ServeHTTP(second, req)
				Expect(second.Code).To(Equal(http.StatusOK))
				Expect(cache.gets).To(Equal(2))
			})
		})
	})

	Describe("OptionalIdentity", func() {

		BeforeEach(func() {
			handler = authenticator.OptionalIdentity(whoAmI)
		})

		Context("When the header is missing", func() {
			BeforeEach(func() { headerToUse = "" })
			assertHttpCode(http.StatusOK)
			assertJsonResponse(`{"anonymous":true}`)
		})

		Context("When the header is malformed", func() {
			BeforeEach(func() { headerToUse = "not-an-id" })
			assertHttpCode(http.StatusOK)
			assertJsonResponse(`{"anonymous":true}`)
		})

		Context("When the header is valid", func() {
			assertHttpCode(http.StatusOK)
			It("should attach the caller", func() {
				Expect(recorder.Body.String()).To(ContainSubstring(staff.UserId.String))
			})
		})
	})

	Describe("Roles", func() {

		Context("When the caller holds the role", func() {
			BeforeEach(func() {
				handler = authenticator.Identity(authenticator.Roles(whoAmI, roles.ROLE_ADMIN, roles.ROLE_STAFF))
			})
			assertHttpCode(http.StatusOK)
		})

		Context("When the caller does not hold the role", func() {
			BeforeEach(func() {
				handler = authenticator.Identity(authenticator.Roles(whoAmI, roles.ROLE_ADMIN))
			})
			assertHttpCode(http.StatusForbidden)
		})
	})

	Describe("Token mode", func() {

		BeforeEach(func() {
			authenticator.Config = &shared.AppConfig{AuthMode: shared.AUTH_MODE_TOKEN, TokenSecret: "secret", TokenTtl: 3600000000000}
			handler = authenticator.Identity(whoAmI)
		})

		Context("When only the header is sent", func() {
			assertHttpCode(http.StatusUnauthorized)
			assertJsonResponse(`{"message":"Authentication required: Missing bearer token.","error":"Authentication required: Missing bearer token."}`)
		})

		Context("When the token is signed with another secret", func() {
			It("should reject it", func() {
				forged := &Authenticator{Config: &shared.AppConfig{TokenSecret: "other", TokenTtl: 3600000000000}}
				token, err := forged.IssueToken(CallerOf(staff))
				Expect(err).To(BeNil())

				rec := httptest.NewRecorder()
				req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
				req.Header.Set("Authorization", "Bearer "+token)
				handler.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			})
		})

		Context("When the token has expired", func() {
			It("should reject it", func() {
				expired := &Authenticator{Config: &shared.AppConfig{TokenSecret: "secret", TokenTtl: -1000000000}}
				token, _ := expired.IssueToken(CallerOf(staff))

				rec := httptest.NewRecorder()
				req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
				req.Header.Set("Authorization", "Bearer "+token)
				handler.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			})
		})
	})
})
