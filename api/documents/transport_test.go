package documents_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	. "github.com/sri-ravi13/Orphan-Management-System/api/documents"
	"github.com/sri-ravi13/Orphan-Management-System/common/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/messaging"
	"github.com/sri-ravi13/Orphan-Management-System/common/storage"
	storagemocks "github.com/sri-ravi13/Orphan-Management-System/common/storage/mocks"
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
		mockStorage   *storagemocks.MockStorage

		httpMethodToUse, httpEndpointToUse string
		fileToUse                          []byte
		fileNameToUse                      string

		child store.Child
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

		mustAddDocument = func(name, path string, uploadDate time.Time) store.Document {
			document, err := concreteStore.AddDocument(nil, store.Document{
				ChildId:    child.ChildId,
				Filename:   store.NullString(name),
				Path:       store.NullString(path),
				Mimetype:   store.NullString("application/pdf"),
				Size:       12,
				UploadDate: uploadDate,
			})
			Expect(err).ToNot(HaveOccurred())
			return document
		}
	)

	BeforeEach(func() {
		logger := log.NewLoggerWithWriter("test", ioutil.Discard)
		concreteStore = storetest.NewStore()
		mockStorage = &storagemocks.MockStorage{}
		recorder = httptest.NewRecorder()

		child = storetest.MustAddChild(concreteStore, "Alice", "Smith")

		config := &shared.AppConfig{MaxUploadSizeMb: 1, JobMaxAttempts: 3}
		handlerFactory := HandlerFactory{
			Config: config,
			Service: &DocumentService{
				Store: concreteStore,
				Jobs: &jobs.Runner{
					Store:  concreteStore,
					Queue:  messaging.NewMemoryQueue(16),
					Config: config,
					Logger: logger,
				},
				Storage: mockStorage,
				Logger:  logger,
			},
		}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/children/{childId}/documents", shared.LimitUploadBody(handlerFactory.Upload(opts), config.MaxUploadSize())).Methods(http.MethodPost)
		router.Handle("/api/children/{childId}/documents", handlerFactory.List(opts)).Methods(http.MethodGet)
		router.Handle("/api/documents/{docId}/download", handlerFactory.Download(opts)).Methods(http.MethodGet)
		router.Handle("/api/documents/{docId}", handlerFactory.Delete(opts)).Methods(http.MethodDelete)

		fileToUse = []byte("hello, this is a plain text report")
		fileNameToUse = "My report (1).txt"
	})

	AfterEach(func() {
		concreteStore.Db.Close()
	})

	JustBeforeEach(func() {
		var req *http.Request
		if httpMethodToUse == http.MethodPost {
			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			writer.WriteField("description", "ignored")
			if fileToUse != nil {
				part, _ := writer.CreateFormFile("documentFile", fileNameToUse)
				part.Write(fileToUse)
			}
			writer.Close()
			req, _ = http.NewRequest(httpMethodToUse, httpEndpointToUse, body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
		} else {
			req, _ = http.NewRequest(httpMethodToUse, httpEndpointToUse, nil)
		}
		router.ServeHTTP(recorder, req)
	})

	Describe("UPLOAD", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPost
			httpEndpointToUse = "/api/children/" + child.ChildId.String + "/documents"
		})

		Context("When the child exists", func() {
			BeforeEach(func() {
				prefix := "doc-" + child.ChildId.String + "-"
				mockStorage.On("Store", mock.Anything, mock.MatchedBy(func(name string) bool {
					return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, "-My_report__1_.txt")
				}), mock.Anything).Return("/uploads/doc.txt", nil)
			})

			assertHttpCode(http.StatusCreated)

			It("should return the stored document", func() {
				body := struct {
					Message  string            `json:"message"`
					Document DocumentTransport `json:"document"`
				}{}
				Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
				Expect(body.Message).To(Equal("Document uploaded successfully"))
				Expect(body.Document.Id).To(Equal(storetest.Id(2)))
				Expect(body.Document.ChildId).To(Equal(child.ChildId.String))
				Expect(body.Document.Filename).To(Equal("My report (1).txt"))
				Expect(body.Document.Path).To(Equal("/uploads/doc.txt"))
				Expect(body.Document.Mimetype).To(HavePrefix("text/plain"))
				Expect(body.Document.Size).To(Equal(int64(len(fileToUse))))
			})
		})

		Context("When the child does not exist", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/children/" + storetest.Id(99) + "/documents"
			})
			assertHttpCode(http.StatusNotFound)
			assertJsonResponse(`{"message":"Child not found."}`)
			It("should not store the file", func() {
				Expect(mockStorage.CallsForMethod("Store")).To(BeEmpty())
			})
		})

		Context("When no file is sent", func() {
			BeforeEach(func() {
				fileToUse = nil
			})
			assertHttpCode(http.StatusBadRequest)
			assertJsonResponse(`{"message":"No file uploaded."}`)
		})

		Context("When the file is too large", func() {
			BeforeEach(func() {
				fileToUse = bytes.Repeat([]byte("a"), 2<<20)
			})
			assertHttpCode(http.StatusBadRequest)
			It("should not store the file", func() {
				Expect(mockStorage.CallsForMethod("Store")).To(BeEmpty())
			})
		})

		Context("When the body is cut off by the route limit", func() {
			BeforeEach(func() {
				fileToUse = bytes.Repeat([]byte("a"), 3<<20)
			})
			assertHttpCode(http.StatusBadRequest)
			assertJsonResponse(`{"message":"uploaded file is too large","error":"uploaded file is too large"}`)
			It("should not store the file", func() {
				Expect(mockStorage.CallsForMethod("Store")).To(BeEmpty())
			})
		})

		Context("When the storage fails", func() {
			BeforeEach(func() {
				mockStorage.On("Store", mock.Anything, mock.Anything, mock.Anything).Return("", fmt.Errorf("disk full"))
			})
			assertHttpCode(http.StatusInternalServerError)
			assertJsonResponse(`{"message":"An internal server error occurred."}`)
		})
	})

	Describe("LIST", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
			httpEndpointToUse = "/api/children/" + child.ChildId.String + "/documents"
			mustAddDocument("old.pdf", "/uploads/old.pdf", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			mustAddDocument("new.pdf", "/uploads/new.pdf", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		})

		assertHttpCode(http.StatusOK)
		assertJsonResponse(fmt.Sprintf(`[
			{"id":"%s","child_id":"%s","filename":"new.pdf","path":"/uploads/new.pdf","mimetype":"application/pdf","size":12,"upload_date":"2024-02-01T00:00:00Z"},
			{"id":"%s","child_id":"%s","filename":"old.pdf","path":"/uploads/old.pdf","mimetype":"application/pdf","size":12,"upload_date":"2024-01-01T00:00:00Z"}
		]`, storetest.Id(3), storetest.Id(1), storetest.Id(2), storetest.Id(1)))
	})

	Describe("DOWNLOAD", func() {

		var document store.Document

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
			document = mustAddDocument("report.pdf", "/uploads/report.pdf", time.Now().UTC())
			httpEndpointToUse = "/api/documents/" + document.DocumentId.String + "/download"
		})

		Context("When the file exists", func() {
			BeforeEach(func() {
				mockStorage.On("Open", mock.Anything, "/uploads/report.pdf").Return(ioutil.NopCloser(strings.NewReader("%PDF-1.4")), nil)
			})
			assertHttpCode(http.StatusOK)
			It("should send the file as an attachment", func() {
				Expect(recorder.Header().Get("Content-Type")).To(Equal("application/pdf"))
				Expect(recorder.Header().Get("Content-Disposition")).To(Equal(`attachment; filename=report.pdf`))
				Expect(recorder.Body.String()).To(Equal("%PDF-1.4"))
			})
		})

		Context("When the file is missing", func() {
			BeforeEach(func() {
				mockStorage.On("Open", mock.Anything, "/uploads/report.pdf").Return(nil, storage.ErrNotFound)
			})
			assertHttpCode(http.StatusNotFound)
			assertJsonResponse(`{"message":"File not found on server."}`)
		})

		Context("When the document does not exist", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/documents/" + storetest.Id(99) + "/download"
			})
			assertHttpCode(http.StatusNotFound)
			assertJsonResponse(`{"message":"Document not found."}`)
		})
	})

	Describe("DELETE", func() {

		var document store.Document

		BeforeEach(func() {
			httpMethodToUse = http.MethodDelete
			document = mustAddDocument("report.pdf", "/uploads/report.pdf", time.Now().UTC())
			httpEndpointToUse = "/api/documents/" + document.DocumentId.String
		})

		Context("When the document exists", func() {
			assertHttpCode(http.StatusOK)
			assertJsonResponse(`{"message":"Document deleted successfully"}`)
			It("should schedule the file for cleanup", func() {
				pending, err := concreteStore.ListJobs(nil, store.JOB_PENDING)
				Expect(err).ToNot(HaveOccurred())
				Expect(pending).To(HaveLen(1))
				Expect(pending[0].Payload.String).To(MatchJSON(`{"paths":["/uploads/report.pdf"]}`))
			})
		})

		Context("When the document does not exist", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/documents/" + storetest.Id(99)
			})
			assertHttpCode(http.StatusNotFound)
			assertJsonResponse(`{"message":"Document not found."}`)
		})
	})
})
