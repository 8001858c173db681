package documents

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type DocumentTransport struct {
	Id         string `json:"id"`
	ChildId    string `json:"child_id"`
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	Mimetype   string `json:"mimetype"`
	Size       int64  `json:"size"`
	UploadDate string `json:"upload_date"`
}

type uploadRequest struct {
	ChildId string
	File    *shared.Upload
}

type documentRequest struct {
	Id string
}

type downloadResponse struct {
	Filename string
	Mimetype string
	Content  []byte
}

type HandlerFactory struct {
	Service Service           `inject:""`
	Config  *shared.AppConfig `inject:""`
}

func (h *HandlerFactory) Upload(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUploadEndpoint(h.Service),
		decodeUploadRequest(h.Config.MaxUploadSize()),
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		decodeChildIdRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Download(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDownloadEndpoint(h.Service),
		decodeDocumentRequest,
		encodeDownloadResponse,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeDocumentRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeUploadEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(uploadRequest)
		document, err := svc.AddDocument(ctx, req.ChildId, req.File)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"message":  "Document uploaded successfully",
			"document": storeToTransport(document),
		}, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(uploadRequest)
		documents, err := svc.ListDocuments(ctx, req.ChildId)
		if err != nil {
			return nil, err
		}
		response := []DocumentTransport{}
		for _, document := range documents {
			response = append(response, storeToTransport(document))
		}
		return response, nil
	}
}

func makeDownloadEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(documentRequest)
		document, content, err := svc.DownloadDocument(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return downloadResponse{
			Filename: document.Filename.String,
			Mimetype: document.Mimetype.String,
			Content:  content,
		}, nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(documentRequest)
		if err := svc.DeleteDocument(ctx, req.Id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Document deleted successfully"}, nil
	}
}

func decodeUploadRequest(maxBytes int64) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (interface{}, error) {
		childId, err := shared.PathId(r, "childId")
		if err != nil {
			return nil, err
		}
		if err := shared.ParseMultipart(r, maxBytes); err != nil {
			return nil, err
		}
		file, err := shared.ReadUpload(r, "documentFile", maxBytes)
		if err != nil {
			return nil, err
		}
		return uploadRequest{ChildId: childId, File: file}, nil
	}
}

func decodeChildIdRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId, err := shared.PathId(r, "childId")
	if err != nil {
		return nil, err
	}
	return uploadRequest{ChildId: childId}, nil
}

func decodeDocumentRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := shared.PathId(r, "docId")
	if err != nil {
		return nil, err
	}
	return documentRequest{Id: id}, nil
}

func encodeDownloadResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	file := response.(downloadResponse)
	contentType := file.Mimetype
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(file.Content)
	return err
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch errors.Cause(err) {
	case ErrNoFile:
		shared.WriteJSON(w, map[string]string{"message": err.Error()}, http.StatusBadRequest)
	case ErrChildNotFound, ErrDocumentNotFound, ErrFileNotFound:
		shared.WriteJSON(w, map[string]string{"message": err.Error()}, http.StatusNotFound)
	default:
		shared.EncodeError(ctx, err, w)
	}
}

func storeToTransport(document store.Document) DocumentTransport {
	return DocumentTransport{
		Id:         document.DocumentId.String,
		ChildId:    document.ChildId.String,
		Filename:   document.Filename.String,
		Path:       document.Path.String,
		Mimetype:   document.Mimetype.String,
		Size:       document.Size,
		UploadDate: document.UploadDate.UTC().Format(time.RFC3339),
	}
}
