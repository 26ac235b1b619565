package grading

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pmeredith/marksman/pkg/formatting"
	"github.com/pmeredith/marksman/pkg/handlers"
	"github.com/pmeredith/marksman/pkg/routes"
)

// Handler provides HTTP endpoints for grading operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "grading"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for grading endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/grading",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/reference", Handler: h.SetReference},
			{Method: "GET", Pattern: "/reference", Handler: h.Reference},
			{Method: "POST", Pattern: "/grade", Handler: h.Grade},
			{Method: "GET", Pattern: "/status", Handler: h.Status},
		},
	}
}

// SetReference accepts a multipart upload of the teacher's reference
// material and installs it for the session.
func (h *Handler) SetReference(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.uploadedFile(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	ref, err := h.sys.SetReference(r.Context(), data, filename)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, ref)
}

// Reference returns the current reference material summary.
func (h *Handler) Reference(w http.ResponseWriter, r *http.Request) {
	ref := h.sys.Reference()
	if ref == nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNoReference)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ref)
}

type directTextRequest struct {
	Text    string `json:"text"`
	Student string `json:"student"`
}

// Grade accepts one submission (a multipart file upload or a JSON body
// with direct text), grades it against the session reference, and returns
// the structured result. With ?format=text the downloadable grade document
// is returned instead.
func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.submitCommand(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Grade(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, result.Render())
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Status reports whether a reference is set and which model last succeeded.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"reference_set": false,
		"last_model":    h.sys.LastModel(),
	}

	if ref := h.sys.Reference(); ref != nil {
		status["reference_set"] = true
		status["reference"] = ref
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}

func (h *Handler) submitCommand(r *http.Request) (SubmitCommand, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req directTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return SubmitCommand{}, ErrInvalidSubmission
		}
		return SubmitCommand{
			Text:    req.Text,
			Method:  MethodText,
			Student: req.Student,
		}, nil
	}

	data, filename, err := h.uploadedFile(r)
	if err != nil {
		return SubmitCommand{}, err
	}

	method := Method(r.FormValue("method"))
	if method == "" {
		method = MethodFile
	}

	return SubmitCommand{
		Data:     data,
		Filename: filename,
		Method:   method,
		Student:  r.FormValue("student"),
	}, nil
}

func (h *Handler) uploadedFile(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, "", ErrFileTooLarge
		}
		return nil, "", ErrInvalidSubmission
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", ErrInvalidSubmission
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", ErrInvalidSubmission
	}

	if int64(len(data)) > h.maxUploadSize {
		h.logger.Warn(
			"upload rejected",
			"size", formatting.FormatBytes(int64(len(data)), 1),
			"limit", formatting.FormatBytes(h.maxUploadSize, 1),
		)
		return nil, "", ErrFileTooLarge
	}

	return data, header.Filename, nil
}
