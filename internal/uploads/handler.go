package uploads

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"file-uploader/internal/ingest"
	"file-uploader/internal/placement"
	"file-uploader/internal/shared/server/middleware"
	"file-uploader/internal/shared/server/respond"
)

const defaultMaxRequestBytes = 32 << 20 // 32MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc   *Service
	Spool *ingest.Spool
	// BasePath and Validator apply to every request.
	BasePath        string
	Validator       placement.Validator
	MaxRequestBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, spool *ingest.Spool, basePath string, validator placement.Validator) *Handler {
	return &Handler{
		Svc:             svc,
		Spool:           spool,
		BasePath:        basePath,
		Validator:       validator,
		MaxRequestBytes: defaultMaxRequestBytes,
	}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads", h.upload)
	rg.POST("/uploads/batch", h.uploadBatch)
	rg.GET("/uploads", h.list)
	rg.GET("/uploads/original-name", h.originalName)
}

func (h *Handler) upload(c *gin.Context) {
	form, ok := h.parseForm(c, "file")
	if !ok {
		return
	}
	defer form.RemoveAll()

	file, err := h.Spool.Single(form, "file")
	if err != nil {
		writeError(c, err)
		return
	}
	defer h.Spool.Discard(file)

	rec, err := h.Svc.Upload(c.Request.Context(), file, h.uploadContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(rec))
}

func (h *Handler) uploadBatch(c *gin.Context) {
	form, ok := h.parseForm(c, "files")
	if !ok {
		return
	}
	defer form.RemoveAll()

	files, err := h.Spool.Many(form, "files")
	if err != nil {
		writeError(c, err)
		return
	}
	defer h.Spool.Discard(files...)

	records, err := h.Svc.UploadBatch(c.Request.Context(), files, h.uploadContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toResponse(rec))
	}
	respond.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	records, err := h.Svc.List(c.Request.Context(), c.Query("scope"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list uploads", nil)
		return
	}
	resp := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toResponse(rec))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) originalName(c *gin.Context) {
	stored := c.Query("name")
	name, err := h.Svc.OriginalName(c.Request.Context(), stored)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve name", nil)
		}
		return
	}
	respond.OK(c, gin.H{"storedName": stored, "originalName": name})
}

func (h *Handler) parseForm(c *gin.Context, field string) (*multipart.Form, bool) {
	if h.MaxRequestBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxRequestBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, ingest.ClassifyFormError(field, err))
		return nil, false
	}
	return form, true
}

func (h *Handler) uploadContext(c *gin.Context) placement.UploadContext {
	return placement.UploadContext{
		BasePath:  h.BasePath,
		Subdir:    c.PostForm("subdir"),
		Scope:     c.PostForm("scope"),
		Validator: h.Validator,
		Options:   map[string]any{RequestIDOption: middleware.RequestIDFromContext(c)},
	}
}

func writeError(c *gin.Context, err error) {
	var batchErr *placement.BatchError
	if errors.As(err, &batchErr) {
		respond.Error(c, http.StatusUnprocessableEntity, "batch_failed", "one or more files could not be stored", toBatchDetails(batchErr))
		return
	}

	var transportErr *ingest.TransportError
	if errors.As(err, &transportErr) && transportErr.Code == ingest.CodeSizeExceeded {
		respond.Error(c, http.StatusRequestEntityTooLarge, placement.Kind(err), err.Error(), nil)
		return
	}

	kind := placement.Kind(err)
	switch kind {
	case "empty_upload", "upload_transport", "invalid_filename", "filename_too_long", "invalid_path", "path_traversal":
		respond.Error(c, http.StatusBadRequest, kind, err.Error(), nil)
	case "validation":
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store upload", nil)
	}
}
