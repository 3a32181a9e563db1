package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/n-spicher/shipwright/internal/app"
	"github.com/n-spicher/shipwright/internal/transport/http/response"
)

type DocumentHandler struct {
	docService  *app.DocumentService
	maxPDFBytes int64
}

func NewDocumentHandler(docService *app.DocumentService, maxPDFBytes int) *DocumentHandler {
	if maxPDFBytes <= 0 {
		maxPDFBytes = 10 << 20
	}
	return &DocumentHandler{docService: docService, maxPDFBytes: int64(maxPDFBytes)}
}

// UploadPDF accepts a multipart form with "file" (PDF), extracts and indexes
// its text, and returns the created document with its chunk count.
func (h *DocumentHandler) UploadPDF(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxPDFBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	result, err := h.docService.Ingest(c.Request.Context(), app.IngestInput{
		UserID:   userID,
		Filename: file.Filename,
		Data:     data,
	})
	if err != nil {
		h.writeError(c, err, "ingest failed")
		return
	}

	response.OK(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	docs, err := h.docService.List(userID)
	if err != nil {
		h.writeError(c, err, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID := c.Param("id")
	if docID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	if err := h.docService.Delete(c.Request.Context(), userID, docID); err != nil {
		h.writeError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": docID})
}

func (h *DocumentHandler) DeleteAll(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	count, err := h.docService.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "delete documents failed")
		return
	}
	response.OK(c, gin.H{"deleted_count": count})
}

func (h *DocumentHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidDocument):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidDocument, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrLLMUnavailable):
		response.Error(c, http.StatusBadGateway, response.CodeLLMUnavailable, err.Error())
	case errors.Is(err, app.ErrVectorStoreUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeVectorUnavailable, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
