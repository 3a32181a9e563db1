package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/n-spicher/shipwright/internal/app"
	"github.com/n-spicher/shipwright/internal/transport/http/response"
)

type KeywordHandler struct {
	keywordService *app.KeywordService
	maxPDFBytes    int64
}

type KeywordRequest struct {
	Term        string `json:"term" binding:"required,max=256"`
	ExampleText string `json:"example_text"`
}

func NewKeywordHandler(keywordService *app.KeywordService, maxPDFBytes int) *KeywordHandler {
	if maxPDFBytes <= 0 {
		maxPDFBytes = 10 << 20
	}
	return &KeywordHandler{keywordService: keywordService, maxPDFBytes: int64(maxPDFBytes)}
}

func (h *KeywordHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	keyword, err := h.keywordService.Create(c.Request.Context(), userID, app.KeywordInput{
		Term:        req.Term,
		ExampleText: req.ExampleText,
	})
	if err != nil {
		h.writeError(c, err, "create keyword failed")
		return
	}
	response.OK(c, keyword)
}

func (h *KeywordHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	keywords, err := h.keywordService.List(userID)
	if err != nil {
		h.writeError(c, err, "list keywords failed")
		return
	}
	response.OK(c, keywords)
}

func (h *KeywordHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	keywordID, err := parseUintParam(c, "id")
	if err != nil || keywordID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid keyword id")
		return
	}

	keyword, err := h.keywordService.Get(userID, keywordID)
	if err != nil {
		h.writeError(c, err, "get keyword failed")
		return
	}
	response.OK(c, keyword)
}

func (h *KeywordHandler) Update(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	keywordID, err := parseUintParam(c, "id")
	if err != nil || keywordID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid keyword id")
		return
	}
	var req KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	keyword, err := h.keywordService.Update(c.Request.Context(), userID, keywordID, app.KeywordInput{
		Term:        req.Term,
		ExampleText: req.ExampleText,
	})
	if err != nil {
		h.writeError(c, err, "update keyword failed")
		return
	}
	response.OK(c, keyword)
}

func (h *KeywordHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	keywordID, err := parseUintParam(c, "id")
	if err != nil || keywordID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid keyword id")
		return
	}

	if err := h.keywordService.Delete(c.Request.Context(), userID, keywordID); err != nil {
		h.writeError(c, err, "delete keyword failed")
		return
	}
	response.OK(c, gin.H{"deleted_keyword_id": keywordID})
}

// Upload accepts a multipart form with "file" (PDF) and extracts keyword
// pairs from its text via the LLM, persisting each one.
func (h *KeywordHandler) Upload(c *gin.Context) {
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

	keywords, err := h.keywordService.ExtractFromPDF(c.Request.Context(), userID, file.Filename, data)
	if err != nil {
		h.writeError(c, err, "keyword extraction failed")
		return
	}
	response.OK(c, gin.H{
		"extracted_count": len(keywords),
		"keywords":        keywords,
	})
}

func (h *KeywordHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidDocument):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidDocument, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
	case errors.Is(err, app.ErrKeywordNotFound):
		response.Error(c, http.StatusNotFound, response.CodeKeywordNotFound, err.Error())
	case errors.Is(err, app.ErrLLMUnavailable):
		response.Error(c, http.StatusBadGateway, response.CodeLLMUnavailable, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}
