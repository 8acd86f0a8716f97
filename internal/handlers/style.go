package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"blogtwin-backend/internal/middleware"
	"blogtwin-backend/internal/models"
)

const (
	maxImportRequestBytes = 50 << 20
	maxImportFiles        = 20
)

type styleAnalyzer interface {
	Analyze(ctx context.Context, userID uuid.UUID, posts []models.RawPost) (*models.AnalysisResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.StyleProfile, error)
	PromptFor(ctx context.Context, userID uuid.UUID) (string, error)
}

type postImporter interface {
	Import(filename string, data []byte, category string) (*models.RawPost, error)
}

type StyleHandler struct {
	styles   styleAnalyzer
	importer postImporter
}

func NewStyleHandler(styles styleAnalyzer, importer postImporter) *StyleHandler {
	return &StyleHandler{styles: styles, importer: importer}
}

// POST /api/v1/style/analyze
func (h *StyleHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.StyleAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(req.Posts) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"posts": "at least one post is required"}, r))
		return
	}

	result, err := h.styles.Analyze(r.Context(), userID, req.Posts)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/style/import
//
// Multipart upload of one or more "files". With analyze=true the extracted
// posts are analyzed right away.
func (h *StyleHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxImportRequestBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Upload exceeds 50MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportRequestBytes)

	if err := r.ParseMultipartForm(maxImportRequestBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form", r))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	if len(files) > maxImportFiles {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", fmt.Sprintf("At most %d files per import", maxImportFiles), r))
		return
	}

	category := r.FormValue("category")
	posts := make([]models.RawPost, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read "+header.Filename, r))
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read "+header.Filename, r))
			return
		}

		post, err := h.importer.Import(header.Filename, data, category)
		if err != nil {
			writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", err.Error(), r))
			return
		}
		posts = append(posts, *post)
	}

	analyze, _ := strconv.ParseBool(r.FormValue("analyze"))
	if !analyze {
		writeJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
		return
	}

	result, err := h.styles.Analyze(r.Context(), middleware.GetUserID(r.Context()), posts)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts":    posts,
		"analysis": result,
	})
}

// GET /api/v1/style/profile
func (h *StyleHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.styles.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GET /api/v1/style/prompt
func (h *StyleHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.styles.PromptFor(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}
