package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"blogtwin-backend/internal/middleware"
	"blogtwin-backend/internal/models"
)

const maxImagesPerPost = 10

type contentGenerator interface {
	GeneratePost(ctx context.Context, userID uuid.UUID, req models.GenerationRequest) (*models.GenerationResult, error)
	GenerateFromImages(ctx context.Context, userID uuid.UUID, imageURLs []string, extra string, useStyle bool) (*models.GenerationResult, error)
	ImproveTitles(ctx context.Context, userID uuid.UUID, title, content string) ([]models.TitleSuggestion, error)
	GenerateHashtags(ctx context.Context, userID uuid.UUID, title, content string, count int) ([]string, error)
	ExpandContent(ctx context.Context, userID uuid.UUID, content, sectionName string) (string, error)
	AdjustTone(ctx context.Context, userID uuid.UUID, content string, tone models.Tone) (string, error)
	Summarize(ctx context.Context, userID uuid.UUID, content string, maxLength int) (string, error)
	Introduction(ctx context.Context, userID uuid.UUID, topic, style string) (string, error)
	Conclusion(ctx context.Context, userID uuid.UUID, content, style string) (string, error)
	OptimizeSEO(ctx context.Context, userID uuid.UUID, title, content string) (*models.SEOSuggestion, error)
	Polish(ctx context.Context, userID uuid.UUID, text, style string) (*models.PolishResult, error)
	SpellCheck(ctx context.Context, userID uuid.UUID, text string) (*models.SpellCheckResult, error)
	SuggestNextParagraph(ctx context.Context, userID uuid.UUID, topic, content string) (*models.ParagraphSuggestions, error)
}

type GenerationHandler struct {
	content contentGenerator
}

func NewGenerationHandler(content contentGenerator) *GenerationHandler {
	return &GenerationHandler{content: content}
}

// assistRequest is the body shared by the writing-assistant endpoints; each
// endpoint reads the fields it needs.
type assistRequest struct {
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Topic       string      `json:"topic"`
	Text        string      `json:"text"`
	Style       string      `json:"style"`
	SectionName string      `json:"section_name"`
	Tone        models.Tone `json:"tone"`
	Count       int         `json:"count"`
	MaxLength   int         `json:"max_length"`
}

type imagePostRequest struct {
	ImageURLs        []string `json:"image_urls"`
	AdditionalPrompt string   `json:"additional_prompt"`
	UseStyle         bool     `json:"use_style"`
}

func decodeAssist(w http.ResponseWriter, r *http.Request) (assistRequest, bool) {
	var req assistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return req, false
	}
	return req, true
}

// POST /api/v1/generate/post
func (h *GenerationHandler) GeneratePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if !requireFields(w, r, map[string]string{"topic": req.Topic}) {
		return
	}

	result, err := h.content.GeneratePost(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/generate/image-post
func (h *GenerationHandler) GenerateImagePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req imagePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(req.ImageURLs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"image_urls": "is required"}, r))
		return
	}
	if len(req.ImageURLs) > maxImagesPerPost {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Too many images, at most 10 per post", r))
		return
	}

	result, err := h.content.GenerateFromImages(r.Context(), userID, req.ImageURLs, req.AdditionalPrompt, req.UseStyle)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/generate/titles
func (h *GenerationHandler) ImproveTitles(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"title": req.Title, "content": req.Content}) {
		return
	}
	titles, err := h.content.ImproveTitles(r.Context(), middleware.GetUserID(r.Context()), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"titles": titles})
}

// POST /api/v1/generate/hashtags
func (h *GenerationHandler) GenerateHashtags(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"content": req.Content}) {
		return
	}
	tags, err := h.content.GenerateHashtags(r.Context(), middleware.GetUserID(r.Context()), req.Title, req.Content, req.Count)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

// POST /api/v1/generate/expand
func (h *GenerationHandler) ExpandContent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"content": req.Content}) {
		return
	}
	h.writeText(w, r)(h.content.ExpandContent(r.Context(), middleware.GetUserID(r.Context()), req.Content, req.SectionName))
}

// POST /api/v1/generate/tone
func (h *GenerationHandler) AdjustTone(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"content": req.Content, "tone": string(req.Tone)}) {
		return
	}
	h.writeText(w, r)(h.content.AdjustTone(r.Context(), middleware.GetUserID(r.Context()), req.Content, req.Tone))
}

// POST /api/v1/generate/summary
func (h *GenerationHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"content": req.Content}) {
		return
	}
	h.writeText(w, r)(h.content.Summarize(r.Context(), middleware.GetUserID(r.Context()), req.Content, req.MaxLength))
}

// POST /api/v1/generate/introduction
func (h *GenerationHandler) Introduction(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"topic": req.Topic}) {
		return
	}
	h.writeText(w, r)(h.content.Introduction(r.Context(), middleware.GetUserID(r.Context()), req.Topic, req.Style))
}

// POST /api/v1/generate/conclusion
func (h *GenerationHandler) Conclusion(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"content": req.Content}) {
		return
	}
	h.writeText(w, r)(h.content.Conclusion(r.Context(), middleware.GetUserID(r.Context()), req.Content, req.Style))
}

// POST /api/v1/generate/seo
func (h *GenerationHandler) OptimizeSEO(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"title": req.Title, "content": req.Content}) {
		return
	}
	seo, err := h.content.OptimizeSEO(r.Context(), middleware.GetUserID(r.Context()), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seo)
}

// POST /api/v1/generate/polish
func (h *GenerationHandler) Polish(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"text": req.Text}) {
		return
	}
	result, err := h.content.Polish(r.Context(), middleware.GetUserID(r.Context()), req.Text, req.Style)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/generate/spellcheck
func (h *GenerationHandler) SpellCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"text": req.Text}) {
		return
	}
	result, err := h.content.SpellCheck(r.Context(), middleware.GetUserID(r.Context()), req.Text)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/generate/next-paragraph
func (h *GenerationHandler) SuggestNextParagraph(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAssist(w, r)
	if !ok || !requireFields(w, r, map[string]string{"content": req.Content}) {
		return
	}
	result, err := h.content.SuggestNextParagraph(r.Context(), middleware.GetUserID(r.Context()), req.Topic, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GenerationHandler) writeText(w http.ResponseWriter, r *http.Request) func(string, error) {
	return func(text string, err error) {
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": text})
	}
}
