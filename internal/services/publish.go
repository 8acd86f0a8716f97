package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/repository"
)

const (
	maxTitleRunes       = 100
	minContentRunes     = 100
	maxRecommendedTags  = 10
	defaultHistoryLimit = 20
)

// PlatformCapability describes what a target blog platform allows.
type PlatformCapability struct {
	DirectPublish bool
	EditorURL     string
}

var defaultCapabilities = map[models.PublishPlatform]PlatformCapability{
	models.PlatformNaver:   {DirectPublish: false, EditorURL: "https://blog.naver.com/PostWriteForm.naver"},
	models.PlatformTistory: {DirectPublish: true, EditorURL: "https://www.tistory.com/manage/newpost"},
	models.PlatformVelog:   {DirectPublish: true, EditorURL: "https://velog.io/write"},
}

type PublishStore interface {
	CreateHistory(ctx context.Context, h *models.PublishHistory) error
	ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PublishHistory, error)
	CreateScheduled(ctx context.Context, p *models.ScheduledPost) error
	ListPendingScheduled(ctx context.Context, userID uuid.UUID) ([]*models.ScheduledPost, error)
	CancelScheduled(ctx context.Context, userID, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*models.PublishStats, error)
}

// PublishService validates drafts and prepares them for the target
// platform. It never talks to a platform API itself.
type PublishService struct {
	store        PublishStore
	capabilities map[models.PublishPlatform]PlatformCapability
	now          func() time.Time
}

func NewPublishService(store PublishStore) *PublishService {
	return &PublishService{
		store:        store,
		capabilities: defaultCapabilities,
		now:          time.Now,
	}
}

func (s *PublishService) Capability(platform models.PublishPlatform) (PlatformCapability, bool) {
	c, ok := s.capabilities[platform]
	return c, ok
}

func (s *PublishService) Validate(req models.PublishRequest) models.PublishValidation {
	errs := []string{}
	warnings := []string{}

	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		errs = append(errs, "title is required")
	case utf8.RuneCountInString(req.Title) > maxTitleRunes:
		errs = append(errs, fmt.Sprintf("title length must be %d characters or fewer", maxTitleRunes))
	}

	switch {
	case strings.TrimSpace(req.Content) == "":
		errs = append(errs, "content is required")
	case utf8.RuneCountInString(req.Content) < minContentRunes:
		warnings = append(warnings, fmt.Sprintf("content is short, at least %d characters is recommended", minContentRunes))
	}

	if len(req.Settings.Tags) > maxRecommendedTags {
		warnings = append(warnings, fmt.Sprintf("%d tags or fewer is recommended", maxRecommendedTags))
	}

	if req.Settings.Platform != "" {
		if _, ok := s.capabilities[req.Settings.Platform]; !ok {
			errs = append(errs, fmt.Sprintf("unsupported platform %q", req.Settings.Platform))
		}
	}

	if req.Settings.ScheduleDate != nil && !req.Settings.ScheduleDate.After(s.now()) {
		errs = append(errs, "schedule date must be in the future")
	}

	return models.PublishValidation{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// Prepare validates req and either registers it for later or hands it off.
// Platforms without a publish API return ErrManualActionRequired together
// with a result carrying the clipboard text and rendered HTML.
func (s *PublishService) Prepare(ctx context.Context, userID uuid.UUID, req models.PublishRequest) (*models.PublishResult, error) {
	v := s.Validate(req)
	if v.IsValid && req.Settings.Platform == "" {
		v.Errors = append(v.Errors, "platform is required")
		v.IsValid = false
	}
	if !v.IsValid {
		return nil, &ValidationError{Errors: v.Errors}
	}

	if req.Settings.ScheduleDate != nil {
		sp := &models.ScheduledPost{
			UserID:       userID,
			PostID:       req.PostID,
			Title:        req.Title,
			Platform:     req.Settings.Platform,
			ScheduleDate: req.Settings.ScheduleDate.UTC(),
			Status:       "pending",
		}
		if err := s.store.CreateScheduled(ctx, sp); err != nil {
			return nil, fmt.Errorf("schedule publish: %w", err)
		}
		return &models.PublishResult{
			Success:   true,
			Scheduled: true,
			Message:   fmt.Sprintf("scheduled for %s", sp.ScheduleDate.Format(time.RFC3339)),
		}, nil
	}

	html, err := RenderHTML(req.Content)
	if err != nil {
		return nil, fmt.Errorf("render content: %w", err)
	}

	capability := s.capabilities[req.Settings.Platform]
	if !capability.DirectPublish {
		s.recordHistory(ctx, userID, req, models.PublishStatusManual, nil)
		if req.Settings.Platform == models.PlatformNaver {
			html = NaverMarkup(html)
		}
		return &models.PublishResult{
			ManualRequired: true,
			HTML:           html,
			ClipboardText:  ClipboardText(req),
			PublishedURL:   capability.EditorURL,
			Message:        fmt.Sprintf("%s has no publish API, paste the post into its editor", req.Settings.Platform),
		}, ErrManualActionRequired
	}

	publishedAt := s.now().UTC()
	s.recordHistory(ctx, userID, req, models.PublishStatusPublishing, &publishedAt)
	return &models.PublishResult{
		Success:     true,
		PublishedAt: &publishedAt,
		HTML:        html,
	}, nil
}

// recordHistory is best effort; a failed write does not fail the publish.
func (s *PublishService) recordHistory(ctx context.Context, userID uuid.UUID, req models.PublishRequest, status string, publishedAt *time.Time) {
	h := &models.PublishHistory{
		UserID:      userID,
		PostID:      req.PostID,
		Platform:    req.Settings.Platform,
		Title:       req.Title,
		Status:      status,
		PublishedAt: publishedAt,
	}
	if err := s.store.CreateHistory(ctx, h); err != nil {
		log.Printf("publish: failed to record history for user %s: %v", userID, err)
	}
}

func (s *PublishService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PublishHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.ListHistory(ctx, userID, limit)
}

func (s *PublishService) ScheduledPosts(ctx context.Context, userID uuid.UUID) ([]*models.ScheduledPost, error) {
	return s.store.ListPendingScheduled(ctx, userID)
}

func (s *PublishService) CancelScheduled(ctx context.Context, userID, id uuid.UUID) error {
	err := s.store.CancelScheduled(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *PublishService) Stats(ctx context.Context, userID uuid.UUID) (*models.PublishStats, error) {
	return s.store.Stats(ctx, userID)
}

// ClipboardText is the plain-text handoff for manual publishing.
func ClipboardText(req models.PublishRequest) string {
	var b strings.Builder
	b.WriteString(req.Title)
	b.WriteString("\n\n")
	b.WriteString(req.Content)
	b.WriteString("\n\n")
	if len(req.Settings.Tags) > 0 {
		b.WriteString("\nTags: " + strings.Join(req.Settings.Tags, ", "))
	}
	if req.Settings.Category != "" {
		b.WriteString("\nCategory: " + req.Settings.Category)
	}
	return b.String()
}

func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	imgTagRe    = regexp.MustCompile(`<img([^>]*?)\s*/?>`)
	codeBlockRe = regexp.MustCompile(`(?s)<pre><code[^>]*>(.*?)</code></pre>`)
)

// NaverMarkup adapts rendered HTML to what the Naver editor keeps on paste.
func NaverMarkup(html string) string {
	html = imgTagRe.ReplaceAllString(html, `<img$1 data-ke-mobilestyle="widthOrigin" />`)
	html = codeBlockRe.ReplaceAllString(html, `<pre class="ke-code">$1</pre>`)
	return html
}
