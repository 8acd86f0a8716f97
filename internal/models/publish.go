package models

import (
	"time"

	"github.com/google/uuid"
)

type PublishPlatform string

const (
	PlatformNaver   PublishPlatform = "naver"
	PlatformTistory PublishPlatform = "tistory"
	PlatformVelog   PublishPlatform = "velog"
)

type PublishSettings struct {
	Platform      PublishPlatform `json:"platform"`
	Visibility    string          `json:"visibility"` // public | private | protected
	Category      string          `json:"category,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	AllowComments bool            `json:"allow_comments"`
	AllowShare    bool            `json:"allow_share"`
	ScheduleDate  *time.Time      `json:"schedule_date,omitempty"`
	ThumbnailURL  string          `json:"thumbnail_url,omitempty"`
}

type PublishRequest struct {
	PostID   uuid.UUID       `json:"post_id"`
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Settings PublishSettings `json:"settings"`
}

type PublishValidation struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type PublishResult struct {
	Success        bool       `json:"success"`
	Scheduled      bool       `json:"scheduled,omitempty"`
	ManualRequired bool       `json:"manual_required,omitempty"`
	PublishedURL   string     `json:"published_url,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	HTML           string     `json:"html,omitempty"`
	ClipboardText  string     `json:"clipboard_text,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// Publish history statuses.
const (
	PublishStatusDraft      = "draft"
	PublishStatusScheduled  = "scheduled"
	PublishStatusPublishing = "publishing"
	PublishStatusPublished  = "published"
	PublishStatusFailed     = "failed"
	PublishStatusManual     = "manual_required"
)

type PublishHistory struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	PostID       uuid.UUID       `json:"post_id"`
	Platform     PublishPlatform `json:"platform"`
	Title        string          `json:"title"`
	Status       string          `json:"status"`
	PublishedURL *string         `json:"published_url"`
	PublishedAt  *time.Time      `json:"published_at"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ScheduledPost struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	PostID       uuid.UUID       `json:"post_id"`
	Title        string          `json:"title"`
	Platform     PublishPlatform `json:"platform"`
	ScheduleDate time.Time       `json:"schedule_date"`
	Status       string          `json:"status"` // pending | processing | completed | cancelled
	CreatedAt    time.Time       `json:"created_at"`
}

type PublishStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Scheduled int `json:"scheduled"`
}

// ScheduledPublishEvent tells the client a scheduled post is due and how to
// finish publishing it.
type ScheduledPublishEvent struct {
	Post           ScheduledPost `json:"post"`
	ManualRequired bool          `json:"manual_required"`
	EditorURL      string        `json:"editor_url,omitempty"`
}
