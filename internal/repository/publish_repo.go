package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blogtwin-backend/internal/models"
)

type PublishRepo struct {
	pool *pgxpool.Pool
}

func NewPublishRepo(pool *pgxpool.Pool) *PublishRepo {
	return &PublishRepo{pool: pool}
}

func (r *PublishRepo) CreateHistory(ctx context.Context, h *models.PublishHistory) error {
	h.ID = uuid.New()
	query := `INSERT INTO publish_history (id, user_id, post_id, platform, title, status, published_url, published_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		h.ID, h.UserID, h.PostID, h.Platform, h.Title, h.Status, h.PublishedURL, h.PublishedAt, h.ErrorMessage,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
}

func (r *PublishRepo) UpdateHistoryStatus(ctx context.Context, id uuid.UUID, status string, publishedURL, errMsg *string) error {
	query := `UPDATE publish_history SET status = $1, published_url = COALESCE($2, published_url),
		error_message = $3, updated_at = NOW() WHERE id = $4`
	if status == models.PublishStatusPublished {
		query = `UPDATE publish_history SET status = $1, published_url = COALESCE($2, published_url),
			error_message = $3, published_at = NOW(), updated_at = NOW() WHERE id = $4`
	}
	_, err := r.pool.Exec(ctx, query, status, publishedURL, errMsg, id)
	return err
}

func (r *PublishRepo) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PublishHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, post_id, platform, title, status, published_url, published_at, error_message, created_at, updated_at
		FROM publish_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []*models.PublishHistory{}
	for rows.Next() {
		h := &models.PublishHistory{}
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.PostID, &h.Platform, &h.Title, &h.Status,
			&h.PublishedURL, &h.PublishedAt, &h.ErrorMessage, &h.CreatedAt, &h.UpdatedAt,
		); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *PublishRepo) CreateScheduled(ctx context.Context, p *models.ScheduledPost) error {
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = "pending"
	}
	query := `INSERT INTO scheduled_posts (id, user_id, post_id, title, platform, schedule_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		p.ID, p.UserID, p.PostID, p.Title, p.Platform, p.ScheduleDate, p.Status,
	).Scan(&p.CreatedAt)
}

const scheduledColumns = `id, user_id, post_id, title, platform, schedule_date, status, created_at`

func scanScheduled(rows pgx.Rows) ([]*models.ScheduledPost, error) {
	defer rows.Close()
	posts := []*models.ScheduledPost{}
	for rows.Next() {
		p := &models.ScheduledPost{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.PostID, &p.Title, &p.Platform, &p.ScheduleDate, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PublishRepo) ListPendingScheduled(ctx context.Context, userID uuid.UUID) ([]*models.ScheduledPost, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+scheduledColumns+" FROM scheduled_posts WHERE user_id = $1 AND status = 'pending' ORDER BY schedule_date ASC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	return scanScheduled(rows)
}

// ListDueScheduled returns pending posts whose time has come, oldest first.
func (r *PublishRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+scheduledColumns+" FROM scheduled_posts WHERE status = 'pending' AND schedule_date <= $1 ORDER BY schedule_date ASC LIMIT $2",
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanScheduled(rows)
}

// ClaimScheduled moves a pending post to processing. It reports false when
// another worker claimed it first or it was cancelled.
func (r *PublishRepo) ClaimScheduled(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE scheduled_posts SET status = 'processing' WHERE id = $1 AND status = 'pending'",
		id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PublishRepo) UpdateScheduledStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE scheduled_posts SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *PublishRepo) CancelScheduled(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE scheduled_posts SET status = 'cancelled' WHERE id = $1 AND user_id = $2 AND status = 'pending'",
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PublishRepo) Stats(ctx context.Context, userID uuid.UUID) (*models.PublishStats, error) {
	s := &models.PublishStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM publish_history WHERE user_id = $1`,
		userID,
	).Scan(&s.Total, &s.Published, &s.Failed)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM scheduled_posts WHERE user_id = $1 AND status = 'pending'",
		userID,
	).Scan(&s.Scheduled)
	if err != nil {
		return nil, err
	}
	return s, nil
}
