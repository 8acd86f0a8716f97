package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"blogtwin-backend/internal/models"
)

type GenerationLogRepo struct {
	pool *pgxpool.Pool
}

func NewGenerationLogRepo(pool *pgxpool.Pool) *GenerationLogRepo {
	return &GenerationLogRepo{pool: pool}
}

func (r *GenerationLogRepo) LogGeneration(ctx context.Context, entry models.GenerationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO ai_generation_logs (id, user_id, model, prompt_tokens, completion_tokens, total_tokens,
			estimated_cost, success, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.UserID, entry.Model, entry.PromptTokens, entry.CompletionTokens, entry.TotalTokens,
		entry.EstimatedCost, entry.Success, entry.ErrorMessage, entry.CreatedAt,
	)
	return err
}

// Stats aggregates the user's calls made at or after since.
func (r *GenerationLogRepo) Stats(ctx context.Context, userID uuid.UUID, since time.Time) (*models.UsageStats, error) {
	var total, succeeded, tokens int
	var cost float64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(estimated_cost), 0)::float8
		FROM ai_generation_logs
		WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&total, &succeeded, &tokens, &cost)
	if err != nil {
		return nil, err
	}
	return usageStats(total, succeeded, tokens, cost), nil
}

func usageStats(total, succeeded, tokens int, cost float64) *models.UsageStats {
	s := &models.UsageStats{
		TotalRequests: total,
		TotalTokens:   tokens,
		TotalCost:     cost,
	}
	if total > 0 {
		s.SuccessRate = float64(succeeded) / float64(total) * 100
		s.AverageTokensPerRequest = float64(tokens) / float64(total)
	}
	return s
}

func (r *GenerationLogRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.GenerationLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, model, prompt_tokens, completion_tokens, total_tokens,
			estimated_cost::float8, success, error_message, created_at
		FROM ai_generation_logs WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.GenerationLog
	for rows.Next() {
		l := &models.GenerationLog{}
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Model, &l.PromptTokens, &l.CompletionTokens, &l.TotalTokens,
			&l.EstimatedCost, &l.Success, &l.ErrorMessage, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
