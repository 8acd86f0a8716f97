package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"blogtwin-backend/internal/models"
)

// profileData is the jsonb body of a style_profiles row.
type profileData struct {
	Statistics        models.StyleStatistics   `json:"statistics"`
	Tone              models.ToneScores        `json:"tone"`
	WritingStyle      models.WritingStyle      `json:"writingStyle"`
	Topics            []models.TopicFeature    `json:"topics"`
	CommonExpressions models.CommonExpressions `json:"commonExpressions"`
	AISummary         models.AISummary         `json:"aiSummary"`
}

type StyleProfileRepo struct {
	pool *pgxpool.Pool
}

func NewStyleProfileRepo(pool *pgxpool.Pool) *StyleProfileRepo {
	return &StyleProfileRepo{pool: pool}
}

// Upsert replaces the user's profile. p.ID is set to the stored row's id.
func (r *StyleProfileRepo) Upsert(ctx context.Context, p *models.StyleProfile) error {
	data, err := json.Marshal(profileData{
		Statistics:        p.Statistics,
		Tone:              p.Tone,
		WritingStyle:      p.WritingStyle,
		Topics:            p.Topics,
		CommonExpressions: p.CommonExpressions,
		AISummary:         p.AISummary,
	})
	if err != nil {
		return fmt.Errorf("encode style profile: %w", err)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `INSERT INTO style_profiles (id, user_id, analysis_data, analyzed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			analysis_data = EXCLUDED.analysis_data,
			analyzed_at = EXCLUDED.analyzed_at,
			updated_at = NOW()
		RETURNING id`

	return r.pool.QueryRow(ctx, query, p.ID, p.UserID, data, p.AnalyzedAt).Scan(&p.ID)
}

func (r *StyleProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.StyleProfile, error) {
	p := &models.StyleProfile{}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		"SELECT id, user_id, analysis_data, analyzed_at FROM style_profiles WHERE user_id = $1",
		userID,
	).Scan(&p.ID, &p.UserID, &raw, &p.AnalyzedAt)
	if err != nil {
		return nil, notFound(err)
	}

	var data profileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode style profile: %w", err)
	}
	p.Statistics = data.Statistics
	p.Tone = data.Tone
	p.WritingStyle = data.WritingStyle
	p.Topics = data.Topics
	p.CommonExpressions = data.CommonExpressions
	p.AISummary = data.AISummary
	return p, nil
}

func (r *StyleProfileRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM style_profiles WHERE user_id = $1", userID)
	return err
}
