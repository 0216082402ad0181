package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shosseini811/MultiGenQA/internal/model"
)

// CreateUsage inserts an API usage record.
func (r *Repository) CreateUsage(ctx context.Context, usage *model.APIUsage) error {
	query := `
		INSERT INTO api_usage (id, user_id, model_name, endpoint, tokens_used, cost_estimate, response_time, status_code, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		usage.ID,
		usage.UserID,
		usage.ModelName,
		usage.Endpoint,
		usage.TokensUsed,
		usage.CostEstimate,
		usage.ResponseTime,
		usage.StatusCode,
		usage.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to create usage record: %w", err)
	}

	return nil
}

// UsageSummary aggregates a user's API usage per model since the given time.
func (r *Repository) UsageSummary(ctx context.Context, userID string, since time.Time) ([]*model.UsageStat, error) {
	query := `
		SELECT model_name,
			COUNT(*) AS requests,
			COALESCE(SUM(tokens_used), 0) AS tokens,
			COALESCE(SUM(cost_estimate), 0) AS cost,
			COALESCE(AVG(response_time), 0) AS avg_response_time
		FROM api_usage
		WHERE user_id = $1 AND timestamp >= $2
		GROUP BY model_name
		ORDER BY model_name ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	defer rows.Close()

	var stats []*model.UsageStat
	for rows.Next() {
		var stat model.UsageStat
		err := rows.Scan(
			&stat.Model,
			&stat.Requests,
			&stat.Tokens,
			&stat.Cost,
			&stat.AvgResponseTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage stat: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage stats: %w", err)
	}

	return stats, nil
}
