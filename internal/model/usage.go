package model

import "time"

// APIUsage is an audit record of one call to a remote provider.
// One row is written per attempt, success or failure; never mutated.
type APIUsage struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	ModelName    string    `json:"model_name"`
	Endpoint     string    `json:"endpoint"`
	TokensUsed   *int      `json:"tokens_used"`
	CostEstimate *float64  `json:"cost_estimate"`
	ResponseTime float64   `json:"response_time"`
	StatusCode   int       `json:"status_code"`
	Timestamp    time.Time `json:"timestamp"`
}

// UsageStat is a per-model aggregate over a user's usage records.
type UsageStat struct {
	Model           string  `json:"model"`
	Requests        int64   `json:"requests"`
	Tokens          int64   `json:"tokens"`
	Cost            float64 `json:"cost"`
	AvgResponseTime float64 `json:"avg_response_time"`
}
