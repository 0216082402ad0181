package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shosseini811/MultiGenQA/internal/metrics"
	"github.com/shosseini811/MultiGenQA/internal/model"
)

// UsageRecorder persists one API usage row per provider call.
type UsageRecorder interface {
	CreateUsage(ctx context.Context, usage *model.APIUsage) error
}

// providerEndpoints maps provider names to the upstream path stored in
// usage rows.
var providerEndpoints = map[string]string{
	"openai": "/chat/completions",
	"gemini": "/generate",
	"claude": "/messages",
}

// Dispatcher routes chat requests to the configured provider clients and
// records usage and metrics for every call.
type Dispatcher struct {
	clients map[string]Client
	usage   UsageRecorder
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over the given clients.
func NewDispatcher(clients []Client, usage UsageRecorder, rec metrics.Recorder, logger *slog.Logger) *Dispatcher {
	byName := make(map[string]Client, len(clients))
	for _, c := range clients {
		byName[c.Name()] = c
	}
	return &Dispatcher{
		clients: byName,
		usage:   usage,
		metrics: rec,
		logger:  logger,
	}
}

// Client returns the client registered under the given provider name.
func (d *Dispatcher) Client(name string) (Client, bool) {
	c, ok := d.clients[name]
	return c, ok
}

// Generate calls the named provider with the conversation history.
// A usage row is written for both success and failure; usage persistence
// failures are logged and do not fail the request.
func (d *Dispatcher) Generate(ctx context.Context, providerName, userID string, history []Message) (*Result, error) {
	client, ok := d.clients[providerName]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerName)
	}

	start := time.Now()
	result, err := client.Generate(ctx, history)
	elapsed := time.Since(start)

	usage := &model.APIUsage{
		ID:           ulid.Make().String(),
		UserID:       userID,
		ModelName:    client.Model(),
		Endpoint:     providerEndpoints[providerName],
		ResponseTime: elapsed.Seconds(),
		Timestamp:    time.Now().UTC(),
	}

	d.metrics.ObserveAIRequestDuration(client.Model(), elapsed)

	if err != nil {
		usage.StatusCode = 500
		d.metrics.IncAIRequest(client.Model(), "error")
		d.recordUsage(ctx, usage)

		d.logger.LogAttrs(ctx, slog.LevelError, "provider call failed",
			slog.String("provider", providerName),
			slog.String("model", client.Model()),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	usage.StatusCode = 200
	usage.TokensUsed = result.TokensUsed
	d.metrics.IncAIRequest(client.Model(), "success")
	d.recordUsage(ctx, usage)

	d.logger.LogAttrs(ctx, slog.LevelInfo, "provider call completed",
		slog.String("provider", providerName),
		slog.String("model", client.Model()),
		slog.Duration("elapsed", elapsed),
	)

	return result, nil
}

// recordUsage persists a usage row, logging on failure.
func (d *Dispatcher) recordUsage(ctx context.Context, usage *model.APIUsage) {
	if d.usage == nil {
		return
	}
	if err := d.usage.CreateUsage(ctx, usage); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "failed to record api usage",
			slog.String("model", usage.ModelName),
			slog.String("error", err.Error()),
		)
	}
}
