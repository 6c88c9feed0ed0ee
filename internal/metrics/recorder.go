package metrics

import (
	"context"
	"time"

	"mealhow/internal/llm"
	"mealhow/internal/logger"
	"mealhow/internal/shared"
)

// RecordingGenerator records token usage and latency of every completion under an agent name.
type RecordingGenerator struct {
	next      llm.TextGenerator
	store     *Store
	agentName string
	log       *logger.Logger
}

// NewRecordingGenerator wraps next.
func NewRecordingGenerator(next llm.TextGenerator, store *Store, agentName string, log *logger.Logger) *RecordingGenerator {
	return &RecordingGenerator{
		next:      next,
		store:     store,
		agentName: agentName,
		log:       log,
	}
}

// GenerateContent delegates to the wrapped generator. Failing to record is logged, never returned.
func (g *RecordingGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	start := time.Now()
	resp, err := g.next.GenerateContent(ctx, prompt)

	meta := shared.AgentMeta{
		AgentName: g.agentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if recErr := g.store.RecordMeta(context.WithoutCancel(ctx), meta); recErr != nil {
		g.log.Warn("Failed to record execution metric", "agent", g.agentName, "error", recErr)
	}
	return resp, err
}
