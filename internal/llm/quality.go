package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mealhow/internal/logger"
)

// ErrContentRejected is returned when every attempt produced a refusal-like answer.
var ErrContentRejected = errors.New("completion rejected by quality gate")

var rejectionMarkers = []string{"sorry", "apologize"}

// IsRejected reports whether a completion looks like a refusal or apology.
func IsRejected(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range rejectionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// QualityGate re-asks the model while it answers with apologies.
// Transport errors are not retried here.
type QualityGate struct {
	gen      TextGenerator
	maxTries int
	sleep    time.Duration
	log      *logger.Logger
}

// NewQualityGate wraps gen. maxTries below one is treated as one.
func NewQualityGate(gen TextGenerator, maxTries int, sleep time.Duration, log *logger.Logger) *QualityGate {
	if maxTries < 1 {
		maxTries = 1
	}
	return &QualityGate{
		gen:      gen,
		maxTries: maxTries,
		sleep:    sleep,
		log:      log.With("service", "QualityGate"),
	}
}

// GenerateContent returns the first accepted completion. When all attempts are rejected
// the last completion is returned along with an error wrapping ErrContentRejected.
func (q *QualityGate) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	var last ContentResponse
	var total ContentResponse

	for attempt := 1; attempt <= q.maxTries; attempt++ {
		resp, err := q.gen.GenerateContent(ctx, prompt)
		if err != nil {
			return ContentResponse{}, err
		}

		total.Usage.PromptTokens += resp.Usage.PromptTokens
		total.Usage.CompletionTokens += resp.Usage.CompletionTokens
		total.Usage.TotalTokens += resp.Usage.TotalTokens
		total.Usage.Model = resp.Usage.Model
		last = resp

		if !IsRejected(resp.Content) {
			last.Usage = total.Usage
			return last, nil
		}

		q.log.Warn("Completion rejected, trying again", "attempt", attempt, "max_tries", q.maxTries)
		if attempt == q.maxTries {
			break
		}

		select {
		case <-ctx.Done():
			return ContentResponse{}, ctx.Err()
		case <-time.After(q.sleep):
		}
	}

	last.Usage = total.Usage
	return last, fmt.Errorf("%w after %d attempts", ErrContentRejected, q.maxTries)
}
