package insights

import (
	"context"
	"fmt"

	"github.com/gomarble/admetrics/internal/pkg/logger"
)

// fallbackAnswer is returned when a backend responds in a shape we do not
// recognize. The dashboard shows it verbatim.
const fallbackAnswer = "I was unable to generate an insight from your advertising data right now. Please try again."

// Completer turns a system prompt and user message into a text answer.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const systemPrompt = `You are an advertising analytics assistant. You answer questions about the user's Google Ads and Meta Ads performance using only the metrics provided in the context. Be concise and concrete; cite numbers from the context.`

// Service answers workspace questions over the insights backend.
type Service struct {
	reader    MetricsReader
	completer Completer
}

// NewService creates an insights service.
func NewService(reader MetricsReader, completer Completer) *Service {
	return &Service{reader: reader, completer: completer}
}

// Ask builds the metrics context for the workspace and forwards the question.
func (s *Service) Ask(ctx context.Context, workspaceID, question string) (string, error) {
	contextBlock, err := BuildContext(ctx, s.reader, workspaceID)
	if err != nil {
		return "", fmt.Errorf("build insights context: %w", err)
	}

	user := contextBlock + "\nQuestion: " + question
	answer, err := s.completer.Complete(ctx, systemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if answer == "" {
		logger.Warn("insights backend returned an empty answer",
			"workspace_id", workspaceID)
		return fallbackAnswer, nil
	}
	return answer, nil
}
