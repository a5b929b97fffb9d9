package services

import (
	"context"

	"go.uber.org/zap"

	"tripweaver/internal/providers"
)

// clarifyPriority orders follow-up questions; at most three are asked.
var clarifyPriority = []string{"city", "days", "dates", "budget", "themes"}

type ClarifyServiceInterface interface {
	Questions(ctx context.Context, missingFields []string) []string
}

type ClarifyService struct {
	llm    providers.LLMClient
	logger *zap.Logger
}

func NewClarifyService(llm providers.LLMClient, logger *zap.Logger) ClarifyServiceInterface {
	return &ClarifyService{llm: llm, logger: logger}
}

func (s *ClarifyService) Questions(ctx context.Context, missingFields []string) []string {
	ordered := make([]string, 0, len(missingFields))
	for _, field := range clarifyPriority {
		for _, missing := range missingFields {
			if missing == field {
				ordered = append(ordered, field)
			}
		}
	}
	if len(ordered) > 3 {
		ordered = ordered[:3]
	}
	if len(ordered) == 0 {
		return nil
	}

	if s.llm != nil && s.llm.Name() != "template" {
		questions, err := s.llm.PhraseQuestions(ctx, ordered)
		if err == nil && len(questions) > 0 {
			if len(questions) > 3 {
				questions = questions[:3]
			}
			return questions
		}
		s.logger.Warn("llm question phrasing failed, using templates", zap.Error(err))
	}

	template := providers.NewTemplateClient()
	questions, _ := template.PhraseQuestions(ctx, ordered)
	return questions
}
