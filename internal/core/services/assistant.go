package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.Assistant = (*AssistantService)(nil)

// Generation limits. Context handed to the LLM is capped so prompts
// stay within model limits.
const (
	askTopK           = 5
	maxContextChunks  = 20
	maxContextLength  = 4000
	answerMaxTokens   = 1024
	questionMaxTokens = 4096
)

// AssistantService produces grounded answers and course material from
// indexed content.
type AssistantService struct {
	retriever driving.Retriever
	index     driven.VectorIndex
	docStore  driven.DocumentStore
	llm       driven.LLMService
}

// NewAssistantService creates the assistant service.
func NewAssistantService(
	retriever driving.Retriever,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	llm driven.LLMService,
) *AssistantService {
	return &AssistantService{
		retriever: retriever,
		index:     index,
		docStore:  docStore,
		llm:       llm,
	}
}

// Ask answers a question grounded in the collection's documents.
func (s *AssistantService) Ask(
	ctx context.Context, collectionID, question string,
) (domain.Answer, error) {
	result, err := s.retriever.Retrieve(ctx, question, collectionID, domain.RetrieveOptions{
		TopK: askTopK,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieving context: %w", err)
	}
	if len(result.Passages) == 0 {
		return domain.Answer{
			Text: "I could not find anything relevant in the course material.",
		}, nil
	}

	var contextText strings.Builder
	for i, p := range result.Passages {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		contextText.WriteString(p.Content)
	}

	prompt := fmt.Sprintf(answerPrompt, contextText.String(), question)
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	return domain.Answer{
		Text:     strings.TrimSpace(text),
		Sources:  s.sourceFilenames(ctx, result.Passages),
		Passages: result.Passages,
	}, nil
}

// GenerateAssignment produces assignment questions from the indexed
// content of the given documents.
func (s *AssistantService) GenerateAssignment(
	ctx context.Context, collectionID string, documentIDs []string,
	numQuestions int, difficulty string,
) ([]domain.GeneratedQuestion, error) {
	return s.generateQuestions(ctx, assignmentPrompt, collectionID, documentIDs,
		numQuestions, difficulty)
}

// GenerateMCQs produces multiple choice questions from the indexed
// content of the given documents.
func (s *AssistantService) GenerateMCQs(
	ctx context.Context, collectionID string, documentIDs []string,
	numQuestions int, difficulty string,
) ([]domain.GeneratedQuestion, error) {
	return s.generateQuestions(ctx, mcqPrompt, collectionID, documentIDs,
		numQuestions, difficulty)
}

// generateQuestions collects document content, prompts the LLM and
// parses the returned question list.
func (s *AssistantService) generateQuestions(
	ctx context.Context, promptTemplate, collectionID string, documentIDs []string,
	numQuestions int, difficulty string,
) ([]domain.GeneratedQuestion, error) {
	if numQuestions <= 0 {
		return nil, fmt.Errorf("%w: number of questions must be positive", domain.ErrInvalidConfig)
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	material, err := s.collectMaterial(ctx, collectionID, documentIDs)
	if err != nil {
		return nil, err
	}
	if material == "" {
		return nil, fmt.Errorf("%w: no indexed content for the given documents", domain.ErrNotFound)
	}

	prompt := fmt.Sprintf(promptTemplate, numQuestions, difficulty, material)
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   questionMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	questions := parseQuestions(text)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: model returned no parseable questions", domain.ErrLLMService)
	}
	for i := range questions {
		questions[i].ID = uuid.NewString()
		if questions[i].Number == 0 {
			questions[i].Number = i + 1
		}
	}
	return questions, nil
}

// collectMaterial concatenates the indexed chunks of the given
// documents, capped to keep the prompt within model limits.
func (s *AssistantService) collectMaterial(
	ctx context.Context, collectionID string, documentIDs []string,
) (string, error) {
	var sb strings.Builder
	chunksUsed := 0
	for _, docID := range documentIDs {
		recs, err := s.index.DocumentChunks(ctx, collectionID, docID)
		if err != nil {
			return "", fmt.Errorf("loading document chunks: %w", err)
		}
		for _, rec := range recs {
			if chunksUsed >= maxContextChunks || sb.Len() >= maxContextLength {
				logger.Debug("material capped at %d chunks, %d chars", chunksUsed, sb.Len())
				return sb.String(), nil
			}
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(rec.Content)
			chunksUsed++
		}
	}
	return sb.String(), nil
}

// sourceFilenames resolves the distinct filenames behind the passages,
// in first-use order. Documents that cannot be resolved fall back to
// their ID.
func (s *AssistantService) sourceFilenames(
	ctx context.Context, passages []domain.Passage,
) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, p := range passages {
		if seen[p.DocumentID] {
			continue
		}
		seen[p.DocumentID] = true

		name := p.DocumentID
		doc, err := s.docStore.Get(ctx, p.DocumentID)
		if err == nil {
			name = doc.Filename
		} else if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("resolving source %s: %v", p.DocumentID, err)
		}
		sources = append(sources, name)
	}
	return sources
}

// parseQuestions extracts a question list from model output. The model
// is asked for a bare JSON array, but answers wrapped in code fences or
// surrounding prose are recovered by locating the outermost brackets.
// As a last resort each non-empty line becomes one plain question.
func parseQuestions(text string) []domain.GeneratedQuestion {
	var questions []domain.GeneratedQuestion
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return questions
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &questions); err == nil {
			return questions
		}
	}

	logger.Warn("question output was not valid JSON, falling back to line parsing")
	number := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		number++
		questions = append(questions, domain.GeneratedQuestion{
			Number:   number,
			Question: line,
		})
	}
	return questions
}
