package service

import (
	"context"
	"errors"
	"fmt"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/pkg/logger"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// CompletionProvider sends one prompt to a language model and returns the
// text of its reply.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiProvider talks to Google's Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewGeminiProvider(ctx context.Context, cfg *config.AIConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	if cfg.Temperature > 0 {
		model.SetTemperature(cfg.Temperature)
	}
	return &GeminiProvider{client: client, model: model, name: cfg.Model}, nil
}

func (p *GeminiProvider) Name() string { return "gemini/" + p.name }

func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		// first candidate with content wins
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
	}
	return sb.String(), nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// OpenAIProvider talks to any OpenAI compatible chat completions endpoint.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIProvider(cfg *config.AIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key not configured")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai/" + p.model }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write quiz questions for university students and answer with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: p.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// unavailableProvider stands in when no model is configured so the rest of
// the service keeps running; every quiz preparation then fails cleanly.
type unavailableProvider struct {
	err error
}

func (p unavailableProvider) Name() string { return "unavailable" }

func (p unavailableProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return "", p.err
}

// NewCompletionProvider builds the provider selected by cfg.Provider.
func NewCompletionProvider(ctx context.Context, cfg *config.AIConfig) CompletionProvider {
	var (
		p   CompletionProvider
		err error
	)
	switch cfg.Provider {
	case "openai":
		p, err = NewOpenAIProvider(cfg)
	default:
		p, err = NewGeminiProvider(ctx, cfg)
	}
	if err != nil {
		logger.Log.Error("Question generator unavailable", zap.String("provider", cfg.Provider), zap.Error(err))
		return unavailableProvider{err: fmt.Errorf("question generator not configured: %w", err)}
	}
	return p
}

// QuestionGenerator implements quiz.Generator: it truncates the source
// text, picks the prompt for the requested kind and returns the raw model
// reply.
type QuestionGenerator struct {
	Provider CompletionProvider
	MaxChars int
	Timeout  time.Duration
}

func NewQuestionGenerator(provider CompletionProvider, maxChars int, timeout time.Duration) *QuestionGenerator {
	if maxChars <= 0 {
		maxChars = quiz.DefaultMaxChars
	}
	return &QuestionGenerator{Provider: provider, MaxChars: maxChars, Timeout: timeout}
}

func (g *QuestionGenerator) Generate(ctx context.Context, req quiz.GenerateRequest) (string, error) {
	prompt, err := BuildPrompt(req.Kind, req.Count, quiz.Truncate(req.Text, g.MaxChars))
	if err != nil {
		return "", err
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.Provider.Complete(ctx, prompt)
	logger.Log.Debug("Question generator call",
		zap.String("provider", g.Provider.Name()),
		zap.String("kind", string(req.Kind)),
		zap.Int("count", req.Count),
		zap.Int("promptChars", len(prompt)),
		zap.Int("responseChars", len(raw)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return raw, err
}

const mcqPrompt = `Based on the following text, write %d multiple-choice questions with exactly 4 options each and exactly one correct option.
Respond with a JSON array only. Each element must be an object with the fields:
  "question"      the question text
  "options"       an array of 4 strings
  "correctAnswer" the zero-based index of the correct option
  "explanation"   one or two sentences on why the answer is correct

Text:
%s

Example:
[
  {
    "question": "What is the capital of France?",
    "options": ["Berlin", "Madrid", "Paris", "Rome"],
    "correctAnswer": 2,
    "explanation": "Paris is the capital city of France."
  }
]`

const fillBlankPrompt = `Based on the following text, write %d fill-in-the-blank questions. Each question is a complete sentence with the missing word or phrase replaced by "` + quiz.BlankMarker + `".
Respond with a JSON array only. Each element must be an object with the fields:
  "question"      the sentence containing "` + quiz.BlankMarker + `"
  "correctAnswer" the missing word or phrase
  "explanation"   one or two sentences of context

Text:
%s

Example:
[
  {
    "question": "The capital of France is ` + quiz.BlankMarker + `.",
    "correctAnswer": "Paris",
    "explanation": "Paris is the capital city of France."
  }
]`

const theoryPrompt = `Based on the following text, write %d open-ended theory questions that test understanding of its key concepts.
Respond with a JSON array only. Each element must be an object with the fields:
  "question"     the question text
  "sampleAnswer" a model answer that would earn full marks
  "keyPoints"    an array of short strings a good answer should cover

Text:
%s

Example:
[
  {
    "question": "Explain why the Eiffel Tower matters to French culture.",
    "sampleAnswer": "Built for the 1889 World's Fair, the tower was first criticised but became the best known symbol of Paris and of French engineering.",
    "keyPoints": ["Built in 1889", "World's Fair", "Initially controversial", "Symbol of Paris", "Engineering achievement"]
  }
]`

// BuildPrompt selects the template for kind.
func BuildPrompt(kind quiz.Kind, count int, text string) (string, error) {
	var tmpl string
	switch kind {
	case quiz.KindMultipleChoice:
		tmpl = mcqPrompt
	case quiz.KindFillBlank:
		tmpl = fillBlankPrompt
	case quiz.KindTheory:
		tmpl = theoryPrompt
	default:
		return "", fmt.Errorf("%w: unknown question type %q", quiz.ErrInvalidRequest, kind)
	}
	return fmt.Sprintf(tmpl, count, text), nil
}
