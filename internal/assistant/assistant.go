// Package assistant answers free-form questions about the user's finances
// with a Gemini model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"smartsave/internal/log"
)

const (
	temperature     = 0.5
	maxOutputTokens = 500
)

// Canned replies shown to the user instead of a model answer.
const (
	NotConfiguredMessage = "I'm sorry, the assistant is not configured properly. Please contact support."
	ErrorMessage         = "I'm sorry, there was an error processing your request. Please try again later."
	EmptyMessage         = "I'm sorry, I couldn't generate a response."
)

var (
	ErrNotConfigured = errors.New("assistant not configured")
	ErrEmptyQuestion = errors.New("missing required field: userMessage")
)

const systemPrompt = `You are a helpful financial assistant in the SmartSave application.
You help users understand their financial data and provide personalized insights and recommendations.
Your tone is professional but friendly.

Here's the detailed context of the user's financial data:
%s

When responding to user queries:
1. Reference specific numbers and data from the financial context when relevant
2. Provide actionable insights and personalized recommendations based on their financial situation
3. Be precise with calculations and percentages
4. If analyzing trends or making comparisons, clearly explain your reasoning
5. Offer suggestions for budget improvements or savings opportunities when appropriate

Answer the user's questions based on this financial context. If you can't answer a question based on the data provided,
politely explain that you need more information or that the data isn't available.
Keep responses concise and focused on financial insights.`

// SystemPrompt embeds financialContext into the assistant instructions.
func SystemPrompt(financialContext string) string {
	return fmt.Sprintf(systemPrompt, financialContext)
}

// Generator produces a model reply for a system prompt and user message.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Assistant answers questions. A nil generator means no API key was
// configured.
type Assistant struct {
	gen    Generator
	logger *log.Logger
}

func New(gen Generator, logger *log.Logger) *Assistant {
	return &Assistant{gen: gen, logger: logger.WithComponent(log.ComponentAssistant)}
}

// Configured reports whether questions can be answered.
func (a *Assistant) Configured() bool {
	return a.gen != nil
}

// Ask returns the model's reply to question given financialContext.
func (a *Assistant) Ask(ctx context.Context, question, financialContext string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	if a.gen == nil {
		return NotConfiguredMessage, ErrNotConfigured
	}
	reply, err := a.gen.Generate(ctx, SystemPrompt(financialContext), question)
	if err != nil {
		a.logger.ErrorContext(ctx, "Assistant request failed", log.FieldError, err)
		return ErrorMessage, fmt.Errorf("generate reply: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return EmptyMessage, nil
	}
	return strings.TrimSpace(reply), nil
}

// Gemini generates replies with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini returns a nil Generator without an API key, leaving the
// assistant unconfigured.
func NewGemini(ctx context.Context, apiKey, model string, httpOpts genai.HTTPOptions) (Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}
