// Package persona implements the stateless model calls behind agent
// personas: streaming chat as a trained persona, the trainer interview,
// structured personality extraction, and avatar image generation.
package persona

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

const (
	// DefaultChatModel handles chat, training, and extraction calls.
	DefaultChatModel = "gemini-2.0-flash"
)

// DefaultImageModels is the avatar generation fallback list, tried in order.
var DefaultImageModels = []string{
	"gemini-2.5-flash-image",
	"gemini-3-pro-image-preview",
}

// Message is one conversation turn. Role is "user" or "model"; anything else
// is treated as "model".
type Message struct {
	Role    string
	Content string
}

// Options configures a Service.
type Options struct {
	// ChatModel is the text model identifier. Default gemini-2.0-flash.
	ChatModel string

	// ImageModels is the avatar model fallback list.
	ImageModels []string

	// ReferenceImagePath optionally points to a style reference image
	// attached to every avatar request. Loaded once, never invalidated.
	ReferenceImagePath string
}

// Service wraps the generative-language client with explicit configuration.
// No module-level state; construct one per API key.
type Service struct {
	client *genai.Client
	opts   Options
	ref    *refCache
}

// NewService creates a Service for the given API key.
func NewService(ctx context.Context, apiKey string, opts Options) (*Service, error) {
	if apiKey == "" {
		return nil, errors.New("persona: API key is required")
	}
	if opts.ChatModel == "" {
		opts.ChatModel = DefaultChatModel
	}
	if len(opts.ImageModels) == 0 {
		opts.ImageModels = DefaultImageModels
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("persona: create client: %w", err)
	}
	return &Service{
		client: client,
		opts:   opts,
		ref:    newRefCache(opts.ReferenceImagePath),
	}, nil
}

// convContents converts conversation turns to the wire content list. User
// turns keep their role; every other role becomes the model's.
func convContents(msgs []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleModel
		if m.Role == "user" {
			role = genai.RoleUser
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return contents
}

func chatConfig(systemPrompt string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.9),
		TopP:              genai.Ptr[float32](0.95),
		MaxOutputTokens:   1024,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
}

// unwrapAPIError strips the gax wrapper so callers see the underlying error.
func unwrapAPIError(err error) error {
	if e, ok := err.(*apierror.APIError); ok {
		return e.Unwrap()
	}
	return err
}

// Chat streams a persona reply as text deltas. The iteration ends on the
// first error.
func (s *Service) Chat(ctx context.Context, systemPrompt string, msgs []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := s.client.Models.GenerateContentStream(ctx, s.opts.ChatModel, convContents(msgs), chatConfig(systemPrompt))
		for chunk, err := range stream {
			if err != nil {
				yield("", unwrapAPIError(err))
				return
			}
			if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
				continue
			}
			for _, p := range chunk.Candidates[0].Content.Parts {
				if p.Text == "" {
					continue
				}
				if !yield(p.Text, nil) {
					return
				}
			}
		}
	}
}

// Train runs one trainer interview turn and returns the full reply.
func (s *Service) Train(ctx context.Context, msgs []Message) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.opts.ChatModel, convContents(msgs), chatConfig(TrainerSystemPrompt))
	if err != nil {
		return "", unwrapAPIError(err)
	}
	text := joinText(resp)
	if text == "" {
		return "I had trouble generating a response.", nil
	}
	return text, nil
}

func joinText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// TrainerSystemPrompt drives the text training interview.
const TrainerSystemPrompt = `You are a trainer that helps people create their AI agent. Your job is to learn EVERYTHING about the person through natural conversation.

You should:
1. Ask thoughtful, probing questions to understand who they are
2. Reflect back what you've learned to confirm understanding
3. Dig deeper into interesting areas (skills, personality, communication style)
4. Be warm, engaging, and make the process feel like a fun conversation
5. After several exchanges, summarize what you've learned about them

Structured topics to cover (naturally, not as a checklist):
- Professional skills and expertise
- Interests and passions
- Core values and principles
- Communication style (formal/casual, humor, verbosity)
- Decision-making approach
- Unique personality traits and quirks

Keep responses concise but engaging. Ask one main question at a time.`
