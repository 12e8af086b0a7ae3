package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// Insights is the structured personality profile extracted from a training
// conversation.
type Insights struct {
	Skills             []string           `json:"skills"`
	Interests          []string           `json:"interests"`
	Values             []string           `json:"values"`
	CommunicationStyle CommunicationStyle `json:"communicationStyle"`
	Bio                string             `json:"bio"`
}

// CommunicationStyle describes how the person communicates.
type CommunicationStyle struct {
	// Formality is one of casual, balanced, formal.
	Formality string `json:"formality"`

	// Humor is one of dry, playful, serious.
	Humor string `json:"humor"`

	// Verbosity is one of concise, balanced, detailed.
	Verbosity string `json:"verbosity"`

	// Tone is a brief free-text description.
	Tone string `json:"tone"`
}

// DefaultInsights is the neutral profile used when extraction yields nothing
// parseable.
func DefaultInsights() *Insights {
	return &Insights{
		Skills:    []string{},
		Interests: []string{},
		Values:    []string{},
		CommunicationStyle: CommunicationStyle{
			Formality: "balanced",
			Humor:     "playful",
			Verbosity: "balanced",
		},
	}
}

const extractorSystemPrompt = `You are a personality analysis engine. Extract structured personality data from conversations. Return ONLY valid JSON matching the response schema. communicationStyle.formality is one of casual|balanced|formal, humor one of dry|playful|serious, verbosity one of concise|balanced|detailed. bio is a 1-2 sentence bio based on what you learned.`

// ExtractInsights analyzes a training conversation and returns the
// structured profile. Model output that cannot be parsed even after repair
// degrades to DefaultInsights rather than an error; extraction is
// best-effort.
func (s *Service) ExtractInsights(ctx context.Context, msgs []Message) (*Insights, error) {
	var sb strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}

	schema, err := jsonschema.For[Insights](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("persona: insights schema: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   1024,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: extractorSystemPrompt}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    convSchema(schema),
	}
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: "Analyze this conversation and extract personality data:\n\n" + sb.String()}},
	}}

	resp, err := s.client.Models.GenerateContent(ctx, s.opts.ChatModel, contents, cfg)
	if err != nil {
		return nil, unwrapAPIError(err)
	}

	var insights Insights
	if err := unmarshalJSON([]byte(stripFences(joinText(resp))), &insights); err != nil {
		return DefaultInsights(), nil
	}
	return &insights, nil
}

// convSchema converts a JSON schema to the wire schema type.
func convSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       convSchema(schema.Items),
		Required:    schema.Required,
	}

	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = convSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
