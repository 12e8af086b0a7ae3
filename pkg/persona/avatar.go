package persona

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Angle selects the avatar portrait orientation.
type Angle string

const (
	AngleFront Angle = "front"
	AngleLeft  Angle = "left"
	AngleRight Angle = "right"
)

// Avatar is a generated portrait. When every model fails, the original photo
// comes back with Generated false so the caller always has an image.
type Avatar struct {
	Data      []byte
	MIMEType  string
	Generated bool
	Model     string
}

// avatarBasePrompt locks the portrait style down for consistency across
// generations.
const avatarBasePrompt = `Transform this photo into a Holographic Neural Portrait. Follow these EXACT rules with NO deviation:

MANDATORY STYLE:
- The person's face must be clearly recognizable
- Translucent golden circuit-board patterns overlay the skin, tracing along cheekbones, jawline, forehead, and neck
- Data stream lines flow vertically and horizontally across the face with a subtle glow
- Eyes glow with warm amber/gold light
- Hair transforms into flowing golden energy strands made of light particles
- Horizontal holographic scan lines across the image (subtle, not overpowering)
- Small floating light particles scattered around the head and shoulders

MANDATORY COLORS:
- Primary glow: Gold (#D4A017) and Amber (#FFBF00)
- Secondary: Warm white highlights (#FFF8E1)
- Background: PURE BLACK (#000000) with no gradients or scenery
- All circuit patterns and data streams in gold/amber tones

MANDATORY COMPOSITION:
- Centered face, looking DIRECTLY at camera (front-facing)
- Head and upper shoulders visible
- Pure black background with NO elements behind the person
- Square crop, portrait style
- The person should look powerful, ethereal, futuristic
- High detail on facial features

DO NOT: Add any text, watermarks, logos, borders, or frames. Output ONLY the transformed image.`

const frontFacing = "looking DIRECTLY at camera (front-facing)"

// anglePrompt returns the style prompt turned toward the requested angle.
func anglePrompt(angle Angle) string {
	switch angle {
	case AngleLeft:
		return strings.Replace(avatarBasePrompt, frontFacing,
			"face turned approximately 25 degrees to THEIR LEFT (camera right), eyes looking toward camera", 1)
	case AngleRight:
		return strings.Replace(avatarBasePrompt, frontFacing,
			"face turned approximately 25 degrees to THEIR RIGHT (camera left), eyes looking toward camera", 1)
	default:
		return avatarBasePrompt
	}
}

// Avatar generates a styled portrait from the given photo, trying each image
// model in order. A style reference image, when configured, is attached to
// every request.
func (s *Service) Avatar(ctx context.Context, photo []byte, mimeType string, angle Angle) (*Avatar, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: photo}},
	}
	if ref, refMIME, err := s.ref.get(); err == nil && len(ref) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: refMIME, Data: ref}})
	}
	parts = append(parts, &genai.Part{Text: anglePrompt(angle)})

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		Temperature:        genai.Ptr[float32](0.4),
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	for _, model := range s.opts.ImageModels {
		resp, err := s.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			slog.Debug("avatar model failed", "model", model, "error", unwrapAPIError(err))
			continue
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, p := range resp.Candidates[0].Content.Parts {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				mime := p.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &Avatar{Data: p.InlineData.Data, MIMEType: mime, Generated: true, Model: model}, nil
			}
		}
	}

	// Every model failed; hand the original photo back.
	return &Avatar{Data: photo, MIMEType: mimeType, Generated: false}, nil
}

// refCache loads the style reference image at most once and holds it for the
// service's lifetime. Never invalidated.
type refCache struct {
	load func() ([]byte, string, error)

	once sync.Once
	data []byte
	mime string
	err  error
}

func newRefCache(path string) *refCache {
	return &refCache{load: func() ([]byte, string, error) {
		if path == "" {
			return nil, "", nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("persona: reference image: %w", err)
		}
		return data, mimeByExt(path), nil
	}}
}

func (c *refCache) get() ([]byte, string, error) {
	c.once.Do(func() {
		c.data, c.mime, c.err = c.load()
		if c.err != nil {
			slog.Warn("reference image unavailable", "error", c.err)
		}
	})
	return c.data, c.mime, c.err
}

func mimeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
