package persona

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

func TestConvContents(t *testing.T) {
	contents := convContents([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "model", Content: "how are you"},
	})
	if len(contents) != 3 {
		t.Fatalf("len=%d, want 3", len(contents))
	}
	if contents[0].Role != genai.RoleUser {
		t.Errorf("role[0]=%v, want user", contents[0].Role)
	}
	// Any non-user role maps to the model role.
	if contents[1].Role != genai.RoleModel || contents[2].Role != genai.RoleModel {
		t.Errorf("roles=%v,%v, want model,model", contents[1].Role, contents[2].Role)
	}
	if contents[0].Parts[0].Text != "hi" {
		t.Errorf("text=%q, want hi", contents[0].Parts[0].Text)
	}
}

func TestConvSchemaInsights(t *testing.T) {
	schema, err := jsonschema.For[Insights](&jsonschema.ForOptions{})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	gs := convSchema(schema)
	if gs.Type != genai.TypeObject {
		t.Fatalf("type=%v, want object", gs.Type)
	}
	skills, ok := gs.Properties["skills"]
	if !ok || skills.Type != genai.TypeArray || skills.Items.Type != genai.TypeString {
		t.Errorf("skills schema=%+v, want array of string", skills)
	}
	style, ok := gs.Properties["communicationStyle"]
	if !ok || style.Type != genai.TypeObject {
		t.Fatalf("communicationStyle schema missing")
	}
	if tone, ok := style.Properties["tone"]; !ok || tone.Type != genai.TypeString {
		t.Errorf("tone schema=%+v, want string", tone)
	}
}

func TestUnmarshalJSONRepairsMalformed(t *testing.T) {
	// Trailing comma and unquoted key, as models sometimes emit.
	payload := `{skills: ["go", "sql",], "bio": "short"}`
	var got Insights
	if err := unmarshalJSON([]byte(payload), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Skills) != 2 || got.Skills[0] != "go" {
		t.Errorf("skills=%v", got.Skills)
	}
	if got.Bio != "short" {
		t.Errorf("bio=%q", got.Bio)
	}
}

func TestUnmarshalJSONTypeErrorNotRepaired(t *testing.T) {
	var got Insights
	if err := unmarshalJSON([]byte(`{"bio": 42}`), &got); err == nil {
		t.Error("type mismatch should surface, not repair")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q)=%q, want %q", c.in, got, c.want)
		}
	}
}

func TestDefaultInsights(t *testing.T) {
	d := DefaultInsights()
	if d.CommunicationStyle.Formality != "balanced" || d.CommunicationStyle.Humor != "playful" {
		t.Errorf("defaults=%+v", d.CommunicationStyle)
	}
	if d.Skills == nil || d.Interests == nil || d.Values == nil {
		t.Error("list fields should be empty, not nil")
	}
}

func TestAnglePrompt(t *testing.T) {
	if got := anglePrompt(AngleFront); !strings.Contains(got, frontFacing) {
		t.Error("front prompt should keep the front-facing clause")
	}
	left := anglePrompt(AngleLeft)
	if strings.Contains(left, frontFacing) || !strings.Contains(left, "THEIR LEFT") {
		t.Error("left prompt should replace the facing clause")
	}
	right := anglePrompt(AngleRight)
	if !strings.Contains(right, "THEIR RIGHT") {
		t.Error("right prompt should replace the facing clause")
	}
}

func TestRefCacheLoadsOnce(t *testing.T) {
	calls := 0
	c := &refCache{load: func() ([]byte, string, error) {
		calls++
		return []byte{1, 2}, "image/png", nil
	}}
	for range 3 {
		data, mime, err := c.get()
		if err != nil || len(data) != 2 || mime != "image/png" {
			t.Fatalf("get: data=%v mime=%q err=%v", data, mime, err)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestRefCacheCachesError(t *testing.T) {
	calls := 0
	c := &refCache{load: func() ([]byte, string, error) {
		calls++
		return nil, "", errors.New("missing")
	}}
	c.get()
	if _, _, err := c.get(); err == nil {
		t.Error("cached error should persist")
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}
