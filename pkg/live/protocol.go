package live

// Wire frames for the bidirectional generate-content websocket. One client
// message carries exactly one of its fields; one server message may carry
// several.

type clientMessage struct {
	Setup         *setup         `json:"setup,omitzero"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitzero"`
	ClientContent *clientContent `json:"clientContent,omitzero"`
}

type setup struct {
	Model                    string               `json:"model"`
	GenerationConfig         *generationConfig    `json:"generationConfig,omitzero"`
	SystemInstruction        *content             `json:"systemInstruction,omitzero"`
	InputAudioTranscription  *transcriptionConfig `json:"inputAudioTranscription,omitzero"`
	OutputAudioTranscription *transcriptionConfig `json:"outputAudioTranscription,omitzero"`
	RealtimeInputConfig      *realtimeInputConfig `json:"realtimeInputConfig,omitzero"`
}

type generationConfig struct {
	ResponseModalities []string        `json:"responseModalities,omitzero"`
	SpeechConfig       *speechConfig   `json:"speechConfig,omitzero"`
	ThinkingConfig     *thinkingConfig `json:"thinkingConfig,omitzero"`
}

type speechConfig struct {
	VoiceConfig  *voiceConfig `json:"voiceConfig,omitzero"`
	LanguageCode string       `json:"languageCode,omitzero"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitzero"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// thinkingBudget zero disables model thinking for minimal response latency.
type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type transcriptionConfig struct {
	LanguageCode string `json:"languageCode,omitzero"`
}

type realtimeInputConfig struct {
	AutomaticActivityDetection *activityDetection `json:"automaticActivityDetection,omitzero"`
}

type activityDetection struct {
	Disabled                 bool   `json:"disabled,omitzero"`
	StartOfSpeechSensitivity string `json:"startOfSpeechSensitivity,omitzero"`
	EndOfSpeechSensitivity   string `json:"endOfSpeechSensitivity,omitzero"`
}

const (
	startSensitivityHigh = "START_SENSITIVITY_HIGH"
	endSensitivityHigh   = "END_SENSITIVITY_HIGH"
)

type realtimeInput struct {
	MediaChunks []blob `json:"mediaChunks,omitzero"`
}

type clientContent struct {
	Turns        []content `json:"turns,omitzero"`
	TurnComplete bool      `json:"turnComplete,omitzero"`
}

type content struct {
	Role  string `json:"role,omitzero"`
	Parts []part `json:"parts,omitzero"`
}

type part struct {
	Text       string `json:"text,omitzero"`
	InlineData *blob  `json:"inlineData,omitzero"`
}

type blob struct {
	MIMEType string `json:"mimeType,omitzero"`
	Data     string `json:"data,omitzero"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitzero"`
	ServerContent *serverContent `json:"serverContent,omitzero"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn,omitzero"`
	TurnComplete        bool           `json:"turnComplete,omitzero"`
	Interrupted         bool           `json:"interrupted,omitzero"`
	InputTranscription  *transcription `json:"inputTranscription,omitzero"`
	OutputTranscription *transcription `json:"outputTranscription,omitzero"`
}

type transcription struct {
	Text     string `json:"text,omitzero"`
	Finished bool   `json:"finished,omitzero"`
}
