package bedrock

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultMaxTokens = 512
	defaultTemp      = 0.7
	defaultTopP      = 0.9
)

// Params are the normalized inference parameters.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// ParamsFor fills defaults and caps MaxTokens at limit when limit > 0.
func ParamsFor(in types.GenerateInput, limit int) Params {
	p := Params{MaxTokens: in.MaxTokens, Temperature: in.Temperature, TopP: in.TopP}
	if p.MaxTokens <= 0 {
		p.MaxTokens = defaultMaxTokens
	}
	if limit > 0 && p.MaxTokens > limit {
		p.MaxTokens = limit
	}
	if p.Temperature <= 0 || p.Temperature > 1 {
		p.Temperature = defaultTemp
	}
	if p.TopP <= 0 || p.TopP > 1 {
		p.TopP = defaultTopP
	}
	return p
}

type textBlock struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string      `json:"role"`
	Content []textBlock `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
	Temperature      float64            `json:"temperature"`
	TopP             float64            `json:"top_p"`
}

type titanConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"topP"`
}

type titanRequest struct {
	InputText            string      `json:"inputText"`
	TextGenerationConfig titanConfig `json:"textGenerationConfig"`
}

type novaMessage struct {
	Role    string      `json:"role"`
	Content []textBlock `json:"content"`
}

type novaInference struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type novaRequest struct {
	SchemaVersion   string        `json:"schemaVersion"`
	System          []textBlock   `json:"system,omitempty"`
	Messages        []novaMessage `json:"messages"`
	InferenceConfig novaInference `json:"inferenceConfig"`
}

type metaRequest struct {
	Prompt      string  `json:"prompt"`
	MaxGenLen   int     `json:"max_gen_len"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type mistralRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type cohereRequest struct {
	Message     string  `json:"message"`
	Preamble    string  `json:"preamble,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	P           float64 `json:"p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ai21Request struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

// BuildRequest encodes the InvokeModel body for family.
func BuildRequest(family Family, in types.GenerateInput, p Params) ([]byte, error) {
	var body any
	switch family {
	case Anthropic:
		body = anthropicRequest{
			AnthropicVersion: anthropicVersion,
			MaxTokens:        p.MaxTokens,
			System:           in.System,
			Messages:         []anthropicMessage{{Role: "user", Content: []textBlock{{Type: "text", Text: in.Prompt}}}},
			Temperature:      p.Temperature,
			TopP:             p.TopP,
		}
	case AmazonTitan:
		text := in.Prompt
		if in.System != "" {
			text = in.System + "\n\n" + in.Prompt
		}
		body = titanRequest{
			InputText:            text,
			TextGenerationConfig: titanConfig{MaxTokenCount: p.MaxTokens, Temperature: p.Temperature, TopP: p.TopP},
		}
	case AmazonNova:
		req := novaRequest{
			SchemaVersion:   "messages-v1",
			Messages:        []novaMessage{{Role: "user", Content: []textBlock{{Text: in.Prompt}}}},
			InferenceConfig: novaInference{MaxTokens: p.MaxTokens, Temperature: p.Temperature, TopP: p.TopP},
		}
		if in.System != "" {
			req.System = []textBlock{{Text: in.System}}
		}
		body = req
	case Meta:
		body = metaRequest{Prompt: llamaPrompt(in.System, in.Prompt), MaxGenLen: p.MaxTokens, Temperature: p.Temperature, TopP: p.TopP}
	case Mistral:
		body = mistralRequest{Prompt: mistralPrompt(in.System, in.Prompt), MaxTokens: p.MaxTokens, Temperature: p.Temperature, TopP: p.TopP}
	case Cohere:
		body = cohereRequest{Message: in.Prompt, Preamble: in.System, MaxTokens: p.MaxTokens, Temperature: p.Temperature, P: p.TopP}
	case AI21:
		msgs := []chatMessage{}
		if in.System != "" {
			msgs = append(msgs, chatMessage{Role: "system", Content: in.System})
		}
		msgs = append(msgs, chatMessage{Role: "user", Content: in.Prompt})
		body = ai21Request{Messages: msgs, MaxTokens: p.MaxTokens, Temperature: p.Temperature, TopP: p.TopP}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, in.ModelID)
	}
	return json.Marshal(body)
}

func llamaPrompt(system, prompt string) string {
	var b strings.Builder
	b.WriteString("<|begin_of_text|>")
	if system != "" {
		b.WriteString("<|start_header_id|>system<|end_header_id|>\n\n")
		b.WriteString(system)
		b.WriteString("<|eot_id|>")
	}
	b.WriteString("<|start_header_id|>user<|end_header_id|>\n\n")
	b.WriteString(prompt)
	b.WriteString("<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n\n")
	return b.String()
}

func mistralPrompt(system, prompt string) string {
	if system != "" {
		prompt = system + "\n\n" + prompt
	}
	return "<s>[INST] " + prompt + " [/INST]"
}

// response is a union of the fields the families answer with.
type response struct {
	// anthropic
	Content []textBlock `json:"content"`
	Usage   struct {
		InputTokens      int `json:"input_tokens"`
		OutputTokens     int `json:"output_tokens"`
		NovaInput        int `json:"inputTokens"`
		NovaOutput       int `json:"outputTokens"`
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	// titan
	InputTextTokenCount int `json:"inputTextTokenCount"`
	Results             []struct {
		TokenCount int    `json:"tokenCount"`
		OutputText string `json:"outputText"`
	} `json:"results"`
	// nova
	Output struct {
		Message struct {
			Content []textBlock `json:"content"`
		} `json:"message"`
	} `json:"output"`
	// meta
	Generation           string `json:"generation"`
	PromptTokenCount     int    `json:"prompt_token_count"`
	GenerationTokenCount int    `json:"generation_token_count"`
	// mistral
	Outputs []struct {
		Text string `json:"text"`
	} `json:"outputs"`
	// cohere
	Text        string `json:"text"`
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
	// ai21
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ParseResponse decodes an InvokeModel body for family.
func ParseResponse(family Family, body []byte) (string, types.Usage, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return "", types.Usage{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var text string
	var usage types.Usage
	switch family {
	case Anthropic:
		text = joinBlocks(r.Content)
		usage = types.Usage{InputTokens: r.Usage.InputTokens, OutputTokens: r.Usage.OutputTokens}
	case AmazonTitan:
		if len(r.Results) > 0 {
			text = r.Results[0].OutputText
			usage.OutputTokens = r.Results[0].TokenCount
		}
		usage.InputTokens = r.InputTextTokenCount
	case AmazonNova:
		text = joinBlocks(r.Output.Message.Content)
		usage = types.Usage{InputTokens: r.Usage.NovaInput, OutputTokens: r.Usage.NovaOutput}
	case Meta:
		text = r.Generation
		usage = types.Usage{InputTokens: r.PromptTokenCount, OutputTokens: r.GenerationTokenCount}
	case Mistral:
		if len(r.Outputs) > 0 {
			text = r.Outputs[0].Text
		}
	case Cohere:
		text = r.Text
		if text == "" && len(r.Generations) > 0 {
			text = r.Generations[0].Text
		}
	case AI21:
		if len(r.Choices) > 0 {
			text = r.Choices[0].Message.Content
		}
		usage = types.Usage{InputTokens: r.Usage.PromptTokens, OutputTokens: r.Usage.CompletionTokens}
	default:
		return "", types.Usage{}, ErrUnsupportedModel
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", usage, ErrEmptyCompletion
	}
	return text, usage, nil
}

func joinBlocks(blocks []textBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
