// Package rca produces root cause analyses for anomalies using a Bedrock
// model, with a rules-based analysis when the model is unavailable.
package rca

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/tgsai/aiops-console/internal/domain/types"
	"github.com/tgsai/aiops-console/pkg/logger"
	"github.com/tgsai/aiops-console/pkg/metrics"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	promptTemplate = "prompt.tmpl"
	tailPoints     = 12
	defaultTokens  = 1024
)

// Context is what the model is told about an anomaly.
type Context struct {
	Anomaly     types.Anomaly
	Series      *types.TimeSeries
	Correlation *types.Correlation
	Notes       string
}

// Invoker runs a text generation. A result whose Source is not
// types.SourceBedrock is treated as unavailable.
type Invoker interface {
	Generate(ctx context.Context, in types.GenerateInput) (types.Generation, error)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModel sets the model used for analyses.
func WithModel(modelID string) Option {
	return func(a *Analyzer) {
		if modelID != "" {
			a.modelID = modelID
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// Analyzer renders prompts and interprets model answers.
type Analyzer struct {
	tmpl    *template.Template
	invoker Invoker
	modelID string
	log     logger.Logger
}

// New creates an analyzer. invoker may be nil, in which case every analysis
// is rules-based.
func New(invoker Invoker, opts ...Option) (*Analyzer, error) {
	funcs := sprig.TxtFuncMap()
	funcs["tail"] = func(points []types.SeriesPoint) []types.SeriesPoint {
		if len(points) > tailPoints {
			return points[len(points)-tailPoints:]
		}
		return points
	}
	tmpl, err := template.New(promptTemplate).Funcs(funcs).ParseFS(templateFS, "templates/"+promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("rca: parse prompt template: %w", err)
	}
	a := &Analyzer{
		tmpl:    tmpl,
		invoker: invoker,
		modelID: "anthropic.claude-3-haiku-20240307-v1:0",
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Prompt renders the analysis prompt for c.
func (a *Analyzer) Prompt(c Context) (string, error) {
	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("rca: render prompt: %w", err)
	}
	return buf.String(), nil
}

// Analyze returns a model analysis when possible and a rules-based one
// otherwise. It only fails when the prompt cannot be rendered.
func (a *Analyzer) Analyze(ctx context.Context, c Context) (types.Analysis, error) {
	prompt, err := a.Prompt(c)
	if err != nil {
		return types.Analysis{}, err
	}
	if a.invoker == nil {
		metrics.RecordRCA(types.SourceSimulated)
		return Fallback(c.Anomaly), nil
	}

	gen, err := a.invoker.Generate(ctx, types.GenerateInput{
		Environment: c.Anomaly.Environment,
		ModelID:     a.modelID,
		Prompt:      prompt,
		MaxTokens:   defaultTokens,
		Temperature: 0.2,
	})
	if err != nil || gen.Source != types.SourceBedrock {
		if err != nil {
			a.log.Warn(ctx, "rca model invocation failed, using rules", logger.String("anomaly_id", c.Anomaly.ID), logger.Error(err))
		}
		metrics.RecordRCA(types.SourceSimulated)
		return Fallback(c.Anomaly), nil
	}

	analysis, err := Extract(gen.Completion)
	if err != nil {
		a.log.Warn(ctx, "rca completion not usable, using rules", logger.String("anomaly_id", c.Anomaly.ID), logger.Error(err))
		metrics.RecordRCA(types.SourceSimulated)
		return Fallback(c.Anomaly), nil
	}
	analysis.Source = types.SourceBedrock
	analysis.ModelID = gen.ModelID
	metrics.RecordRCA(types.SourceBedrock)
	return analysis, nil
}

// Extract decodes the first JSON object in text that carries a root cause.
// Prose, unbalanced braces and objects without a root cause before it are
// skipped.
func Extract(text string) (types.Analysis, error) {
	incomplete := false
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := matchBrace(text, start)
		if end < 0 {
			continue
		}
		var raw struct {
			RootCause   string   `json:"rootCause"`
			Evidence    []string `json:"evidence"`
			Suggestions []string `json:"suggestions"`
			Confidence  *float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
			continue
		}
		if strings.TrimSpace(raw.RootCause) == "" {
			incomplete = true
			continue
		}
		out := types.Analysis{
			RootCause:   strings.TrimSpace(raw.RootCause),
			Evidence:    nonNil(raw.Evidence),
			Suggestions: nonNil(raw.Suggestions),
			Confidence:  0.5,
		}
		if raw.Confidence != nil {
			out.Confidence = clamp01(*raw.Confidence)
		}
		return out, nil
	}
	if incomplete {
		return types.Analysis{}, ErrIncomplete
	}
	return types.Analysis{}, ErrNoJSON
}

// matchBrace returns the index of the brace closing the one at start,
// skipping braces inside JSON strings.
func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		// some models answer in percent
		if v <= 100 {
			return v / 100
		}
		return 1
	default:
		return v
	}
}
