package rca

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

type stubInvoker struct {
	gen  types.Generation
	err  error
	last types.GenerateInput
}

func (s *stubInvoker) Generate(_ context.Context, in types.GenerateInput) (types.Generation, error) {
	s.last = in
	return s.gen, s.err
}

func sampleContext() Context {
	detected := time.Date(2026, 4, 2, 10, 15, 0, 0, time.UTC)
	return Context{
		Anomaly: types.Anomaly{
			ID: "prod-ec2-cpu-01", Environment: "prod", ResourceType: "ec2", ResourceID: "i-prod00000001",
			Metric: "cpu", Source: "metrics", Score: 0.91, Severity: "critical", DetectedAt: detected,
		},
		Series: &types.TimeSeries{Metric: "cpu", Unit: "percent", Series: []types.SeriesPoint{
			{Timestamp: detected.Add(-time.Hour), Value: 41, Expected: 40},
			{Timestamp: detected, Value: 97, Expected: 42, Anomaly: true},
		}},
		Correlation: &types.Correlation{
			Nodes:  []types.CorrelationNode{{ID: "root", Type: "anomaly"}, {ID: "s1", Label: "Deployment rollout", Type: "change", Score: 0.8}},
			Events: []types.CorrelatedEvent{{Timestamp: detected, Source: "logs", Message: "Deployment api started"}},
		},
	}
}

func TestPrompt(t *testing.T) {
	Convey("Given an analyzer", t, func() {
		a, err := New(nil)
		So(err, ShouldBeNil)

		Convey("When rendering a prompt", func() {
			prompt, err := a.Prompt(sampleContext())

			Convey("Then it should describe the anomaly and its context", func() {
				So(err, ShouldBeNil)
				So(prompt, ShouldContainSubstring, "PROD environment")
				So(prompt, ShouldContainSubstring, "Score: 0.91 (critical)")
				So(prompt, ShouldContainSubstring, "value=97.00 expected=42.00 ANOMALOUS")
				So(prompt, ShouldContainSubstring, "Deployment rollout [change]")
				So(prompt, ShouldContainSubstring, "logs: Deployment api started")
				So(prompt, ShouldContainSubstring, `"rootCause"`)
				So(prompt, ShouldNotContainSubstring, "Operator notes")
			})
		})
	})
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	Convey("Given a model answering with JSON wrapped in prose", t, func() {
		inv := &stubInvoker{gen: types.Generation{
			Source:     types.SourceBedrock,
			ModelID:    "anthropic.claude-3-haiku-20240307-v1:0",
			Completion: "Sure, here it is:\n{\"rootCause\": \"Runaway cron job {nightly}\", \"evidence\": [\"cpu 97%\"], \"suggestions\": [\"kill it\"], \"confidence\": 0.8}\nHope this helps.",
		}}
		a, err := New(inv, WithModel("anthropic.claude-3-haiku-20240307-v1:0"))
		So(err, ShouldBeNil)

		analysis, err := a.Analyze(ctx, sampleContext())

		Convey("Then the model analysis should be returned", func() {
			So(err, ShouldBeNil)
			So(analysis.Source, ShouldEqual, types.SourceBedrock)
			So(analysis.RootCause, ShouldEqual, "Runaway cron job {nightly}")
			So(analysis.Confidence, ShouldEqual, 0.8)
			So(analysis.ModelID, ShouldEqual, "anthropic.claude-3-haiku-20240307-v1:0")
			So(inv.last.Environment, ShouldEqual, "prod")
		})
	})

	Convey("Given a failing model", t, func() {
		a, _ := New(&stubInvoker{err: errors.New("throttled")})
		analysis, err := a.Analyze(ctx, sampleContext())

		Convey("Then the rules-based analysis should be used", func() {
			So(err, ShouldBeNil)
			So(analysis.Source, ShouldEqual, types.SourceSimulated)
			So(analysis.RootCause, ShouldContainSubstring, "i-prod00000001")
			So(analysis.Suggestions, ShouldNotBeEmpty)
		})
	})

	Convey("Given a simulated generation", t, func() {
		a, _ := New(&stubInvoker{gen: types.Generation{Source: types.SourceSimulated, Completion: `{"rootCause":"x"}`}})
		analysis, _ := a.Analyze(ctx, sampleContext())

		Convey("Then it should not be trusted as a model answer", func() {
			So(analysis.Source, ShouldEqual, types.SourceSimulated)
		})
	})

	Convey("Given a completion without JSON", t, func() {
		a, _ := New(&stubInvoker{gen: types.Generation{Source: types.SourceBedrock, Completion: "I cannot tell."}})
		analysis, _ := a.Analyze(ctx, sampleContext())

		Convey("Then the rules-based analysis should be used", func() {
			So(analysis.Source, ShouldEqual, types.SourceSimulated)
		})
	})
}

func TestExtract(t *testing.T) {
	Convey("Given completions", t, func() {
		Convey("When the first object is not an analysis", func() {
			_, err := Extract(`{"note": "x"}`)
			So(errors.Is(err, ErrIncomplete), ShouldBeTrue)
		})

		Convey("When braces appear inside strings", func() {
			a, err := Extract(`prefix {"rootCause":"a } b","confidence":85}`)
			So(err, ShouldBeNil)
			So(a.RootCause, ShouldEqual, "a } b")
			So(a.Confidence, ShouldEqual, 0.85)
			So(a.Evidence, ShouldNotBeNil)
		})

		Convey("When the JSON is truncated", func() {
			_, err := Extract(`{"rootCause":"a"`)
			So(errors.Is(err, ErrNoJSON), ShouldBeTrue)
		})

		Convey("When an unbalanced brace precedes the analysis", func() {
			a, err := Extract(`set x = { ... then {"rootCause":"disk full","evidence":["e1"]}`)
			So(err, ShouldBeNil)
			So(a.RootCause, ShouldEqual, "disk full")
			So(a.Evidence, ShouldResemble, []string{"e1"})
		})

		Convey("When an object without a root cause precedes the analysis", func() {
			a, err := Extract(`{"note":"draft"} final: {"rootCause":"pool exhausted","confidence":0.7}`)
			So(err, ShouldBeNil)
			So(a.RootCause, ShouldEqual, "pool exhausted")
			So(a.Confidence, ShouldEqual, 0.7)
		})

		Convey("When no object has a root cause", func() {
			_, err := Extract(`{"note":"a"} and {"note":"b"}`)
			So(errors.Is(err, ErrIncomplete), ShouldBeTrue)
		})
	})
}

func TestFallback(t *testing.T) {
	Convey("Given an anomaly with an unknown metric", t, func() {
		a := Fallback(types.Anomaly{ResourceID: "fn-1", Metric: "invocations", Score: 0.5, Severity: "medium"})

		Convey("Then the generic rule should apply", func() {
			So(a.RootCause, ShouldContainSubstring, "fn-1")
			So(a.Evidence[0], ShouldEqual, "invocations anomaly score 0.50 (medium)")
			So(a.Confidence, ShouldBeBetweenOrEqual, 0, 1)
		})
	})
}
