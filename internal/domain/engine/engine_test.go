package engine_test

import (
	"context"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/lucid/internal/domain/engine"
	"github.com/okian/lucid/internal/domain/fuse"
	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/internal/domain/predict"
)

// alertRecord mimics a rested operator across all three modalities.
func alertRecord() model.FeatureRecord {
	return model.FeatureRecord{
		model.MetricTypingSpeed:              65,
		model.MetricTypingErrorRate:          0,
		model.MetricTypingPauseFrequency:     2,
		model.MetricMouseReactionTime:        300,
		model.MetricMouseAccuracy:            90,
		model.MetricFacialBlinkRate:          16,
		model.MetricFacialEyeClosureDuration: 150,
	}
}

// wearyRecord degrades the alert record on four load-bearing metrics.
func wearyRecord() model.FeatureRecord {
	rec := alertRecord()
	rec[model.MetricTypingErrorRate] = 30
	rec[model.MetricMouseReactionTime] = 800
	rec[model.MetricMouseAccuracy] = 40
	rec[model.MetricFacialEyeClosureDuration] = 400
	return rec
}

type fixedPredictor struct {
	pred predict.Prediction
}

func (f fixedPredictor) Predict(_ context.Context, _ model.FeatureRecord, _ []model.ModalityScore) (predict.Prediction, error) {
	return f.pred, nil
}

func TestAnalyzeAlertSample(t *testing.T) {
	Convey("Given a default engine", t, func() {
		e := engine.New()

		Convey("When analyzing a rested operator", func() {
			res, err := e.Analyze(context.Background(), alertRecord())

			Convey("Then the overall score lands low", func() {
				So(err, ShouldBeNil)
				So(res.OverallScore, ShouldBeLessThan, 20)
				So(res.Level, ShouldEqual, model.LevelLow)
				So(res.ModelUsed, ShouldEqual, model.ModeHeuristic)
			})

			Convey("Then confidence reflects partial mouse and facial coverage", func() {
				So(res.Confidence, ShouldAlmostEqual, 7.0/9.0, 1e-9)
			})

			Convey("Then no modality dominates and every one reports", func() {
				So(res.DominantModality, ShouldEqual, model.ModalityNone)
				So(res.ModalityScores, ShouldHaveLength, 3)
				So(res.Recommendations, ShouldNotBeEmpty)
			})
		})
	})
}

func TestAnalyzeWearySample(t *testing.T) {
	Convey("Given a default engine", t, func() {
		e := engine.New()

		Convey("When analyzing a degraded operator", func() {
			res, err := e.Analyze(context.Background(), wearyRecord())

			Convey("Then the overall score lands high", func() {
				So(err, ShouldBeNil)
				So(res.OverallScore, ShouldBeGreaterThan, 60)
				So(res.Level, ShouldEqual, model.LevelHigh)
			})

			Convey("Then the mouse modality dominates", func() {
				So(res.DominantModality, ShouldEqual, model.ModalityMouse)
			})

			Convey("Then the dominant remedy leads the suggestions", func() {
				So(res.Recommendations, ShouldNotBeEmpty)
				So(res.Recommendations[0].Text, ShouldEqual, "Take a short walk to improve circulation")
				So(res.Recommendations[0].Priority, ShouldEqual, model.PriorityHigh)
			})
		})

		Convey("When the error rate worsens further", func() {
			milder := wearyRecord()
			milder[model.MetricTypingErrorRate] = 5
			worse := wearyRecord()
			worse[model.MetricTypingErrorRate] = 15

			mild, err1 := e.Analyze(context.Background(), milder)
			bad, err2 := e.Analyze(context.Background(), worse)

			Convey("Then the overall score never moves down", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(bad.OverallScore, ShouldBeGreaterThan, mild.OverallScore)
			})
		})
	})
}

func TestAnalyzeSparseSamples(t *testing.T) {
	Convey("Given a default engine", t, func() {
		e := engine.New()

		Convey("When only facial metrics are present", func() {
			res, err := e.Analyze(context.Background(), model.FeatureRecord{
				model.MetricFacialBlinkRate:          10,
				model.MetricFacialEyeClosureDuration: 400,
			})

			Convey("Then confidence is penalized for single-modality coverage", func() {
				So(err, ShouldBeNil)
				So(res.Confidence, ShouldAlmostEqual, 0.8*2.0/3.0, 1e-9)
				So(res.DominantModality, ShouldEqual, model.ModalityNone)
			})
		})

		Convey("When the record is empty", func() {
			_, err := e.Analyze(context.Background(), model.FeatureRecord{})

			Convey("Then analysis reports insufficient data", func() {
				So(err, ShouldWrap, fuse.ErrInsufficientData)
			})
		})

		Convey("When the record carries only unrecognized keys", func() {
			_, err := e.Analyze(context.Background(), model.FeatureRecord{"posture.slouch": 1})

			Convey("Then analysis reports insufficient data", func() {
				So(err, ShouldWrap, fuse.ErrInsufficientData)
			})
		})

		Convey("When a value is malformed", func() {
			rec := alertRecord()
			rec[model.MetricTypingSpeed] = math.NaN()

			_, err := e.Analyze(context.Background(), rec)

			Convey("Then analysis fails validation", func() {
				So(err, ShouldWrap, model.ErrMalformedMetric)
			})
		})
	})
}

func TestAnalyzeWithInjectedPredictor(t *testing.T) {
	Convey("Given an engine with a trained predictor plugged in", t, func() {
		e := engine.New(engine.WithPredictor(fixedPredictor{
			pred: predict.Prediction{Score: 42, Used: model.ModeTrained},
		}))

		Convey("When analyzing a full sample", func() {
			res, err := e.Analyze(context.Background(), alertRecord())

			Convey("Then the prediction drives the overall score", func() {
				So(err, ShouldBeNil)
				So(res.OverallScore, ShouldAlmostEqual, 42.0, 1e-9)
				So(res.ModelUsed, ShouldEqual, model.ModeTrained)
				So(res.Level, ShouldEqual, model.LevelModerate)
			})
		})
	})
}
