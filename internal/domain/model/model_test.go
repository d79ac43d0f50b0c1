package model_test

import (
	"math"
	"testing"

	"github.com/okian/lucid/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricRegistry(t *testing.T) {
	Convey("Given the metric registry", t, func() {
		Convey("Then the canonical feature order has the fixed arity", func() {
			order := model.FeatureOrder()
			So(len(order), ShouldEqual, model.FeatureCount)

			seen := make(map[string]bool, len(order))
			for _, key := range order {
				So(seen[key], ShouldBeFalse)
				seen[key] = true
				So(model.IsRecognized(key), ShouldBeTrue)
			}
		})

		Convey("Then every modality has exactly three primary metrics", func() {
			for _, m := range model.Modalities() {
				So(len(model.PrimaryMetrics(m)), ShouldEqual, model.ExpectedPrimaryCount)
			}
		})

		Convey("Then primary metrics belong to their own modality", func() {
			for _, m := range model.Modalities() {
				for _, key := range model.PrimaryMetrics(m) {
					owner, ok := model.MetricModality(key)
					So(ok, ShouldBeTrue)
					So(owner, ShouldEqual, m)
				}
			}
		})

		Convey("Then unknown keys are not recognized", func() {
			So(model.IsRecognized("typing.unknown"), ShouldBeFalse)
			So(model.IsRecognized(""), ShouldBeFalse)

			_, ok := model.MetricModality("keyboard.speed")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestFeatureRecord(t *testing.T) {
	Convey("Given a feature record", t, func() {
		Convey("When all values are finite", func() {
			rec := model.FeatureRecord{
				model.MetricTypingSpeed:     65,
				model.MetricTypingErrorRate: 2.5,
				"unrelated.key":             1,
			}

			Convey("Then validation passes", func() {
				So(rec.Validate(), ShouldBeNil)
			})
		})

		Convey("When a recognized value is NaN", func() {
			rec := model.FeatureRecord{model.MetricMouseAccuracy: math.NaN()}

			Convey("Then validation fails with the malformed sentinel", func() {
				So(rec.Validate(), ShouldWrap, model.ErrMalformedMetric)
			})
		})

		Convey("When a recognized value is infinite", func() {
			rec := model.FeatureRecord{model.MetricFacialBlinkRate: math.Inf(1)}

			So(rec.Validate(), ShouldWrap, model.ErrMalformedMetric)
		})

		Convey("When an unrecognized value is NaN", func() {
			rec := model.FeatureRecord{"bogus.metric": math.NaN()}

			Convey("Then validation ignores it", func() {
				So(rec.Validate(), ShouldBeNil)
			})
		})

		Convey("When counting present primaries", func() {
			rec := model.FeatureRecord{
				model.MetricTypingSpeed:          65,
				model.MetricTypingErrorRate:      2.5,
				model.MetricFacialEyeAspectRatio: 0.3,
			}

			So(rec.PresentPrimary(model.ModalityTyping), ShouldEqual, 2)
			So(rec.PresentPrimary(model.ModalityMouse), ShouldEqual, 0)
			// eye_aspect_ratio is secondary and never counts
			So(rec.PresentPrimary(model.ModalityFacial), ShouldEqual, 0)
		})

		Convey("When checking completeness", func() {
			rec := model.FeatureRecord{}
			for _, key := range model.FeatureOrder() {
				rec[key] = 1
			}

			So(rec.Complete(), ShouldBeTrue)

			delete(rec, model.MetricMouseTargetHits)
			So(rec.Complete(), ShouldBeFalse)
		})
	})
}

func TestEncodeExpression(t *testing.T) {
	Convey("Given expression labels", t, func() {
		Convey("Then known labels encode in fatigue order", func() {
			focused, err := model.EncodeExpression("focused")
			So(err, ShouldBeNil)
			neutral, err := model.EncodeExpression("neutral")
			So(err, ShouldBeNil)
			distracted, err := model.EncodeExpression("distracted")
			So(err, ShouldBeNil)
			tired, err := model.EncodeExpression("tired")
			So(err, ShouldBeNil)

			So(focused, ShouldBeLessThan, neutral)
			So(neutral, ShouldBeLessThan, distracted)
			So(distracted, ShouldBeLessThan, tired)
			So(focused, ShouldBeGreaterThanOrEqualTo, 0)
			So(tired, ShouldBeLessThanOrEqualTo, 1)
		})

		Convey("Then labels are matched case-insensitively with padding", func() {
			code, err := model.EncodeExpression("  Tired ")
			So(err, ShouldBeNil)
			So(code, ShouldEqual, 0.90)
		})

		Convey("Then unknown labels fail with the sentinel", func() {
			_, err := model.EncodeExpression("sleepy")
			So(err, ShouldWrap, model.ErrUnknownExpression)
		})
	})
}

func TestLevelForScore(t *testing.T) {
	Convey("Given the fatigue bands", t, func() {
		So(model.LevelForScore(0), ShouldEqual, model.LevelLow)
		So(model.LevelForScore(29.9), ShouldEqual, model.LevelLow)
		So(model.LevelForScore(30), ShouldEqual, model.LevelModerate)
		So(model.LevelForScore(59.9), ShouldEqual, model.LevelModerate)
		So(model.LevelForScore(60), ShouldEqual, model.LevelHigh)
		So(model.LevelForScore(100), ShouldEqual, model.LevelHigh)
	})
}
