package score_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/internal/domain/score"
)

func TestScoreFullModality(t *testing.T) {
	Convey("Given a scorer with default weights", t, func() {
		s := score.New()

		Convey("When all typing primaries are present", func() {
			n := model.NormalizedRecord{
				model.MetricTypingSpeed:          0.5,
				model.MetricTypingErrorRate:      0.25,
				model.MetricTypingPauseFrequency: 1.0,
			}
			ms := s.Score(n, model.ModalityTyping)

			Convey("Then the sub-score is the weighted sum scaled to 100", func() {
				So(ms.Present, ShouldBeTrue)
				So(ms.Score, ShouldAlmostEqual, 50.0, 1e-9)
				So(ms.Quality, ShouldAlmostEqual, 1.0, 1e-9)
				So(ms.Modality, ShouldEqual, model.ModalityTyping)
			})
		})

		Convey("When all facial primaries are present", func() {
			n := model.NormalizedRecord{
				model.MetricFacialBlinkRate:          0.8,
				model.MetricFacialEyeClosureDuration: 0.6,
				model.MetricFacialExpression:         0.4,
			}
			ms := s.Score(n, model.ModalityFacial)

			Convey("Then eye closure carries half the weight", func() {
				So(ms.Score, ShouldAlmostEqual, 60.0, 1e-9)
				So(ms.Quality, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})
}

func TestScoreRenormalization(t *testing.T) {
	Convey("Given a scorer with default weights", t, func() {
		s := score.New()

		Convey("When only one typing primary is present", func() {
			n := model.NormalizedRecord{model.MetricTypingSpeed: 0.6}
			ms := s.Score(n, model.ModalityTyping)

			Convey("Then its weight renormalizes to 1 and quality drops", func() {
				So(ms.Present, ShouldBeTrue)
				So(ms.Score, ShouldAlmostEqual, 60.0, 1e-9)
				So(ms.Quality, ShouldAlmostEqual, 1.0/3.0, 1e-9)
			})
		})

		Convey("When two of three mouse primaries are present", func() {
			n := model.NormalizedRecord{
				model.MetricMouseReactionTime: 0.9,
				model.MetricMouseAccuracy:     0.3,
			}
			ms := s.Score(n, model.ModalityMouse)

			Convey("Then weights renormalize over the present pair", func() {
				So(ms.Score, ShouldAlmostEqual, 60.0, 1e-9)
				So(ms.Quality, ShouldAlmostEqual, 2.0/3.0, 1e-9)
			})
		})

		Convey("When a lone contribution exceeds 1", func() {
			n := model.NormalizedRecord{model.MetricTypingSpeed: 2.0}
			ms := s.Score(n, model.ModalityTyping)

			Convey("Then the sub-score clamps at 100", func() {
				So(ms.Score, ShouldEqual, 100.0)
			})
		})
	})
}

func TestScoreAbsentModality(t *testing.T) {
	Convey("Given a scorer with default weights", t, func() {
		s := score.New()

		Convey("When no metric of the modality is present", func() {
			ms := s.Score(model.NormalizedRecord{}, model.ModalityMouse)

			Convey("Then the modality is marked absent", func() {
				So(ms.Present, ShouldBeFalse)
				So(ms.Score, ShouldEqual, 0.0)
				So(ms.Quality, ShouldEqual, 0.0)
			})
		})

		Convey("When only secondary metrics are present", func() {
			n := model.NormalizedRecord{
				model.MetricFacialEyeAspectRatio:  0.7,
				model.MetricFacialHeadMovementVar: 0.4,
			}
			ms := s.Score(n, model.ModalityFacial)

			Convey("Then the sub-score still reports absent", func() {
				So(ms.Present, ShouldBeFalse)
				So(ms.Quality, ShouldEqual, 0.0)
			})
		})
	})
}

func TestScoreWeightOverrides(t *testing.T) {
	Convey("Given a scorer with a typing weight override", t, func() {
		s := score.New(score.WithWeights(model.ModalityTyping, map[string]float64{
			model.MetricTypingSpeed: 1.0,
		}))

		Convey("When scoring a full typing record", func() {
			n := model.NormalizedRecord{
				model.MetricTypingSpeed:          0.3,
				model.MetricTypingErrorRate:      0.9,
				model.MetricTypingPauseFrequency: 0.9,
			}
			ms := s.Score(n, model.ModalityTyping)

			Convey("Then only the weighted metric counts toward the score", func() {
				So(ms.Score, ShouldAlmostEqual, 30.0, 1e-9)
				So(ms.Quality, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})

	Convey("Given an override naming no primary metric", t, func() {
		s := score.New(score.WithWeights(model.ModalityTyping, map[string]float64{
			"typing.bogus": 1.0,
		}))

		Convey("When scoring a typing record", func() {
			n := model.NormalizedRecord{model.MetricTypingErrorRate: 0.5}
			ms := s.Score(n, model.ModalityTyping)

			Convey("Then the default weights remain in effect", func() {
				So(ms.Present, ShouldBeTrue)
				So(ms.Score, ShouldAlmostEqual, 50.0, 1e-9)
			})
		})
	})
}

func TestScoreAll(t *testing.T) {
	Convey("Given a scorer with default weights", t, func() {
		s := score.New()

		Convey("When scoring a record covering two modalities", func() {
			n := model.NormalizedRecord{
				model.MetricTypingSpeed:       0.2,
				model.MetricMouseReactionTime: 0.8,
			}
			all := s.ScoreAll(n)

			Convey("Then every modality appears once in stable order", func() {
				So(all, ShouldHaveLength, 3)
				So(all[0].Modality, ShouldEqual, model.ModalityTyping)
				So(all[1].Modality, ShouldEqual, model.ModalityMouse)
				So(all[2].Modality, ShouldEqual, model.ModalityFacial)
				So(all[0].Present, ShouldBeTrue)
				So(all[1].Present, ShouldBeTrue)
				So(all[2].Present, ShouldBeFalse)
			})
		})
	})
}
