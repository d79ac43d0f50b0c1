package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/lucid/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.WindowSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.ModelDir, convey.ShouldEqual, "artifacts")
			convey.So(cfg.BlinkBaseline, convey.ShouldEqual, 16.0)
			convey.So(cfg.TieTolerance, convey.ShouldEqual, 5.0)
			convey.So(cfg.BlendWeight, convey.ShouldEqual, 1.0)
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config under validation", t, func() {
		convey.Convey("When addr is blank", func() {
			cfg := config.New()
			cfg.Addr = "   "

			convey.Convey("Then validation should fail", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When the log level is unknown", func() {
			cfg := config.New()
			cfg.LogLevel = "verbose"

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When the blink baseline is not positive", func() {
			cfg := config.New()
			cfg.BlinkBaseline = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When the tie tolerance is negative", func() {
			cfg := config.New()
			cfg.TieTolerance = -1

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When the blend weight leaves [0,1]", func() {
			cfg := config.New()
			cfg.BlendWeight = 1.5

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When a modality weight is negative", func() {
			cfg := config.New()
			cfg.ModalityWeights = map[string]map[string]float64{
				"typing": {"typing.speed": -0.5},
			}

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When sizes are zero or negative", func() {
			cfg := config.New()
			cfg.QueueSize = 0
			cfg.WorkerCount = -1
			cfg.WindowSize = 0

			convey.Convey("Then validation should pass", func() {
				// Component defaults take over downstream
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
