package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/lucid/internal/adapters/artifact"
	"github.com/okian/lucid/internal/adapters/pipeline/queue"
	"github.com/okian/lucid/internal/adapters/tracker"
	service "github.com/okian/lucid/internal/app"
	"github.com/okian/lucid/internal/domain/fuse"
	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// wearyIntegrationRecord degrades the rested record on four load-bearing
// metrics, enough to land in the high band with mouse dominant.
func wearyIntegrationRecord() model.FeatureRecord {
	rec := restedRecord()
	rec[model.MetricTypingErrorRate] = 30
	rec[model.MetricMouseReactionTime] = 800
	rec[model.MetricMouseAccuracy] = 40
	rec[model.MetricFacialEyeClosureDuration] = 400
	return rec
}

// waitForResult polls the window until the sample shows up or the
// deadline passes. Workers score asynchronously, so enqueue-then-lookup
// needs a settle loop.
func waitForResult(ctx context.Context, svc *service.Service, id string, timeout time.Duration) (tracker.Entry, error) {
	deadline := time.Now().Add(timeout)
	for {
		entry, err := svc.Lookup(ctx, id)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, tracker.ErrNotFound) || time.Now().After(deadline) {
			return tracker.Entry{}, err
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// trainedArtifactModel builds a model whose only live coefficient is
// typing speed, making predicted scores easy to compute by hand.
func trainedArtifactModel() artifact.Model {
	coefs := make([]float64, model.FeatureCount)
	coefs[0] = 10
	return artifact.Model{
		Intercept:    30,
		Coefficients: coefs,
		Features:     model.FeatureOrder(),
	}
}

func trainedArtifactScaler() artifact.Scaler {
	means := make([]float64, model.FeatureCount)
	stds := make([]float64, model.FeatureCount)
	means[0] = 45
	for i := range stds {
		stds[i] = 1
	}
	stds[0] = 15
	return artifact.Scaler{Means: means, Stds: stds}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(1000),
			service.WithDedupeSize(500),
			service.WithWindowSize(1000),
			service.WithModelDir(""),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And the service should be running", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When processing samples end-to-end", func() {
			err := svc.Start(ctx)
			So(err, ShouldBeNil)

			restedID := uuid.NewString()
			wearyID := uuid.NewString()

			So(svc.Enqueue(ctx, model.Sample{ID: restedID, Record: restedRecord()}), ShouldBeNil)
			So(svc.Enqueue(ctx, model.Sample{ID: wearyID, Record: wearyIntegrationRecord()}), ShouldBeNil)

			rested, err := waitForResult(ctx, svc, restedID, 5*time.Second)
			So(err, ShouldBeNil)
			weary, err := waitForResult(ctx, svc, wearyID, 5*time.Second)
			So(err, ShouldBeNil)

			Convey("Then both samples score into their expected bands", func() {
				So(rested.Result.Level, ShouldEqual, model.LevelLow)
				So(rested.Result.ModelUsed, ShouldEqual, model.ModeHeuristic)
				So(weary.Result.Level, ShouldEqual, model.LevelHigh)
				So(weary.Result.OverallScore, ShouldBeGreaterThan, rested.Result.OverallScore)
				So(weary.Result.DominantModality, ShouldEqual, model.ModalityMouse)
			})

			Convey("And the window summary reflects both results", func() {
				summary := svc.WindowSummary(ctx)
				So(summary.Count, ShouldEqual, 2)
				So(summary.Min, ShouldAlmostEqual, rested.Result.OverallScore, 1e-9)
				So(summary.Max, ShouldAlmostEqual, weary.Result.OverallScore, 1e-9)
			})

			Convey("And percentiles order the two scores", func() {
				lowPct, ok := svc.Percentile(ctx, rested.Result.OverallScore)
				So(ok, ShouldBeTrue)
				So(lowPct, ShouldAlmostEqual, 0, 1e-9)

				highPct, ok := svc.Percentile(ctx, weary.Result.OverallScore)
				So(ok, ShouldBeTrue)
				So(highPct, ShouldAlmostEqual, 50, 1e-9)
			})

			Convey("And duplicate sample IDs are detected", func() {
				So(svc.SeenAndRecord(ctx, restedID), ShouldBeFalse)
				So(svc.SeenAndRecord(ctx, restedID), ShouldBeTrue)
			})

			Convey("And a sample with only unrecognized metrics is never tracked", func() {
				bogusID := uuid.NewString()
				So(svc.Enqueue(ctx, model.Sample{ID: bogusID, Record: model.FeatureRecord{"posture.slouch": 1}}), ShouldBeNil)

				probeID := uuid.NewString()
				So(svc.Enqueue(ctx, model.Sample{ID: probeID, Record: restedRecord()}), ShouldBeNil)
				_, err := waitForResult(ctx, svc, probeID, 5*time.Second)
				So(err, ShouldBeNil)

				_, err = svc.Lookup(ctx, bogusID)
				So(err, ShouldWrap, tracker.ErrNotFound)
			})
		})

		Convey("When handling high-volume samples", func() {
			err := svc.Start(ctx)
			So(err, ShouldBeNil)

			Convey("And enqueueing many samples", func() {
				numSamples := 100
				ids := make([]string, numSamples)

				for i := 0; i < numSamples; i++ {
					ids[i] = uuid.NewString()
					rec := restedRecord()
					if i%2 == 1 {
						rec = wearyIntegrationRecord()
					}
					So(svc.Enqueue(ctx, model.Sample{ID: ids[i], Record: rec}), ShouldBeNil)
				}

				// Wait for the window to absorb every sample
				deadline := time.Now().Add(10 * time.Second)
				for svc.WindowSummary(ctx).Count < numSamples && time.Now().Before(deadline) {
					time.Sleep(20 * time.Millisecond)
				}

				Convey("Then the window holds every scored sample", func() {
					summary := svc.WindowSummary(ctx)
					So(summary.Count, ShouldEqual, numSamples)
					So(summary.Min, ShouldBeGreaterThanOrEqualTo, 0)
					So(summary.Max, ShouldBeLessThanOrEqualTo, 100)
					So(summary.Mean, ShouldBeBetweenOrEqual, summary.Min, summary.Max)
				})

				Convey("And a score above the window maximum outranks all of it", func() {
					pct, ok := svc.Percentile(ctx, 101)
					So(ok, ShouldBeTrue)
					So(pct, ShouldAlmostEqual, 100, 1e-9)
				})
			})
		})

		Convey("When handling service lifecycle", func() {
			Convey("And starting and stopping multiple times", func() {
				// Start service
				err := svc.Start(ctx)
				So(err, ShouldBeNil)

				// Stop service
				svc.Stop()

				// Check it's stopped
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)

				// Start again
				err = svc.Start(ctx)
				So(err, ShouldBeNil)

				// Check it's started again
				stats = svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When handling edge cases", func() {
			err := svc.Start(ctx)
			So(err, ShouldBeNil)

			Convey("And enqueueing samples with extreme metric values", func() {
				extremeRecords := []model.FeatureRecord{
					{model.MetricTypingSpeed: 0, model.MetricTypingErrorRate: 1000},
					{model.MetricMouseReactionTime: -100, model.MetricMouseAccuracy: 1e9},
					{model.MetricFacialEyeClosureDuration: 1e12},
				}

				ids := make([]string, len(extremeRecords))
				for i, rec := range extremeRecords {
					ids[i] = uuid.NewString()
					So(svc.Enqueue(ctx, model.Sample{ID: ids[i], Record: rec}), ShouldBeNil)
				}

				Convey("Then clamping keeps every result inside the scale", func() {
					for _, id := range ids {
						entry, err := waitForResult(ctx, svc, id, 5*time.Second)
						So(err, ShouldBeNil)
						So(entry.Result.OverallScore, ShouldBeBetweenOrEqual, 0, 100)
					}

					// Service should still be running
					stats := svc.GetStats()
					So(stats["started"], ShouldEqual, true)
				})
			})
		})
	})
}

func TestServiceTrainedModel(t *testing.T) {
	Convey("Given a service pointed at a model directory", t, func() {
		dir := t.TempDir()
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithModelDir(dir),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When starting before any artifacts exist", func() {
			err := svc.Start(ctx)
			So(err, ShouldBeNil)

			info := svc.ModelInfo(ctx)

			Convey("Then scoring falls back to the heuristic", func() {
				So(info.Loaded, ShouldBeFalse)
				So(info.Mode, ShouldEqual, model.ModeHeuristic)

				res, err := svc.Analyze(ctx, restedRecord())
				So(err, ShouldBeNil)
				So(res.ModelUsed, ShouldEqual, model.ModeHeuristic)
			})

			Convey("And reloading without artifacts keeps the heuristic", func() {
				So(svc.ReloadModel(ctx), ShouldNotBeNil)
				So(svc.ModelInfo(ctx).Mode, ShouldEqual, model.ModeHeuristic)
			})

			Convey("And reloading after artifacts appear activates the model", func() {
				So(artifact.Save(dir, trainedArtifactModel(), trainedArtifactScaler()), ShouldBeNil)
				So(svc.ReloadModel(ctx), ShouldBeNil)

				info := svc.ModelInfo(ctx)
				So(info.Loaded, ShouldBeTrue)
				So(info.Mode, ShouldEqual, model.ModeTrained)
				So(info.Features, ShouldEqual, model.FeatureCount)

				Convey("Then analysis scores through the regression", func() {
					res, err := svc.Analyze(ctx, restedRecord())
					So(err, ShouldBeNil)
					So(res.ModelUsed, ShouldEqual, model.ModeTrained)
					// intercept 30 + coef 10 * (speed 65 - mean 45) / std 15
					So(res.OverallScore, ShouldAlmostEqual, 30+10*(65-45)/15.0, 0.0001)
				})
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with concurrent operations", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(2000),
			service.WithDedupeSize(1000),
			service.WithModelDir(""),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When multiple goroutines enqueue samples concurrently", func() {
			numGoroutines := 10
			samplesPerGoroutine := 50
			done := make(chan bool, numGoroutines)

			// Start multiple goroutines
			for i := 0; i < numGoroutines; i++ {
				go func() {
					for j := 0; j < samplesPerGoroutine; j++ {
						rec := restedRecord()
						if j%2 == 1 {
							rec = wearyIntegrationRecord()
						}
						_ = svc.Enqueue(ctx, model.Sample{ID: uuid.NewString(), Record: rec})
					}
					done <- true
				}()
			}

			// Wait for all goroutines to complete
			for i := 0; i < numGoroutines; i++ {
				<-done
			}

			// Give workers time to drain the queue
			total := numGoroutines * samplesPerGoroutine
			deadline := time.Now().Add(10 * time.Second)
			for svc.WindowSummary(ctx).Count < total && time.Now().Before(deadline) {
				time.Sleep(20 * time.Millisecond)
			}

			Convey("Then all samples should be scored", func() {
				// Service should still be running
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)

				So(svc.WindowSummary(ctx).Count, ShouldEqual, total)
			})
		})

		Convey("When multiple goroutines query the window concurrently", func() {
			probeID := uuid.NewString()
			So(svc.Enqueue(ctx, model.Sample{ID: probeID, Record: restedRecord()}), ShouldBeNil)
			_, err := waitForResult(ctx, svc, probeID, 5*time.Second)
			So(err, ShouldBeNil)

			numGoroutines := 20
			done := make(chan bool, numGoroutines)
			queryErrors := make(chan error, numGoroutines*20) // Buffer for potential errors

			// Start multiple goroutines querying
			for i := 0; i < numGoroutines; i++ {
				go func() {
					for j := 0; j < 10; j++ {
						summary := svc.WindowSummary(ctx)
						if summary.Count == 0 {
							queryErrors <- fmt.Errorf("window is empty")
							continue
						}

						if _, ok := svc.Percentile(ctx, 50); !ok {
							queryErrors <- fmt.Errorf("percentile unavailable")
							continue
						}

						if _, err := svc.Lookup(ctx, probeID); err != nil {
							queryErrors <- err
							continue
						}
					}
					done <- true
				}()
			}

			// Wait for all goroutines to complete
			for i := 0; i < numGoroutines; i++ {
				<-done
			}

			Convey("Then all queries should succeed", func() {
				// Check if any errors occurred
				select {
				case err := <-queryErrors:
					So(err, ShouldBeNil)
				default:
					// No errors, test passed
					So(true, ShouldBeTrue)
				}
			})
		})
	})
}

func TestServiceErrorHandling(t *testing.T) {
	Convey("Given a service with error conditions", t, func() {
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(10),
			service.WithDedupeSize(5),
			service.WithModelDir(""),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When analyzing an empty record", func() {
			_, err := svc.Analyze(ctx, model.FeatureRecord{})

			Convey("Then it should report insufficient data", func() {
				So(err, ShouldWrap, fuse.ErrInsufficientData)
			})
		})

		Convey("When looking up a sample that was never submitted", func() {
			_, err := svc.Lookup(ctx, "missing-sample")

			Convey("Then it should report not found", func() {
				So(err, ShouldWrap, tracker.ErrNotFound)
			})
		})

		Convey("When querying percentiles against an empty window", func() {
			_, ok := svc.Percentile(ctx, 50)

			Convey("Then it should report no population", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When enqueueing after the service stopped", func() {
			svc.Stop()
			err := svc.Enqueue(ctx, model.Sample{ID: uuid.NewString(), Record: restedRecord()})

			Convey("Then the queue should be reported closed", func() {
				So(err, ShouldWrap, queue.ErrQueueClosed)
			})
		})
	})
}

func TestServicePerformance(t *testing.T) {
	Convey("Given a service for performance testing", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(10000),
			service.WithDedupeSize(5000),
			service.WithModelDir(""),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When processing a large number of samples", func() {
			numSamples := 1000
			start := time.Now()

			// Enqueue samples
			for i := 0; i < numSamples; i++ {
				rec := restedRecord()
				if i%2 == 1 {
					rec = wearyIntegrationRecord()
				}
				_ = svc.Enqueue(ctx, model.Sample{ID: uuid.NewString(), Record: rec})
			}

			enqueueTime := time.Since(start)

			// Give workers time to drain the queue
			deadline := time.Now().Add(10 * time.Second)
			for svc.WindowSummary(ctx).Count < numSamples && time.Now().Before(deadline) {
				time.Sleep(20 * time.Millisecond)
			}

			Convey("Then enqueueing should be fast", func() {
				// Should be able to enqueue 1000 samples in reasonable time
				So(enqueueTime, ShouldBeLessThan, 5*time.Second)
			})

			Convey("And summary queries should be fast", func() {
				start := time.Now()
				summary := svc.WindowSummary(ctx)
				queryTime := time.Since(start)

				So(summary.Count, ShouldBeGreaterThan, 0)
				So(queryTime, ShouldBeLessThan, 100*time.Millisecond)
			})

			Convey("And percentile queries should be fast", func() {
				start := time.Now()
				pct, ok := svc.Percentile(ctx, 50)
				queryTime := time.Since(start)

				So(ok, ShouldBeTrue)
				So(pct, ShouldBeBetweenOrEqual, 0, 100)
				So(queryTime, ShouldBeLessThan, 100*time.Millisecond)
			})
		})
	})
}
