package testsamples

import (
	"fmt"
	"log"
	"sort"
)

// Verification threshold constants.
const (
	minLevelMatchRate = 0.9
)

// profileTally accumulates per-profile verification counts.
type profileTally struct {
	count    int
	matches  int
	scoreSum float64
}

// verifyResults checks retrieved results against the generator's
// expectations and the insights document for internal consistency.
func verifyResults(config *Config, results []ScoredSample, insights *Insights, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(results) == 0 {
		return fmt.Errorf("no results to verify")
	}

	// Tally expected-level matches per profile
	tallies := make(map[Profile]*profileTally)
	for _, scored := range results {
		tally := tallies[scored.Profile]
		if tally == nil {
			tally = &profileTally{}
			tallies[scored.Profile] = tally
		}
		tally.count++
		tally.scoreSum += scored.Result.OverallScore
		if scored.Result.Level == scored.Profile.ExpectedLevel() {
			tally.matches++
			stats.LevelMatches++
		} else {
			stats.LevelMismatches++
		}
	}

	matchRate := float64(stats.LevelMatches) / float64(len(results))
	if matchRate < minLevelMatchRate {
		log.Printf("⚠️  Level match warning: only %.1f%% of results landed in their expected band",
			matchRate*PercentageMultiplier)
	} else {
		log.Printf("✅ Expected fatigue levels verified (%.1f%% match)", matchRate*PercentageMultiplier)
	}

	// Verify insights consistency if we have insights data
	if insights != nil {
		if err := verifyInsightsConsistency(results, insights); err != nil {
			log.Printf("⚠️  Insights consistency warning: %v", err)
		} else {
			log.Println("✅ Insights consistency verified")
		}
	}

	// Display the per-profile breakdown
	displayProfileBreakdown(tallies, results, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyInsightsConsistency checks the insights document against the
// retrieved results.
func verifyInsightsConsistency(results []ScoredSample, insights *Insights) error {
	if len(insights.Bands) == 0 {
		return fmt.Errorf("empty band list")
	}

	// Bands must tile the score range in ascending order
	for i := 1; i < len(insights.Bands); i++ {
		if insights.Bands[i].Min < insights.Bands[i-1].Max {
			return fmt.Errorf("band %d overlaps band %d", i, i-1)
		}
	}

	dist := insights.Distribution
	if dist == nil {
		return fmt.Errorf("missing distribution")
	}
	if dist.Count < len(results) {
		return fmt.Errorf("window holds %d samples but %d results were retrieved", dist.Count, len(results))
	}
	if dist.Min > dist.Mean || dist.Mean > dist.Max {
		return fmt.Errorf("distribution out of order: min %.2f, mean %.2f, max %.2f", dist.Min, dist.Mean, dist.Max)
	}

	if p := insights.Placement; p != nil && p.Percentile != nil {
		if *p.Percentile < 0 || *p.Percentile > PercentageMultiplier {
			return fmt.Errorf("percentile %.2f outside [0, 100]", *p.Percentile)
		}
	}

	return nil
}

// displayProfileBreakdown shows per-profile scoring outcomes.
func displayProfileBreakdown(tallies map[Profile]*profileTally, results []ScoredSample, verbose bool) {
	// Stable display order
	profiles := make([]Profile, 0, len(tallies))
	for profile := range tallies {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i] < profiles[j] })

	log.Println("📊 Per-profile outcomes:")
	for _, profile := range profiles {
		tally := tallies[profile]
		avg := tally.scoreSum / float64(tally.count)
		log.Printf("   %-9s expected %-8s %d/%d matched, mean score %.1f",
			profile, profile.ExpectedLevel()+":", tally.matches, tally.count, avg)
	}

	if verbose {
		displayScoreStatistics(results)
	}
}

// displayScoreStatistics shows aggregate score and model statistics.
func displayScoreStatistics(results []ScoredSample) {
	if len(results) == 0 {
		return
	}

	var sum float64
	minScore := results[0].Result.OverallScore
	maxScore := results[0].Result.OverallScore
	modeCounts := make(map[string]int)

	for _, scored := range results {
		score := scored.Result.OverallScore
		sum += score
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
		modeCounts[scored.Result.ModelUsed]++
	}

	log.Printf(`📊 Score statistics:
   Average: %.2f
   Maximum: %.2f
   Minimum: %.2f
`, sum/float64(len(results)), maxScore, minScore)

	for mode, count := range modeCounts {
		log.Printf("   Scored by %s model: %d", mode, count)
	}
}
