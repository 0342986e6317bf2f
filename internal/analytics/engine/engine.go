// Package engine computes contact analytics. Every function here is a pure
// function of its input: no storage, no clock reads, no mutation of the
// attempt slice. Results are recomputed on every call.
package engine

import (
	"fmt"
	"sort"
	"time"

	"staffhub_backend/internal/pipeline/domain"
)

// Defaults reported when there are no attempts at all.
const (
	DefaultBestType = string(domain.ChannelCall)
	DefaultBestHour = 9
	DefaultBestDay  = "Monday"
)

// Config holds the tunable thresholds of the recommendation rules.
type Config struct {
	// FrequencyGapThreshold is the mean inter-attempt gap beyond which a
	// frequency recommendation fires.
	FrequencyGapThreshold time.Duration
	// SuccessRateFloor is the overall success rate (percent) below which a
	// strategy recommendation fires.
	SuccessRateFloor float64
	// TrailingWindowDays is the daily trend window.
	TrailingWindowDays int
}

// DefaultConfig mirrors the workflow defaults.
func DefaultConfig() Config {
	return Config{
		FrequencyGapThreshold: 72 * time.Hour,
		SuccessRateFloor:      30,
		TrailingWindowDays:    30,
	}
}

// Bucket aggregates attempts sharing one category value.
type Bucket struct {
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"successRate"`
	// AverageCallDurationSeconds is only populated for the call channel,
	// over attempts that recorded a duration.
	AverageCallDurationSeconds float64 `json:"averageCallDurationSeconds,omitempty"`
}

// ResultBucket aggregates attempts sharing one result value. Percentage is
// the bucket's share of all attempts, so the percentages sum to 100 whenever
// any attempt exists.
type ResultBucket struct {
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
	SuccessRate float64 `json:"successRate"`
}

// DailyBucket is one calendar day of the trailing window.
type DailyBucket struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"successRate"`
}

// HourlyBucket aggregates attempts by hour of day across all dates.
type HourlyBucket struct {
	Hour        int     `json:"hour"`
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"successRate"`
}

// WeekdayBucket aggregates attempts by day of week, Sunday first.
type WeekdayBucket struct {
	Day         string  `json:"day"`
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"successRate"`
}

// Trends groups the three temporal views.
type Trends struct {
	Daily   []DailyBucket   `json:"daily"`
	Hourly  []HourlyBucket  `json:"hourly"`
	Weekday []WeekdayBucket `json:"weekday"`
}

// Funnel counts leads by the ordinal of their first successful attempt.
type Funnel struct {
	FirstAttempt  int `json:"firstAttempt"`
	SecondAttempt int `json:"secondAttempt"`
	ThirdAttempt  int `json:"thirdAttempt"`
	FourthPlus    int `json:"fourthPlus"`
}

// Recommendation impact tiers.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// Recommendation kinds.
const (
	RecommendationTiming    = "timing"
	RecommendationChannel   = "channel"
	RecommendationFrequency = "frequency"
	RecommendationStrategy  = "strategy"
	RecommendationTraining  = "training"
)

// Recommendation is one heuristic suggestion. Rules are evaluated
// independently; there is no ordering dependency between them.
type Recommendation struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Impact     string `json:"impact"`
	Actionable bool   `json:"actionable"`
}

// Analytics is the derived view over an attempt collection.
type Analytics struct {
	TotalAttempts            int                     `json:"totalAttempts"`
	Successes                int                     `json:"successes"`
	SuccessRate              float64                 `json:"successRate"`
	AverageAttemptsToSuccess float64                 `json:"averageAttemptsToSuccess"`
	AverageResponseTimeHours float64                 `json:"averageResponseTimeHours"`
	ByType                   map[string]Bucket       `json:"byType"`
	ByResult                 map[string]ResultBucket `json:"byResult"`
	Trends                   Trends                  `json:"trends"`
	BestPerformingType       string                  `json:"bestPerformingType"`
	BestPerformingHour       int                     `json:"bestPerformingHour"`
	BestPerformingDay        string                  `json:"bestPerformingDay"`
	ConversionFunnel         Funnel                  `json:"conversionFunnel"`
	Recommendations          []Recommendation        `json:"recommendations"`
}

// Analyze computes the full analytics view over the attempts. The now
// parameter anchors the trailing daily window; attempts themselves carry
// their own timestamps. An empty collection yields the zero-valued view with
// the documented defaults.
func Analyze(attempts []domain.ContactAttempt, now time.Time, cfg Config) Analytics {
	sorted := sortedByTime(attempts)

	a := Analytics{
		TotalAttempts: len(sorted),
		ByType:        typeBuckets(sorted),
		ByResult:      resultBuckets(sorted),
		Trends: Trends{
			Daily:   dailyTrend(sorted, now, cfg.TrailingWindowDays),
			Hourly:  hourlyTrend(sorted),
			Weekday: weekdayTrend(sorted),
		},
		ConversionFunnel: conversionFunnel(sorted),
	}

	for _, at := range sorted {
		if at.Result == domain.ResultSuccess {
			a.Successes++
		}
	}
	a.SuccessRate = rate(a.Successes, a.TotalAttempts)
	a.AverageAttemptsToSuccess = averageAttemptsToSuccess(sorted)
	a.AverageResponseTimeHours = averageResponseTimeHours(sorted)

	a.BestPerformingType = bestType(a.ByType)
	a.BestPerformingHour = bestHour(a.Trends.Hourly)
	a.BestPerformingDay = bestDay(a.Trends.Weekday)

	a.Recommendations = recommendations(a, cfg)
	return a
}

func sortedByTime(attempts []domain.ContactAttempt) []domain.ContactAttempt {
	sorted := make([]domain.ContactAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

func rate(successes, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(successes) / float64(total)
}

// averageAttemptsToSuccess is the 1-based position of the first success in
// chronological order; with no success it falls back to the attempt count.
func averageAttemptsToSuccess(sorted []domain.ContactAttempt) float64 {
	for i, at := range sorted {
		if at.Result == domain.ResultSuccess {
			return float64(i + 1)
		}
	}
	return float64(len(sorted))
}

func averageResponseTimeHours(sorted []domain.ContactAttempt) float64 {
	if len(sorted) < 2 {
		return 0
	}
	var total time.Duration
	for i := 1; i < len(sorted); i++ {
		total += sorted[i].Timestamp.Sub(sorted[i-1].Timestamp)
	}
	mean := total / time.Duration(len(sorted)-1)
	return mean.Hours()
}

func typeBuckets(sorted []domain.ContactAttempt) map[string]Bucket {
	buckets := make(map[string]Bucket, len(domain.Channels()))
	durations := make(map[string][]time.Duration)

	for _, ch := range domain.Channels() {
		buckets[string(ch)] = Bucket{}
	}
	for _, at := range sorted {
		b := buckets[string(at.Channel)]
		b.Attempts++
		if at.Result == domain.ResultSuccess {
			b.Successes++
		}
		buckets[string(at.Channel)] = b

		if at.Channel == domain.ChannelCall && at.CallDuration != nil {
			durations[string(at.Channel)] = append(durations[string(at.Channel)], *at.CallDuration)
		}
	}

	for name, b := range buckets {
		b.SuccessRate = rate(b.Successes, b.Attempts)
		if ds := durations[name]; len(ds) > 0 {
			var total time.Duration
			for _, d := range ds {
				total += d
			}
			b.AverageCallDurationSeconds = (total / time.Duration(len(ds))).Seconds()
		}
		buckets[name] = b
	}
	return buckets
}

func resultBuckets(sorted []domain.ContactAttempt) map[string]ResultBucket {
	buckets := make(map[string]ResultBucket, len(domain.Results()))
	for _, r := range domain.Results() {
		buckets[string(r)] = ResultBucket{}
	}
	for _, at := range sorted {
		b := buckets[string(at.Result)]
		b.Count++
		buckets[string(at.Result)] = b
	}
	for name, b := range buckets {
		successes := 0
		if name == string(domain.ResultSuccess) {
			successes = b.Count
		}
		b.Percentage = rate(b.Count, len(sorted))
		b.SuccessRate = rate(successes, b.Count)
		buckets[name] = b
	}
	return buckets
}

func dailyTrend(sorted []domain.ContactAttempt, now time.Time, windowDays int) []DailyBucket {
	if windowDays <= 0 {
		windowDays = 30
	}

	byDate := make(map[string]*DailyBucket, windowDays)
	out := make([]DailyBucket, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, DailyBucket{Date: date})
	}
	for i := range out {
		byDate[out[i].Date] = &out[i]
	}

	for _, at := range sorted {
		b, ok := byDate[at.Timestamp.Format("2006-01-02")]
		if !ok {
			continue // outside the trailing window
		}
		b.Attempts++
		if at.Result == domain.ResultSuccess {
			b.Successes++
		}
	}
	for i := range out {
		out[i].SuccessRate = rate(out[i].Successes, out[i].Attempts)
	}
	return out
}

func hourlyTrend(sorted []domain.ContactAttempt) []HourlyBucket {
	out := make([]HourlyBucket, 24)
	for i := range out {
		out[i].Hour = i
	}
	for _, at := range sorted {
		h := at.Timestamp.Hour()
		out[h].Attempts++
		if at.Result == domain.ResultSuccess {
			out[h].Successes++
		}
	}
	for i := range out {
		out[i].SuccessRate = rate(out[i].Successes, out[i].Attempts)
	}
	return out
}

func weekdayTrend(sorted []domain.ContactAttempt) []WeekdayBucket {
	out := make([]WeekdayBucket, 7)
	for i := range out {
		out[i].Day = time.Weekday(i).String()
	}
	for _, at := range sorted {
		d := int(at.Timestamp.Weekday())
		out[d].Attempts++
		if at.Result == domain.ResultSuccess {
			out[d].Successes++
		}
	}
	for i := range out {
		out[i].SuccessRate = rate(out[i].Successes, out[i].Attempts)
	}
	return out
}

// conversionFunnel buckets each lead by the ordinal of its first success.
func conversionFunnel(sorted []domain.ContactAttempt) Funnel {
	ordinals := make(map[string]int)
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, at := range sorted {
		key := at.CardID.String()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
		if at.Result == domain.ResultSuccess {
			if _, done := ordinals[key]; !done {
				ordinals[key] = counts[key]
			}
		}
	}

	var f Funnel
	for _, key := range order {
		ordinal, converted := ordinals[key]
		if !converted {
			continue
		}
		switch ordinal {
		case 1:
			f.FirstAttempt++
		case 2:
			f.SecondAttempt++
		case 3:
			f.ThirdAttempt++
		default:
			f.FourthPlus++
		}
	}
	return f
}

// bestType picks the channel with the highest success rate among channels
// with at least one attempt. Ties break by canonical enumeration order.
func bestType(byType map[string]Bucket) string {
	best := ""
	bestRate := -1.0
	for _, ch := range domain.Channels() {
		b := byType[string(ch)]
		if b.Attempts == 0 {
			continue
		}
		if b.SuccessRate > bestRate {
			best = string(ch)
			bestRate = b.SuccessRate
		}
	}
	if best == "" {
		return DefaultBestType
	}
	return best
}

func bestHour(hourly []HourlyBucket) int {
	best := -1
	bestRate := -1.0
	for _, b := range hourly {
		if b.Attempts == 0 {
			continue
		}
		if b.SuccessRate > bestRate {
			best = b.Hour
			bestRate = b.SuccessRate
		}
	}
	if best < 0 {
		return DefaultBestHour
	}
	return best
}

func bestDay(weekday []WeekdayBucket) string {
	best := ""
	bestRate := -1.0
	for _, b := range weekday {
		if b.Attempts == 0 {
			continue
		}
		if b.SuccessRate > bestRate {
			best = b.Day
			bestRate = b.SuccessRate
		}
	}
	if best == "" {
		return DefaultBestDay
	}
	return best
}

func recommendations(a Analytics, cfg Config) []Recommendation {
	recs := make([]Recommendation, 0, 4)
	if a.TotalAttempts == 0 {
		return recs
	}

	if a.BestPerformingHour != DefaultBestHour {
		recs = append(recs, Recommendation{
			Type: RecommendationTiming,
			Message: fmt.Sprintf("contacts succeed most often around %02d:00 on %s; schedule attempts in that window",
				a.BestPerformingHour, a.BestPerformingDay),
			Impact:     ImpactMedium,
			Actionable: true,
		})
	}

	for _, ch := range domain.Channels() {
		b := a.ByType[string(ch)]
		if b.Attempts > 0 && b.SuccessRate > a.SuccessRate {
			recs = append(recs, Recommendation{
				Type: RecommendationChannel,
				Message: fmt.Sprintf("%s outperforms the overall success rate (%.0f%% vs %.0f%%); prefer it for the next attempts",
					ch, b.SuccessRate, a.SuccessRate),
				Impact:     ImpactMedium,
				Actionable: true,
			})
			break
		}
	}

	if a.TotalAttempts >= 2 {
		meanGap := time.Duration(a.AverageResponseTimeHours * float64(time.Hour))
		if meanGap > cfg.FrequencyGapThreshold {
			recs = append(recs, Recommendation{
				Type: RecommendationFrequency,
				Message: fmt.Sprintf("average gap between attempts is %.0f hours; follow up more frequently",
					a.AverageResponseTimeHours),
				Impact:     ImpactHigh,
				Actionable: true,
			})
		}
	}

	if a.SuccessRate < cfg.SuccessRateFloor {
		recs = append(recs, Recommendation{
			Type: RecommendationStrategy,
			Message: fmt.Sprintf("overall success rate %.0f%% is below the %.0f%% floor; review the contact approach",
				a.SuccessRate, cfg.SuccessRateFloor),
			Impact:     ImpactHigh,
			Actionable: false,
		})
	}

	return recs
}
