// Package statistic computes hourly aggregate records from a sparse,
// irregularly-sampled time series using either linear interpolation or
// step-hold semantics.
package statistic

import (
	"math"
	"sort"
	"time"
)

// Mode selects the interpolation strategy between samples.
type Mode string

// Supported modes. Linear interpolates between neighboring samples, step
// holds each sample's value until the next one.
const (
	ModeLinear Mode = "linear"
	ModeStep   Mode = "step"
)

// IsValid reports whether the mode is supported.
func (m Mode) IsValid() bool {
	return m == ModeLinear || m == ModeStep
}

// Sample is one observed numeric reading.
type Sample struct {
	At    time.Time
	Value float64
}

// Record is the aggregate for one wall-clock hour bucket [Start, Start+1h).
type Record struct {
	Start time.Time
	Mean  float64
	Min   float64
	Max   float64
	State float64
}

type bucket struct {
	start    time.Time
	duration float64
	integral float64
	min      float64
	max      float64
	state    float64
}

// Aggregate produces one record per hour bucket the sample sequence overlaps.
// Non-finite samples are dropped, exact-duplicate timestamps keep the last
// write. In step mode the last known value is carried forward to now so the
// final bucket is populated without a fresh observation. Fewer than two
// samples yield no records: statistics need at least one interval to
// integrate over.
func Aggregate(samples []Sample, mode Mode, now time.Time) []Record {
	cleaned := normalize(samples)

	if mode == ModeStep && len(cleaned) > 0 {
		last := cleaned[len(cleaned)-1]
		if last.At.Before(now) {
			cleaned = append(cleaned, Sample{At: now, Value: last.Value})
		}
	}
	if len(cleaned) < 2 {
		return nil
	}

	buckets := make(map[int64]*bucket)
	for i := 0; i+1 < len(cleaned); i++ {
		accumulateSegment(buckets, cleaned[i], cleaned[i+1], mode)
	}

	result := make([]Record, 0, len(buckets))
	for _, b := range buckets {
		if b.duration <= 0 {
			continue
		}
		result = append(result, Record{
			Start: b.start,
			Mean:  b.integral / b.duration,
			Min:   b.min,
			Max:   b.max,
			State: b.state,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result
}

// accumulateSegment walks every hour bucket the interval [s0.At, s1.At)
// overlaps and folds the overlap into the bucket's accumulators.
func accumulateSegment(buckets map[int64]*bucket, s0, s1 Sample, mode Mode) {
	if !s1.At.After(s0.At) {
		return
	}

	hour := s0.At.UTC().Truncate(time.Hour)
	for hour.Before(s1.At) {
		bucketEnd := hour.Add(time.Hour)

		overlapStart := maxTime(s0.At, hour)
		overlapEnd := minTime(s1.At, bucketEnd)
		seconds := overlapEnd.Sub(overlapStart).Seconds()
		if seconds <= 0 {
			hour = bucketEnd
			continue
		}

		startValue := valueAt(s0, s1, overlapStart, mode)
		endValue := valueAt(s0, s1, overlapEnd, mode)

		segmentMean := startValue
		if mode == ModeLinear {
			segmentMean = (startValue + endValue) / 2
		}

		b, ok := buckets[hour.Unix()]
		if !ok {
			b = &bucket{start: hour, min: math.Inf(1), max: math.Inf(-1)}
			buckets[hour.Unix()] = b
		}
		b.duration += seconds
		b.integral += segmentMean * seconds
		b.min = math.Min(b.min, math.Min(startValue, endValue))
		b.max = math.Max(b.max, math.Max(startValue, endValue))
		b.state = endValue

		hour = bucketEnd
	}
}

// valueAt computes the series value at an instant inside [s0.At, s1.At].
func valueAt(s0, s1 Sample, at time.Time, mode Mode) float64 {
	if mode == ModeStep {
		// Hold the segment's starting value until the next sample.
		if at.Before(s1.At) {
			return s0.Value
		}
		return s1.Value
	}

	span := s1.At.Sub(s0.At).Seconds()
	if span <= 0 {
		return s1.Value
	}
	fraction := at.Sub(s0.At).Seconds() / span
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return s0.Value + (s1.Value-s0.Value)*fraction
}

// normalize drops non-finite samples, deduplicates by exact timestamp with
// last write winning, and sorts chronologically.
func normalize(samples []Sample) []Sample {
	byInstant := make(map[int64]Sample, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		byInstant[s.At.UnixNano()] = Sample{At: s.At.UTC(), Value: s.Value}
	}

	cleaned := make([]Sample, 0, len(byInstant))
	for _, s := range byInstant {
		cleaned = append(cleaned, s)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].At.Before(cleaned[j].At) })
	return cleaned
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
