package srs

import (
	"math"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

// calculateNewInterval determines the next interval in days from the
// review outcome and the previous interval.
//
// A failing rating (quality below the pass threshold) always resets the
// interval to one day. A passing rating grows the interval by the
// quality-specific factor, starting from one day if the record has no
// interval yet, and is capped at params.MaxIntervalDays.
func calculateNewInterval(previousInterval, quality int, params *Params) int {
	if quality < params.PassThreshold {
		return 1
	}

	if previousInterval == 0 {
		return 1
	}

	// Note: a minimum-quality pass from the one-day interval rounds
	// back to one day. Such records stay at the shortest interval until
	// a stronger recall moves them out.
	factor := params.IntervalFactors[quality]
	newInterval := int(math.Round(float64(previousInterval) * factor))

	if newInterval > params.MaxIntervalDays {
		newInterval = params.MaxIntervalDays
	}

	return newInterval
}

// calculateNewStatus determines the record status after a review.
//
// Failed reviews drop the record back to Learning. Passing reviews
// advance New -> Learning -> Review -> Mastered as the review count
// crosses the configured thresholds.
func calculateNewStatus(reviewCount, quality int, params *Params) domain.RepetitionStatus {
	if quality < params.PassThreshold {
		return domain.RepetitionStatusLearning
	}

	switch {
	case reviewCount >= params.MasteredThreshold:
		return domain.RepetitionStatusMastered
	case reviewCount >= params.ReviewThreshold:
		return domain.RepetitionStatusReview
	case reviewCount >= params.LearningThreshold:
		return domain.RepetitionStatusLearning
	default:
		return domain.RepetitionStatusNew
	}
}

// calculateNextRecord creates a new RepetitionRecord with updated
// values based on the review quality.
//
// Every review counts: the review count is incremented whether or not
// the rating passed, and LastReviewedAt is always set to now. The next
// review time is anchored on the new LastReviewedAt plus the interval.
// The original record is not modified.
func calculateNextRecord(
	record *domain.RepetitionRecord,
	quality int,
	now time.Time,
	params *Params,
) *domain.RepetitionRecord {
	newRecord := record.Clone()

	newRecord.ReviewCount++
	newRecord.LastReviewedAt = now
	newRecord.IntervalDays = calculateNewInterval(record.IntervalDays, quality, params)
	newRecord.Status = calculateNewStatus(newRecord.ReviewCount, quality, params)

	next := now.AddDate(0, 0, newRecord.IntervalDays)
	newRecord.NextReviewAt = &next
	newRecord.UpdatedAt = now

	return newRecord
}
