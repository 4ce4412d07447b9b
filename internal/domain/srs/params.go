package srs

// Quality bounds for a review rating. 0 means no recall, 5 perfect
// recall.
const (
	MinQuality = 0
	MaxQuality = 5
)

// Params defines all configurable parameters for the repetition
// scheduler.
type Params struct {
	// PassThreshold is the lowest quality rating counted as a
	// successful recall. Ratings below it reset the interval to one
	// day.
	PassThreshold int

	// IntervalFactors maps passing quality ratings to the multiplier
	// applied to the previous interval. Higher quality grows the
	// interval faster.
	IntervalFactors map[int]float64

	// MaxIntervalDays caps interval growth.
	MaxIntervalDays int

	// Status thresholds: the review count at which a record advances
	// to Learning, Review and Mastered respectively.
	LearningThreshold int
	ReviewThreshold   int
	MasteredThreshold int
}

// ParamsConfig allows overriding the default parameters when creating a
// new Params instance.
type ParamsConfig struct {
	PassThreshold int

	// Interval factors per passing quality rating
	PassFactor    float64
	GoodFactor    float64
	PerfectFactor float64

	MaxIntervalDays int

	LearningThreshold int
	ReviewThreshold   int
	MasteredThreshold int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		PassThreshold: 3,

		// Simplified SM-2 ease multipliers: growth accelerates with
		// recall quality.
		IntervalFactors: map[int]float64{
			3: 1.3,
			4: 1.9,
			5: 2.5,
		},

		MaxIntervalDays: 90,

		LearningThreshold: 1,
		ReviewThreshold:   4,
		MasteredThreshold: 8,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.PassThreshold > 0 {
		params.PassThreshold = config.PassThreshold
	}
	if config.PassFactor > 0 {
		params.IntervalFactors[3] = config.PassFactor
	}
	if config.GoodFactor > 0 {
		params.IntervalFactors[4] = config.GoodFactor
	}
	if config.PerfectFactor > 0 {
		params.IntervalFactors[5] = config.PerfectFactor
	}
	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}
	if config.LearningThreshold > 0 {
		params.LearningThreshold = config.LearningThreshold
	}
	if config.ReviewThreshold > 0 {
		params.ReviewThreshold = config.ReviewThreshold
	}
	if config.MasteredThreshold > 0 {
		params.MasteredThreshold = config.MasteredThreshold
	}

	return params
}
