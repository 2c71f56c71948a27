package scoring

import "fmt"

// Threshold is one (cutoff, score) step of a piecewise evaluation.
type Threshold struct {
	Cutoff float64 `yaml:"cutoff" json:"cutoff"`
	Score  float64 `yaml:"score" json:"score"`
}

// GradeThreshold maps a grade to the minimum total score that earns it.
type GradeThreshold struct {
	Grade Grade   `yaml:"grade" json:"grade"`
	Min   float64 `yaml:"min" json:"min"`
}

// ScoringConfig holds the thresholds consumed by the Scorer. It is
// treated as immutable once a Scorer is constructed from it; the
// loader is responsible for calling Validate.
type ScoringConfig struct {
	// Price-per-tsubo steps (万円/坪), ascending cutoffs with
	// descending scores. The first cutoff at or above the computed
	// price-per-tsubo decides the score; above the last cutoff the
	// floor score applies.
	PriceThresholds []Threshold `yaml:"price_thresholds"`
	PriceFloorScore float64     `yaml:"price_floor_score"`

	// Address tokens treated as premium locations.
	PremiumAreaTokens  []string `yaml:"premium_area_tokens"`
	PremiumAreaScore   float64  `yaml:"premium_area_score"`
	AreaReputationBase float64  `yaml:"area_reputation_base"`

	// Station walk-minute steps, ascending cutoffs with descending
	// scores. An unknown distance scores StationUnknownScore.
	StationThresholds   []Threshold `yaml:"station_thresholds"`
	StationFloorScore   float64     `yaml:"station_floor_score"`
	StationUnknownScore float64     `yaml:"station_unknown_score"`

	// Land-area steps (tsubo), descending cutoffs with descending
	// scores. The first cutoff at or below the land area decides.
	AreaThresholds []Threshold `yaml:"area_thresholds"`
	AreaFloorScore float64     `yaml:"area_floor_score"`

	// Zoning figures, descending cutoffs with descending scores. A
	// figure below every cutoff scores NeutralScore.
	CoverageThresholds       []Threshold `yaml:"coverage_thresholds"`
	FloorAreaRatioThresholds []Threshold `yaml:"floor_area_ratio_thresholds"`

	// Zone-type desirability. Matched against the zone string by
	// longest configured token first; no match scores NeutralScore.
	ZoneDesirability map[string]float64 `yaml:"zone_desirability"`
	NeutralScore     float64            `yaml:"neutral_score"`

	// Grade minima, evaluated top-down.
	GradeThresholds []GradeThreshold `yaml:"grade_thresholds"`
}

// DefaultScoringConfig returns the thresholds tuned for the Oita land
// market.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PriceThresholds: []Threshold{
			{Cutoff: 10, Score: 100},
			{Cutoff: 15, Score: 80},
			{Cutoff: 20, Score: 60},
			{Cutoff: 25, Score: 40},
			{Cutoff: 30, Score: 20},
		},
		PriceFloorScore: 10,

		PremiumAreaTokens: []string{
			"中央町", "府内町", "都町", "金池町", "末広町",
			"千代町", "大手町", "荷揚町", "長浜町", "錦町",
			"城崎町", "東大道", "西大道", "大道町", "萩原",
		},
		PremiumAreaScore:   100,
		AreaReputationBase: 50,

		StationThresholds: []Threshold{
			{Cutoff: 5, Score: 100},
			{Cutoff: 10, Score: 80},
			{Cutoff: 15, Score: 60},
			{Cutoff: 20, Score: 40},
			{Cutoff: 30, Score: 20},
		},
		StationFloorScore:   10,
		StationUnknownScore: 30,

		AreaThresholds: []Threshold{
			{Cutoff: 100, Score: 100},
			{Cutoff: 70, Score: 80},
			{Cutoff: 50, Score: 60},
			{Cutoff: 30, Score: 40},
			{Cutoff: 20, Score: 20},
		},
		AreaFloorScore: 10,

		CoverageThresholds: []Threshold{
			{Cutoff: 80, Score: 100},
			{Cutoff: 70, Score: 80},
			{Cutoff: 60, Score: 60},
			{Cutoff: 50, Score: 40},
		},
		FloorAreaRatioThresholds: []Threshold{
			{Cutoff: 400, Score: 100},
			{Cutoff: 300, Score: 80},
			{Cutoff: 200, Score: 60},
			{Cutoff: 150, Score: 40},
		},

		ZoneDesirability: map[string]float64{
			"商業":     90,
			"近隣商業":   80,
			"準工業":    70,
			"第一種住居":  60,
			"第二種住居":  60,
			"第一種低層":  40,
			"第二種低層":  40,
		},
		NeutralScore: 50,

		GradeThresholds: []GradeThreshold{
			{Grade: GradeS, Min: 90},
			{Grade: GradeA, Min: 80},
			{Grade: GradeB, Min: 70},
			{Grade: GradeC, Min: 60},
		},
	}
}

// Validate checks that every threshold table is monotonic and every
// score lands in [0,100]. A Scorer must not be built from a config
// that fails validation.
func (c ScoringConfig) Validate() error {
	if err := validateAscending("price_thresholds", c.PriceThresholds); err != nil {
		return err
	}
	if err := validateScoreRange("price_floor_score", c.PriceFloorScore); err != nil {
		return err
	}
	if err := validateAscending("station_thresholds", c.StationThresholds); err != nil {
		return err
	}
	if err := validateScoreRange("station_unknown_score", c.StationUnknownScore); err != nil {
		return err
	}
	if err := validateDescending("area_thresholds", c.AreaThresholds); err != nil {
		return err
	}
	if err := validateDescending("coverage_thresholds", c.CoverageThresholds); err != nil {
		return err
	}
	if err := validateDescending("floor_area_ratio_thresholds", c.FloorAreaRatioThresholds); err != nil {
		return err
	}
	for zone, score := range c.ZoneDesirability {
		if score < 0 || score > 100 {
			return &InvalidConfigError{
				Field:  "zone_desirability",
				Reason: fmt.Sprintf("score %.1f for %q out of [0,100]", score, zone),
			}
		}
	}
	if err := validateScoreRange("neutral_score", c.NeutralScore); err != nil {
		return err
	}

	if len(c.GradeThresholds) == 0 {
		return &InvalidConfigError{Field: "grade_thresholds", Reason: "empty"}
	}
	for i, gt := range c.GradeThresholds {
		if err := validateScoreRange("grade_thresholds", gt.Min); err != nil {
			return err
		}
		if i > 0 && gt.Min >= c.GradeThresholds[i-1].Min {
			return &InvalidConfigError{
				Field:  "grade_thresholds",
				Reason: fmt.Sprintf("minimum for %s must be below the one for %s", gt.Grade, c.GradeThresholds[i-1].Grade),
			}
		}
	}
	return nil
}

// validateAscending requires strictly increasing cutoffs paired with
// strictly decreasing scores (a monotonically decreasing step map).
func validateAscending(field string, steps []Threshold) error {
	if len(steps) == 0 {
		return &InvalidConfigError{Field: field, Reason: "empty"}
	}
	for i, s := range steps {
		if err := validateScoreRange(field, s.Score); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		if s.Cutoff <= steps[i-1].Cutoff {
			return &InvalidConfigError{Field: field, Reason: fmt.Sprintf("cutoffs not increasing at index %d", i)}
		}
		if s.Score >= steps[i-1].Score {
			return &InvalidConfigError{Field: field, Reason: fmt.Sprintf("scores not decreasing at index %d", i)}
		}
	}
	return nil
}

// validateDescending requires strictly decreasing cutoffs paired with
// strictly decreasing scores (a monotonically increasing step map).
func validateDescending(field string, steps []Threshold) error {
	if len(steps) == 0 {
		return &InvalidConfigError{Field: field, Reason: "empty"}
	}
	for i, s := range steps {
		if err := validateScoreRange(field, s.Score); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		if s.Cutoff >= steps[i-1].Cutoff {
			return &InvalidConfigError{Field: field, Reason: fmt.Sprintf("cutoffs not decreasing at index %d", i)}
		}
		if s.Score >= steps[i-1].Score {
			return &InvalidConfigError{Field: field, Reason: fmt.Sprintf("scores not decreasing at index %d", i)}
		}
	}
	return nil
}

func validateScoreRange(field string, score float64) error {
	if score < 0 || score > 100 {
		return &InvalidConfigError{Field: field, Reason: fmt.Sprintf("score %.1f out of [0,100]", score)}
	}
	return nil
}
