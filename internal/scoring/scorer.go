package scoring

import (
	"math"
	"sort"
	"strings"

	"land-scout/internal/models"
)

// Grade is the letter bucket a total score falls into. It drives the
// downstream notification priority.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Fixed sub-score weights. Thresholds are configurable, weights are
// not.
const (
	weightPrice      = 0.30
	weightLocation   = 0.30
	weightArea       = 0.20
	weightInvestment = 0.20
)

// Score is the investment-quality evaluation of one listing. All
// sub-scores and the total are in [0,100].
type Score struct {
	PriceScore      float64 `json:"price_score"`
	LocationScore   float64 `json:"location_score"`
	AreaScore       float64 `json:"area_score"`
	InvestmentScore float64 `json:"investment_score"`
	TotalScore      float64 `json:"total_score"`
	Grade           Grade   `json:"grade"`
}

// Scorer evaluates listings against an immutable ScoringConfig.
// Scoring is a pure function of the listing fields: the same listing
// always produces the same score.
type Scorer struct {
	cfg ScoringConfig

	// Zone tokens ordered longest first, so 近隣商業 wins over 商業
	// when both match the zone string.
	zoneTokens []string
}

// NewScorer validates the config and builds a Scorer. A config that
// fails validation is rejected with InvalidConfigError before any
// scoring can occur.
func NewScorer(cfg ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(cfg.ZoneDesirability))
	for token := range cfg.ZoneDesirability {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})

	return &Scorer{cfg: cfg, zoneTokens: tokens}, nil
}

// Score evaluates one listing. It fails with InsufficientDataError
// when the price or the land area is missing; every other missing
// field degrades to a neutral sub-score instead.
func (s *Scorer) Score(l models.Listing) (Score, error) {
	if l.PriceNumeric <= 0 {
		return Score{}, &InsufficientDataError{PropertyID: l.PropertyID, Field: "price_numeric"}
	}
	if l.LandAreaTsubo == nil || *l.LandAreaTsubo <= 0 {
		return Score{}, &InsufficientDataError{PropertyID: l.PropertyID, Field: "land_area_tsubo"}
	}

	price := s.scorePrice(float64(l.PriceNumeric), *l.LandAreaTsubo)
	location := s.scoreLocation(l.Address, l.StationWalkMinutes)
	area := s.scoreArea(*l.LandAreaTsubo)
	investment := s.scoreInvestment(l.BuildingCoverage, l.FloorAreaRatio, l.ZoneType)

	// The grade is derived from the rounded total so the reported
	// score and the grade can never disagree at a boundary.
	total := round2(clamp(price*weightPrice + location*weightLocation + area*weightArea + investment*weightInvestment))

	return Score{
		PriceScore:      round2(price),
		LocationScore:   round2(location),
		AreaScore:       round2(area),
		InvestmentScore: round2(investment),
		TotalScore:      total,
		Grade:           s.gradeFor(total),
	}, nil
}

// scorePrice maps 坪単価 through the descending step table: the
// cheaper the tsubo, the higher the score.
func (s *Scorer) scorePrice(price, tsubo float64) float64 {
	perTsubo := price / tsubo
	for _, step := range s.cfg.PriceThresholds {
		if perTsubo <= step.Cutoff {
			return step.Score
		}
	}
	return s.cfg.PriceFloorScore
}

// scoreLocation is half area reputation, half station distance.
func (s *Scorer) scoreLocation(address string, walkMinutes *int) float64 {
	reputation := s.cfg.AreaReputationBase
	for _, token := range s.cfg.PremiumAreaTokens {
		if strings.Contains(address, token) {
			reputation = s.cfg.PremiumAreaScore
			break
		}
	}

	station := s.cfg.StationUnknownScore
	if walkMinutes != nil {
		station = s.cfg.StationFloorScore
		for _, step := range s.cfg.StationThresholds {
			if float64(*walkMinutes) <= step.Cutoff {
				station = step.Score
				break
			}
		}
	}

	return reputation*0.5 + station*0.5
}

// scoreArea rewards land size, saturating at the largest cutoff.
func (s *Scorer) scoreArea(tsubo float64) float64 {
	for _, step := range s.cfg.AreaThresholds {
		if tsubo >= step.Cutoff {
			return step.Score
		}
	}
	return s.cfg.AreaFloorScore
}

// scoreInvestment averages zoning permissiveness with the coverage and
// floor-area ratios. Missing figures are left out of the average; the
// zone term is always present and defaults to neutral.
func (s *Scorer) scoreInvestment(coverage, floorAreaRatio *float64, zoneType string) float64 {
	var scores []float64

	if coverage != nil && *coverage > 0 {
		scores = append(scores, stepAtLeast(s.cfg.CoverageThresholds, *coverage, s.cfg.NeutralScore))
	}
	if floorAreaRatio != nil && *floorAreaRatio > 0 {
		scores = append(scores, stepAtLeast(s.cfg.FloorAreaRatioThresholds, *floorAreaRatio, s.cfg.NeutralScore))
	}
	scores = append(scores, s.scoreZone(zoneType))

	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// scoreZone resolves the zone string against the configured tokens,
// longest token first.
func (s *Scorer) scoreZone(zoneType string) float64 {
	if zoneType == "" {
		return s.cfg.NeutralScore
	}
	if score, ok := s.cfg.ZoneDesirability[zoneType]; ok {
		return score
	}
	for _, token := range s.zoneTokens {
		if strings.Contains(zoneType, token) {
			return s.cfg.ZoneDesirability[token]
		}
	}
	return s.cfg.NeutralScore
}

// gradeFor resolves the grade top-down so a tie at a boundary gets the
// higher grade.
func (s *Scorer) gradeFor(total float64) Grade {
	for _, gt := range s.cfg.GradeThresholds {
		if total >= gt.Min {
			return gt.Grade
		}
	}
	return GradeD
}

func stepAtLeast(steps []Threshold, value, fallback float64) float64 {
	for _, step := range steps {
		if value >= step.Cutoff {
			return step.Score
		}
	}
	return fallback
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
