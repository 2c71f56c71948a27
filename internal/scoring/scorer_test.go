package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"land-scout/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	scorer, err := NewScorer(DefaultScoringConfig())
	require.NoError(t, err)
	return scorer
}

func TestScorer_Score(t *testing.T) {
	scorer := newTestScorer(t)

	t.Run("reference listing lands in the A band", func(t *testing.T) {
		// 坪単価15万円, premium address, station at 5 minutes,
		// saturating land area, no zoning data.
		listing := models.Listing{
			PropertyID:         "P1",
			Title:              "売土地 中央町",
			PriceNumeric:       1500,
			Address:            "中央町1-1",
			LandAreaTsubo:      floatPtr(100),
			StationWalkMinutes: intPtr(5),
		}

		score, err := scorer.Score(listing)
		require.NoError(t, err)

		assert.Equal(t, 80.0, score.PriceScore)
		assert.Equal(t, 100.0, score.LocationScore)
		assert.Equal(t, 100.0, score.AreaScore)
		assert.Equal(t, 50.0, score.InvestmentScore)
		assert.Equal(t, 84.0, score.TotalScore)
		assert.Equal(t, GradeA, score.Grade)
	})

	t.Run("scoring is deterministic", func(t *testing.T) {
		listing := models.Listing{
			PropertyID:         "P2",
			PriceNumeric:       2480,
			Address:            "大分市明野東3丁目",
			LandAreaTsubo:      floatPtr(62.5),
			BuildingCoverage:   floatPtr(60),
			FloorAreaRatio:     floatPtr(200),
			ZoneType:           "第一種住居地域",
			StationWalkMinutes: intPtr(18),
		}

		first, err := scorer.Score(listing)
		require.NoError(t, err)
		second, err := scorer.Score(listing)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("missing price fails with InsufficientDataError", func(t *testing.T) {
		listing := models.Listing{
			PropertyID:    "P3",
			LandAreaTsubo: floatPtr(50),
		}

		_, err := scorer.Score(listing)
		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "P3", insufficient.PropertyID)
		assert.Equal(t, "price_numeric", insufficient.Field)
	})

	t.Run("missing land area fails with InsufficientDataError", func(t *testing.T) {
		for name, area := range map[string]*float64{
			"nil":  nil,
			"zero": floatPtr(0),
		} {
			listing := models.Listing{PropertyID: "P4", PriceNumeric: 1000, LandAreaTsubo: area}

			_, err := scorer.Score(listing)
			var insufficient *InsufficientDataError
			require.ErrorAs(t, err, &insufficient, name)
			assert.Equal(t, "land_area_tsubo", insufficient.Field)
		}
	})
}

func TestScorer_PriceMonotonicity(t *testing.T) {
	scorer := newTestScorer(t)

	base := models.Listing{
		PropertyID:    "P1",
		Address:       "大分市",
		LandAreaTsubo: floatPtr(100),
	}

	// Identical listings apart from price: the cheaper one must never
	// score lower on the price axis.
	prices := []int{500, 900, 1000, 1400, 1500, 1900, 2000, 2400, 2500, 2900, 3000, 5000}
	var previous float64 = 101
	for _, price := range prices {
		listing := base
		listing.PriceNumeric = price

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		assert.LessOrEqual(t, score.PriceScore, previous, "price %d", price)
		assert.GreaterOrEqual(t, score.PriceScore, 0.0)
		assert.LessOrEqual(t, score.PriceScore, 100.0)
		previous = score.PriceScore
	}
}

func TestScorer_GradeBoundaries(t *testing.T) {
	scorer := newTestScorer(t)

	t.Run("exactly 90 grades S not A", func(t *testing.T) {
		// 100/100/100/50 weighted: 30+30+20+10 = 90.0.
		listing := models.Listing{
			PropertyID:         "P1",
			PriceNumeric:       1000, // 10万円/坪
			Address:            "中央町2-3",
			LandAreaTsubo:      floatPtr(100),
			StationWalkMinutes: intPtr(5),
		}

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		assert.Equal(t, 90.0, score.TotalScore)
		assert.Equal(t, GradeS, score.Grade)
	})

	t.Run("grade table is exhaustive", func(t *testing.T) {
		cases := []struct {
			total float64
			want  Grade
		}{
			{95, GradeS}, {90, GradeS},
			{89.99, GradeA}, {80, GradeA},
			{79.99, GradeB}, {70, GradeB},
			{69.99, GradeC}, {60, GradeC},
			{59.99, GradeD}, {0, GradeD},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.want, scorer.gradeFor(tc.total), "total %.2f", tc.total)
		}
	})
}

func TestScorer_Location(t *testing.T) {
	scorer := newTestScorer(t)

	t.Run("unknown station distance is neutral, not zero", func(t *testing.T) {
		listing := models.Listing{
			PropertyID:    "P1",
			PriceNumeric:  1000,
			Address:       "大分市郊外",
			LandAreaTsubo: floatPtr(50),
		}

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		// 50 reputation + 30 unknown-station, halved.
		assert.Equal(t, 40.0, score.LocationScore)
	})

	t.Run("premium token dominates the reputation term", func(t *testing.T) {
		listing := models.Listing{
			PropertyID:         "P2",
			PriceNumeric:       1000,
			Address:            "大分市府内町2丁目",
			LandAreaTsubo:      floatPtr(50),
			StationWalkMinutes: intPtr(12),
		}

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		// 100 reputation + 60 station (12分), halved.
		assert.Equal(t, 80.0, score.LocationScore)
	})

	t.Run("very distant station hits the floor", func(t *testing.T) {
		listing := models.Listing{
			PropertyID:         "P3",
			PriceNumeric:       1000,
			Address:            "大分市",
			LandAreaTsubo:      floatPtr(50),
			StationWalkMinutes: intPtr(45),
		}

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		// 50 reputation + 10 floor, halved.
		assert.Equal(t, 30.0, score.LocationScore)
	})
}

func TestScorer_Area(t *testing.T) {
	scorer := newTestScorer(t)

	cases := []struct {
		tsubo float64
		want  float64
	}{
		{150, 100}, {100, 100}, {70, 80}, {50, 60}, {30, 40}, {20, 20}, {10, 10},
	}
	for _, tc := range cases {
		listing := models.Listing{
			PropertyID:    "P1",
			PriceNumeric:  100,
			Address:       "大分市",
			LandAreaTsubo: floatPtr(tc.tsubo),
		}

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		assert.Equal(t, tc.want, score.AreaScore, "%.0f tsubo", tc.tsubo)
	}
}

func TestScorer_Investment(t *testing.T) {
	scorer := newTestScorer(t)

	base := models.Listing{
		PropertyID:    "P1",
		PriceNumeric:  1000,
		Address:       "大分市",
		LandAreaTsubo: floatPtr(50),
	}

	t.Run("full zoning data averages all three terms", func(t *testing.T) {
		listing := base
		listing.BuildingCoverage = floatPtr(80)
		listing.FloorAreaRatio = floatPtr(400)
		listing.ZoneType = "商業地域"

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		// (100 + 100 + 90) / 3
		assert.InDelta(t, 96.67, score.InvestmentScore, 0.01)
	})

	t.Run("longest zone token wins", func(t *testing.T) {
		listing := base
		listing.ZoneType = "近隣商業地域"

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		assert.Equal(t, 80.0, score.InvestmentScore)
	})

	t.Run("low-rise residential zone scores low", func(t *testing.T) {
		listing := base
		listing.ZoneType = "第一種低層住居専用地域"

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		assert.Equal(t, 40.0, score.InvestmentScore)
	})

	t.Run("missing zoning fields degrade to neutral", func(t *testing.T) {
		score, err := scorer.Score(base)
		require.NoError(t, err)
		assert.Equal(t, 50.0, score.InvestmentScore)
	})

	t.Run("figure below every cutoff is neutral", func(t *testing.T) {
		listing := base
		listing.BuildingCoverage = floatPtr(40)

		score, err := scorer.Score(listing)
		require.NoError(t, err)
		// (50 coverage + 50 zone) / 2
		assert.Equal(t, 50.0, score.InvestmentScore)
	})
}
