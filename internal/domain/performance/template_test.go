package performance

import (
	"errors"
	"testing"
)

func weights(ws ...float64) []Criterion {
	out := make([]Criterion, 0, len(ws))
	for i, w := range ws {
		out = append(out, Criterion{Key: string(rune('a' + i)), Title: "c", Weight: w})
	}
	return out
}

func TestValidateWeights(t *testing.T) {
	cases := []struct {
		name    string
		weights []float64
		ok      bool
	}{
		{"sum 100", []float64{50, 50}, true},
		{"sum 100 uneven", []float64{40, 60}, true},
		{"all zero", []float64{0, 0}, true},
		{"empty", nil, true},
		{"sum 80", []float64{50, 30}, false},
		{"sum 110", []float64{60, 50}, false},
		{"negative", []float64{-10, 110}, false},
		{"fractional", []float64{33.3, 33.3, 33.4}, true},
	}
	for _, tc := range cases {
		err := ValidateWeights(weights(tc.weights...))
		if tc.ok && err != nil {
			t.Fatalf("%s: expected ok, got %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidWeights) {
			t.Fatalf("%s: expected ErrInvalidWeights, got %v", tc.name, err)
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	base := Template{
		TemplateType: TypeAnnual,
		RatingScale:  RatingScale{Type: ScaleFivePoint, Min: 1, Max: 5, Step: 1},
		Criteria:     weights(40, 60),
	}
	if err := validateTemplate(base); err != nil {
		t.Fatalf("expected valid template, got %v", err)
	}

	bad := base
	bad.TemplateType = "QUARTERLY"
	if !errors.Is(validateTemplate(bad), ErrInvalidTemplateType) {
		t.Fatal("expected invalid template type")
	}

	bad = base
	bad.RatingScale = RatingScale{Type: ScaleFivePoint, Min: 5, Max: 1, Step: 1}
	if !errors.Is(validateTemplate(bad), ErrInvalidRatingScale) {
		t.Fatal("expected invalid scale")
	}

	bad = base
	bad.Criteria = []Criterion{{Key: "x", Weight: 50}, {Key: "x", Weight: 50}}
	if !errors.Is(validateTemplate(bad), ErrDuplicateCriterionKey) {
		t.Fatal("expected duplicate key")
	}

	belowMin := 0.5
	bad = base
	bad.Criteria = []Criterion{{Key: "x", Weight: 100, MaxScore: &belowMin}}
	if !errors.Is(validateTemplate(bad), ErrInvalidMaxScore) {
		t.Fatal("expected maxScore below the scale minimum to be rejected")
	}

	atMin := 1.0
	bad.Criteria = []Criterion{{Key: "x", Weight: 100, MaxScore: &atMin}}
	if err := validateTemplate(bad); err != nil {
		t.Fatalf("expected maxScore at the scale minimum to be accepted, got %v", err)
	}
}

func TestScoreRatingsWeighted(t *testing.T) {
	tpl := Template{
		RatingScale: RatingScale{Type: ScaleFivePoint, Min: 1, Max: 5, Step: 1},
		Criteria: []Criterion{
			{Key: "quality", Title: "Quality", Weight: 40},
			{Key: "delivery", Title: "Delivery", Weight: 60},
		},
	}
	ratings, total, err := scoreRatings(tpl, []Rating{
		{Key: "quality", RatingValue: 5},
		{Key: "delivery", RatingValue: 3},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ratings[0].Title != "Quality" || *ratings[0].WeightedScore != 40 || *ratings[1].WeightedScore != 36 {
		t.Fatalf("unexpected ratings: %+v", ratings)
	}
	if total == nil || *total != 76 {
		t.Fatalf("expected total 76, got %v", total)
	}
}

func TestScoreRatingsKeepsCallerTotalAndAveragesUnweighted(t *testing.T) {
	tpl := Template{
		RatingScale: RatingScale{Type: ScaleFivePoint, Min: 1, Max: 5, Step: 1},
		Criteria:    weights(0, 0),
	}
	_, total, err := scoreRatings(tpl, []Rating{{Key: "a", RatingValue: 4}, {Key: "b", RatingValue: 3}}, nil)
	if err != nil || total == nil || *total != 3.5 {
		t.Fatalf("expected mean 3.5, got %v (%v)", total, err)
	}

	given := 4.5
	_, total, err = scoreRatings(tpl, []Rating{{Key: "a", RatingValue: 4}}, &given)
	if err != nil || *total != 4.5 {
		t.Fatalf("expected caller total kept, got %v (%v)", total, err)
	}

	outside := 99.0
	if _, _, err := scoreRatings(tpl, []Rating{{Key: "a", RatingValue: 4}}, &outside); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected total outside the scale to be rejected, got %v", err)
	}
}

func TestScoreRatingsBoundsCallerScores(t *testing.T) {
	tpl := Template{
		RatingScale: RatingScale{Type: ScaleFivePoint, Min: 1, Max: 5, Step: 1},
		Criteria:    weights(40, 60),
	}
	over := 45.0
	if _, _, err := scoreRatings(tpl, []Rating{{Key: "a", RatingValue: 5, WeightedScore: &over}}, nil); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected weighted score above the weight to be rejected, got %v", err)
	}
	negative := -1.0
	if _, _, err := scoreRatings(tpl, []Rating{{Key: "a", RatingValue: 5, WeightedScore: &negative}}, nil); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected negative weighted score to be rejected, got %v", err)
	}

	full := 40.0
	ratings, total, err := scoreRatings(tpl, []Rating{{Key: "a", RatingValue: 5, WeightedScore: &full}}, nil)
	if err != nil || *ratings[0].WeightedScore != 40 || *total != 40 {
		t.Fatalf("expected weighted score at the weight to be kept, got %v (%v)", total, err)
	}

	tooHigh := 120.0
	if _, _, err := scoreRatings(tpl, []Rating{{Key: "a", RatingValue: 5}}, &tooHigh); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected total above 100 to be rejected, got %v", err)
	}
}

func TestScoreRatingsRejectsBadInput(t *testing.T) {
	maxScore := 3.0
	tpl := Template{
		RatingScale: RatingScale{Type: ScaleFivePoint, Min: 1, Max: 5, Step: 1},
		Criteria:    []Criterion{{Key: "a", Weight: 100, MaxScore: &maxScore}},
	}
	cases := [][]Rating{
		{{Key: "zzz", RatingValue: 3}},
		{{Key: "a", RatingValue: 0}},
		{{Key: "a", RatingValue: 4}},
		{{Key: "a", RatingValue: 2}, {Key: "a", RatingValue: 2}},
	}
	for i, ratings := range cases {
		if _, _, err := scoreRatings(tpl, ratings, nil); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("case %d: expected ErrInvalidRating, got %v", i, err)
		}
	}
}
