package performance

import (
	"math"
	"strings"
)

const weightEpsilon = 1e-6

// ValidateWeights accepts criteria whose weights are all in [0,100] and sum to
// exactly 0 (unweighted) or 100.
func ValidateWeights(criteria []Criterion) error {
	var sum float64
	for _, c := range criteria {
		if c.Weight < 0 || c.Weight > 100 {
			return ErrInvalidWeights
		}
		sum += c.Weight
	}
	if math.Abs(sum) < weightEpsilon || math.Abs(sum-100) < weightEpsilon {
		return nil
	}
	return ErrInvalidWeights
}

func validateScale(scale RatingScale) error {
	if _, ok := scaleTypes[scale.Type]; !ok {
		return ErrInvalidRatingScale
	}
	if scale.Min >= scale.Max || scale.Step <= 0 {
		return ErrInvalidRatingScale
	}
	return nil
}

// validateCriterionScores rejects a maxScore that leaves no rateable value
// on the scale.
func validateCriterionScores(scale RatingScale, criteria []Criterion) error {
	for _, c := range criteria {
		if c.MaxScore != nil && *c.MaxScore < scale.Min {
			return ErrInvalidMaxScore
		}
	}
	return nil
}

func validateCriterionKeys(criteria []Criterion) error {
	seen := make(map[string]struct{}, len(criteria))
	for _, c := range criteria {
		key := strings.TrimSpace(c.Key)
		if _, ok := seen[key]; ok {
			return ErrDuplicateCriterionKey
		}
		seen[key] = struct{}{}
	}
	return nil
}

func validateTemplate(t Template) error {
	if !ValidTemplateType(t.TemplateType) {
		return ErrInvalidTemplateType
	}
	if err := validateScale(t.RatingScale); err != nil {
		return err
	}
	if err := validateCriterionKeys(t.Criteria); err != nil {
		return err
	}
	if err := validateCriterionScores(t.RatingScale, t.Criteria); err != nil {
		return err
	}
	return ValidateWeights(t.Criteria)
}

func (t Template) weightTotal() float64 {
	var sum float64
	for _, c := range t.Criteria {
		sum += c.Weight
	}
	return sum
}

func (t Template) criterion(key string) (Criterion, bool) {
	for _, c := range t.Criteria {
		if c.Key == key {
			return c, true
		}
	}
	return Criterion{}, false
}

// scoreRatings checks every rating against the template and fills in titles,
// weighted scores and the total when the caller left them out. Weighted
// templates score on a 0..100 basis; unweighted ones total the mean rating.
func scoreRatings(t Template, ratings []Rating, total *float64) ([]Rating, *float64, error) {
	out := make([]Rating, 0, len(ratings))
	seen := make(map[string]struct{}, len(ratings))
	weighted := t.weightTotal() > weightEpsilon

	var sum float64
	for _, r := range ratings {
		c, ok := t.criterion(r.Key)
		if !ok {
			return nil, nil, ErrInvalidRating
		}
		if _, dup := seen[r.Key]; dup {
			return nil, nil, ErrInvalidRating
		}
		seen[r.Key] = struct{}{}

		upper := t.RatingScale.Max
		if c.MaxScore != nil && *c.MaxScore < upper {
			upper = *c.MaxScore
		}
		if r.RatingValue < t.RatingScale.Min || r.RatingValue > upper {
			return nil, nil, ErrInvalidRating
		}
		if r.Title == "" {
			r.Title = c.Title
		}
		if r.WeightedScore != nil && (*r.WeightedScore < 0 || *r.WeightedScore > c.Weight+weightEpsilon) {
			return nil, nil, ErrInvalidRating
		}
		if r.WeightedScore == nil && weighted {
			ws := round2(r.RatingValue / t.RatingScale.Max * c.Weight)
			r.WeightedScore = &ws
		}
		if weighted {
			sum += *r.WeightedScore
		} else {
			sum += r.RatingValue
		}
		out = append(out, r)
	}

	if total != nil {
		if !totalInRange(t, *total, weighted) {
			return nil, nil, ErrInvalidRating
		}
		return out, total, nil
	}
	if len(out) == 0 {
		return out, nil, nil
	}
	computed := sum
	if !weighted {
		computed = sum / float64(len(out))
	}
	computed = round2(computed)
	return out, &computed, nil
}

// totalInRange bounds a caller-supplied total: 0..100 for weighted
// templates, the rating scale otherwise.
func totalInRange(t Template, total float64, weighted bool) bool {
	if weighted {
		return total >= 0 && total <= 100+weightEpsilon
	}
	return total >= t.RatingScale.Min && total <= t.RatingScale.Max
}

func missingRequired(t Template, ratings []Rating) bool {
	rated := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		rated[r.Key] = struct{}{}
	}
	for _, c := range t.Criteria {
		if !c.Required {
			continue
		}
		if _, ok := rated[c.Key]; !ok {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
