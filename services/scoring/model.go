package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Scorer predicts how well a movie fits the user on a 1-5 scale.
// Feature encoding is entirely the implementation's concern; callers
// just hand over the raw attributes.
type Scorer interface {
	Score(genres []string, certification, contextLabel, overview string) float64
}

var ErrModelInvalid = errors.New("scoring model invalid")

// certificationOrdinal maps content ratings onto the ordinal scale the
// model was trained with. Unseen ratings land in the middle.
var certificationOrdinal = map[string]float64{
	"G":       0,
	"TV-G":    0,
	"PG":      1,
	"TV-PG":   1,
	"PG-13":   2,
	"TV-14":   2,
	"R":       3,
	"TV-MA":   3,
	"NC-17":   4,
	"NR":      2,
	"Unknown": 2,
}

// LinearModel scores movies with a trained linear regression: a dot
// product over named feature columns plus an intercept.
type LinearModel struct {
	Columns   []string  `json:"columns"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// LoadLinearModel reads model coefficients exported to JSON.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var model LinearModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvalid, err)
	}
	if len(model.Columns) == 0 {
		return nil, fmt.Errorf("%w: no feature columns", ErrModelInvalid)
	}
	if len(model.Columns) != len(model.Weights) {
		return nil, fmt.Errorf("%w: %d columns but %d weights", ErrModelInvalid, len(model.Columns), len(model.Weights))
	}
	return &model, nil
}

// Score featurizes the movie exactly the way training did and returns
// the prediction clamped to the 1-5 rating scale. Feature columns the
// movie does not activate contribute zero. The overview is accepted for
// interface compatibility; a linear export carries no text features.
func (m *LinearModel) Score(genres []string, certification, contextLabel, _ string) float64 {
	features := make(map[string]float64, len(genres)+2)

	ordinal, ok := certificationOrdinal[certification]
	if !ok {
		ordinal = 2
	}
	features["rating_encoded"] = ordinal

	features["context_"+categorizeContext(contextLabel)] = 1
	for _, genre := range genres {
		features["genre_"+genre] = 1
	}

	score := m.Intercept
	for i, column := range m.Columns {
		score += m.Weights[i] * features[column]
	}

	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

// categorizeContext folds free-form viewing-company descriptions into
// the broad labels the model knows.
func categorizeContext(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	switch {
	case text == "":
		return "Unknown"
	case strings.Contains(text, "alone"):
		return "Alone"
	case strings.Contains(text, "friend"):
		return "Friends"
	case strings.Contains(text, "family"), strings.Contains(text, "parent"), strings.Contains(text, "sibling"):
		return "Family"
	case strings.Contains(text, "partner"), strings.Contains(text, "date"), strings.Contains(text, "wife"), strings.Contains(text, "husband"):
		return "Partner"
	default:
		return "Other"
	}
}
