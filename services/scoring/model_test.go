package scoring

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}
	return path
}

func TestLoadLinearModel(t *testing.T) {
	path := writeModel(t, `{"columns":["rating_encoded","genre_Action"],"weights":[0.1,0.5],"intercept":3.0}`)

	model, err := LoadLinearModel(path)
	if err != nil {
		t.Fatalf("LoadLinearModel failed: %v", err)
	}
	if len(model.Columns) != 2 || model.Intercept != 3.0 {
		t.Fatalf("unexpected model: %+v", model)
	}
}

func TestLoadLinearModelRejectsMismatch(t *testing.T) {
	path := writeModel(t, `{"columns":["a","b"],"weights":[1.0],"intercept":0}`)
	if _, err := LoadLinearModel(path); !errors.Is(err, ErrModelInvalid) {
		t.Fatalf("expected ErrModelInvalid, got %v", err)
	}
}

func TestLoadLinearModelMissingFile(t *testing.T) {
	if _, err := LoadLinearModel(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestScoreFeaturization(t *testing.T) {
	model := &LinearModel{
		Columns:   []string{"rating_encoded", "context_Alone", "context_Friends", "genre_Action", "genre_Comedy"},
		Weights:   []float64{-0.2, 0.5, -0.3, 0.8, 0.4},
		Intercept: 3.0,
	}

	tests := []struct {
		name     string
		genres   []string
		cert     string
		context  string
		expected float64
	}{
		{
			name:     "action alone",
			genres:   []string{"Action"},
			cert:     "R",
			context:  "alone",
			expected: 3.0 + (-0.2)*3 + 0.5 + 0.8,
		},
		{
			name:     "comedy with friends",
			genres:   []string{"Comedy"},
			cert:     "PG-13",
			context:  "with friends",
			expected: 3.0 + (-0.2)*2 + (-0.3) + 0.4,
		},
		{
			name:     "unknown certification defaults to middle",
			genres:   nil,
			cert:     "Approved",
			context:  "",
			expected: 3.0 + (-0.2)*2,
		},
		{
			name:     "unseen genre contributes nothing",
			genres:   []string{"Western"},
			cert:     "G",
			context:  "",
			expected: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.Score(tt.genres, tt.cert, tt.context, "")
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScoreClamped(t *testing.T) {
	high := &LinearModel{Columns: []string{"genre_Action"}, Weights: []float64{10}, Intercept: 3}
	if got := high.Score([]string{"Action"}, "NR", "", ""); got != 5 {
		t.Fatalf("expected clamp to 5, got %v", got)
	}

	low := &LinearModel{Columns: []string{"genre_Action"}, Weights: []float64{-10}, Intercept: 3}
	if got := low.Score([]string{"Action"}, "NR", "", ""); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
}

func TestCategorizeContext(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"alone", "Alone"},
		{"Watching ALONE tonight", "Alone"},
		{"with friends", "Friends"},
		{"my parents", "Family"},
		{"sibling visit", "Family"},
		{"date night", "Partner"},
		{"with my wife", "Partner"},
		{"the whole office", "Other"},
		{"", "Unknown"},
		{"   ", "Unknown"},
	}
	for _, tt := range tests {
		if got := categorizeContext(tt.input); got != tt.expected {
			t.Errorf("categorizeContext(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
