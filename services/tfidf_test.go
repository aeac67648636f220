package services

import (
	"math"
	"reflect"
	"testing"
)

const epsilon = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < epsilon }

func TestTokenize(t *testing.T) {
	tests := []struct {
		doc  string
		want []string
	}{
		{"Mumbai", []string{"mumbai"}},
		{"The Flat in Mumbai, 2 BHK!", []string{"flat", "mumbai", "bhk"}},
		{"2 10000 1100 Kolkata 2", []string{"10000", "1100", "kolkata"}},
		{"Super Area", []string{"super", "area"}},
		{"the of and", nil},
		{"", nil},
		{"Bengaluru  Semi-Furnished", []string{"bengaluru", "semi", "furnished"}},
		{"हिन्दी नगर Café", []string{"नगर", "café"}},
	}

	for _, tt := range tests {
		got := Tokenize(tt.doc)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v; want %v", tt.doc, got, tt.want)
		}
	}
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"the", "and", "yourselves", "fire", "bill"} {
		if !IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = false; want true", w)
		}
	}
	for _, w := range []string{"mumbai", "bhk", "furnished"} {
		if IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = true; want false", w)
		}
	}
	if len(englishStopWords) != 318 {
		t.Errorf("stop list size: got %d, want 318", len(englishStopWords))
	}
}

func TestFitTransformVocabularyAndIDF(t *testing.T) {
	space := FitTransform([]string{"mumbai", "mumbai delhi"})

	wantVocab := []string{"delhi", "mumbai"}
	if !reflect.DeepEqual(space.Vocabulary, wantVocab) {
		t.Fatalf("Vocabulary = %v; want %v", space.Vocabulary, wantVocab)
	}

	wantDelhi := math.Log(3.0/2.0) + 1
	if !approx(space.IDF[0], wantDelhi) {
		t.Errorf("idf(delhi) = %f; want %f", space.IDF[0], wantDelhi)
	}
	if !approx(space.IDF[1], 1) {
		t.Errorf("idf(mumbai) = %f; want 1", space.IDF[1])
	}
}

func TestFitTransformVectorsAreUnitLength(t *testing.T) {
	space := FitTransform([]string{"mumbai delhi delhi", "chennai", "the of"})

	for i, v := range space.Vectors[:2] {
		var sum float64
		for _, w := range v.Weights {
			sum += w * w
		}
		if !approx(sum, 1) {
			t.Errorf("vector %d squared norm = %f; want 1", i, sum)
		}
	}
	if !space.Vectors[2].IsZero() {
		t.Errorf("stop-word-only document should be the zero vector, got %+v", space.Vectors[2])
	}
}

func TestCosine(t *testing.T) {
	space := FitTransform([]string{"mumbai", "mumbai", "delhi", "mumbai delhi", ""})
	v := space.Vectors

	tests := []struct {
		name string
		a, b SparseVector
		want float64
	}{
		{"identical documents", v[0], v[1], 1},
		{"disjoint documents", v[0], v[2], 0},
		{"zero vector", v[0], v[4], 0},
		{"zero vector with itself", v[4], v[4], 0},
	}
	for _, tt := range tests {
		if got := Cosine(tt.a, tt.b); !approx(got, tt.want) {
			t.Errorf("%s: Cosine = %f; want %f", tt.name, got, tt.want)
		}
	}

	partial := Cosine(v[0], v[3])
	if partial <= 0 || partial >= 1 {
		t.Errorf("partial overlap: Cosine = %f; want in (0, 1)", partial)
	}
	if !approx(partial, Cosine(v[3], v[0])) {
		t.Errorf("Cosine is not symmetric: %f vs %f", partial, Cosine(v[3], v[0]))
	}
}
