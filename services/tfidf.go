package services

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenRegexp matches runs of two or more letters, digits or underscores.
// Single-character tokens never enter the vocabulary. Combining marks
// (Mn, Mc) are not word characters, so they split a run.
var tokenRegexp = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// SparseVector is an L2-normalised term-weight vector. Terms are vocabulary
// indices in ascending order, so every operation over it is deterministic.
type SparseVector struct {
	Terms   []int
	Weights []float64
}

// IsZero reports whether the vector has no weighted terms.
func (v SparseVector) IsZero() bool { return len(v.Terms) == 0 }

// TermSpace is a TF-IDF space fitted over one corpus. It is rebuilt from
// scratch for every corpus and never shared between calls.
type TermSpace struct {
	Vocabulary []string
	IDF        []float64
	Vectors    []SparseVector
}

// Tokenize lower-cases doc, splits it into word tokens and drops stop words.
func Tokenize(doc string) []string {
	raw := tokenRegexp.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if IsStopWord(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// FitTransform builds the vocabulary and smoothed IDF weights of docs and
// returns one normalised vector per document, in input order.
//
//	tf(t, d)  = count of t in d
//	idf(t)    = ln((1 + n) / (1 + df(t))) + 1
//	v(d)      = tf * idf, scaled to unit length
//
// A document whose tokens are all stop words becomes the zero vector.
func FitTransform(docs []string) *TermSpace {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tokens := Tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)

	index := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(docs))
	for i, t := range vocab {
		index[t] = i
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	space := &TermSpace{
		Vocabulary: vocab,
		IDF:        idf,
		Vectors:    make([]SparseVector, len(docs)),
	}
	for i, tokens := range tokenized {
		space.Vectors[i] = weigh(tokens, index, idf)
	}
	return space
}

func weigh(tokens []string, index map[string]int, idf []float64) SparseVector {
	if len(tokens) == 0 {
		return SparseVector{}
	}

	counts := make(map[int]int, len(tokens))
	for _, t := range tokens {
		counts[index[t]]++
	}

	terms := make([]int, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Ints(terms)

	weights := make([]float64, len(terms))
	var sum float64
	for i, term := range terms {
		w := float64(counts[term]) * idf[term]
		weights[i] = w
		sum += w * w
	}
	if sum > 0 {
		norm := math.Sqrt(sum)
		for i := range weights {
			weights[i] /= norm
		}
	}
	return SparseVector{Terms: terms, Weights: weights}
}

// Cosine returns the cosine similarity of two normalised vectors, in [0, 1].
// A zero vector is dissimilar to everything, itself included.
func Cosine(a, b SparseVector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}

	var dot float64
	i, j := 0, 0
	for i < len(a.Terms) && j < len(b.Terms) {
		switch {
		case a.Terms[i] == b.Terms[j]:
			dot += a.Weights[i] * b.Weights[j]
			i++
			j++
		case a.Terms[i] < b.Terms[j]:
			i++
		default:
			j++
		}
	}

	// Rounding can push identical vectors a hair past 1.
	if dot > 1 {
		return 1
	}
	return dot
}
