// Package search provides a simple, deterministic, concurrency-safe ranker
// used by the deep-search path of the posts API. It is intentionally small
// and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with optional stop-word removal
//   - A Ranker is immutable after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|. Documents that share no
// vocabulary with the query never appear in the result.
package search

import (
	"sort"
	"strings"
)

// Document is one candidate to be ranked: an opaque identifier plus the text
// it should be matched on.
type Document struct {
	ID   string
	Text string
}

// Match is a ranked document with its similarity score.
type Match struct {
	ID    string
	Score float64
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	minScore  float64
}

func defaultConfig() config {
	return config{
		stopwords: nil,
		minScore:  0,
	}
}

// WithStopwords removes the given words from both query and document token
// sets before scoring. Comparison is case-insensitive.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMinScore drops matches scoring at or below the given floor.
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s >= 0 {
			c.minScore = s
		}
	}
}

// ----------------------------------------------------------------------------
// Ranker

// Ranker scores documents against a query by token-set similarity.
// The zero-cost construction makes it cheap to hold one per service.
type Ranker struct {
	cfg config
}

// NewRanker constructs a Ranker with the given options applied.
func NewRanker(opts ...Option) *Ranker {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Ranker{cfg: cfg}
}

// Rank returns up to k documents ordered by descending Jaccard similarity to
// the query. Ties are broken by ascending ID so the order is stable across
// runs. Documents with zero overlap are omitted; an empty or token-free
// query yields nil.
func (r *Ranker) Rank(query string, docs []Document, k int) []Match {
	if len(docs) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = len(docs)
	}

	qTokens := Tokenize(query, r.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	buf := make([]Match, 0, len(docs))
	for _, d := range docs {
		dTokens := Tokenize(d.Text, r.cfg.stopwords)
		over := overlap(qTokens, dTokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(dTokens) - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= r.cfg.minScore {
			continue
		}
		buf = append(buf, Match{ID: d.ID, Score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].ID < buf[b].ID
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}
