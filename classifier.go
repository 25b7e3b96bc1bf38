// classifier.go: Keyword-based intent classification for free-text queries
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// DefaultMaxPlugins bounds query dispatch when the caller passes no limit.
const DefaultMaxPlugins = 3

// Candidate is one classifier result: a plugin name with the normalized
// confidence of its keyword match and the keywords that matched.
type Candidate struct {
	Plugin     string   `json:"plugin"`
	Confidence float64  `json:"confidence"`
	Matched    []string `json:"matched,omitempty"`
}

// defaultLexicon maps intent tags to the keywords and phrases that signal
// them. English entries match whole query tokens; entries in scripts without
// word boundaries (Thai) and multi-word phrases match by substring.
var defaultLexicon = map[string][]string{
	"temple":       {"temple", "wat", "shrine", "buddha", "monastery", "วัด", "พระ"},
	"news":         {"news", "headline", "headlines", "event", "events", "today", "ข่าว", "เหตุการณ์"},
	"reviews":      {"review", "reviews", "rating", "ratings", "attraction", "restaurant", "hotel", "รีวิว"},
	"maps":         {"map", "maps", "directions", "route", "nearby", "distance", "แผนที่", "เส้นทาง"},
	"culture":      {"culture", "cultural", "history", "heritage", "museum", "festival", "ประเพณี", "วัฒนธรรม"},
	"weather":      {"weather", "forecast", "rain", "temperature", "อากาศ", "ฝน"},
	"encyclopedia": {"wikipedia", "who", "what", "history of", "facts"},
}

// IntentClassifier maps a free-text query (plus a language hint) to an
// ordered list of candidate plugin names, highest confidence first.
//
// Matching is keyword/phrase based against each plugin's declared intents
// combined with a per-intent lexicon; there is no model behind it. The
// result is deterministic for identical input: candidates are ordered by
// confidence, ties broken by registry declaration order. A query matching
// nothing yields an empty slice — "no plugin applicable", not an error.
//
// Only selectable plugins (enabled, not disabled) are ever returned, and a
// concurrent Disable takes effect immediately for new classifications.
type IntentClassifier struct {
	registry *Registry

	mu      sync.RWMutex
	lexicon map[string][]string
}

// NewIntentClassifier creates a classifier over the given registry with the
// built-in lexicon.
func NewIntentClassifier(registry *Registry) *IntentClassifier {
	lexicon := make(map[string][]string, len(defaultLexicon))
	for intent, words := range defaultLexicon {
		lexicon[intent] = append([]string(nil), words...)
	}
	return &IntentClassifier{
		registry: registry,
		lexicon:  lexicon,
	}
}

// AddKeywords extends the lexicon for an intent tag. Deployments register
// their domain vocabulary here when the built-in lexicon is not enough.
func (ic *IntentClassifier) AddKeywords(intent string, keywords ...string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.lexicon[intent] = append(ic.lexicon[intent], keywords...)
}

// tokenize lowercases the query and splits it on anything that is not a
// letter or digit.
func tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// keywordMatches reports whether a lexicon keyword is present in the query.
// Single ASCII words must match a whole token; phrases and non-ASCII
// keywords (Thai script carries no spaces between words) match by substring.
func keywordMatches(keyword, lowerQuery string, tokens map[string]struct{}) bool {
	if strings.ContainsRune(keyword, ' ') || !isASCII(keyword) {
		return strings.Contains(lowerQuery, keyword)
	}
	_, ok := tokens[keyword]
	return ok
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Classify returns up to maxPlugins candidates for the query, ordered by
// confidence descending. The language hint is advisory; matching itself is
// lexicon-driven so mixed-language queries still resolve. maxPlugins <= 0
// falls back to DefaultMaxPlugins.
//
// Confidence is the count of distinct matched keywords over the query's
// token count, capped at 1. The exact formula is an implementation detail;
// ordering is monotonic in match strength.
func (ic *IntentClassifier) Classify(query, language string, maxPlugins int) []Candidate {
	if maxPlugins <= 0 {
		maxPlugins = DefaultMaxPlugins
	}

	lowerQuery := strings.ToLower(query)
	tokenList := tokenize(query)
	if len(tokenList) == 0 {
		return nil
	}
	tokens := make(map[string]struct{}, len(tokenList))
	for _, tok := range tokenList {
		tokens[tok] = struct{}{}
	}

	ic.mu.RLock()
	defer ic.mu.RUnlock()

	var candidates []Candidate
	for _, instance := range ic.registry.Snapshot() {
		if !instance.Selectable() {
			continue
		}

		matched := ic.matchPlugin(instance.Config(), lowerQuery, tokens)
		if len(matched) == 0 {
			continue
		}

		confidence := float64(len(matched)) / float64(len(tokenList))
		if confidence > 1 {
			confidence = 1
		}
		candidates = append(candidates, Candidate{
			Plugin:     instance.Name(),
			Confidence: confidence,
			Matched:    matched,
		})
	}

	// Stable sort keeps registry declaration order for equal confidence.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if len(candidates) > maxPlugins {
		candidates = candidates[:maxPlugins]
	}
	return candidates
}

// matchPlugin collects the distinct keywords from the plugin's intents (the
// intent tags themselves count as keywords) that appear in the query.
func (ic *IntentClassifier) matchPlugin(cfg PluginConfig, lowerQuery string, tokens map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var matched []string

	consider := func(keyword string) {
		keyword = strings.ToLower(keyword)
		if keyword == "" {
			return
		}
		if _, dup := seen[keyword]; dup {
			return
		}
		if keywordMatches(keyword, lowerQuery, tokens) {
			seen[keyword] = struct{}{}
			matched = append(matched, keyword)
		}
	}

	for _, intent := range cfg.Intents {
		consider(intent)
		for _, keyword := range ic.lexicon[strings.ToLower(intent)] {
			consider(keyword)
		}
	}

	sort.Strings(matched)
	return matched
}
