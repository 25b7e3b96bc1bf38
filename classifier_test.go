// classifier_test.go: Tests for keyword-based intent classification
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifierFixture(t *testing.T) (*Registry, *IntentClassifier) {
	t.Helper()
	reg := newTestRegistry()

	require.NoError(t, reg.Register(testPluginConfig("thai_news", "news"), staticConnector(`{}`)))
	require.NoError(t, reg.Register(testPluginConfig("cultural_sites", "temple", "culture"), staticConnector(`{}`)))
	require.NoError(t, reg.Register(testPluginConfig("weather_now", "weather"), staticConnector(`{}`)))
	require.NoError(t, reg.Register(testPluginConfig("attraction_reviews", "reviews"), staticConnector(`{}`)))

	return reg, NewIntentClassifier(reg)
}

func TestClassifier_EnglishTempleQuery(t *testing.T) {
	_, ic := classifierFixture(t)

	candidates := ic.Classify("What are the opening hours of Wat Phra Kaew?", "en", 3)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "cultural_sites", candidates[0].Plugin,
		"'wat' must route to the temple plugin")
	assert.Contains(t, candidates[0].Matched, "wat")
}

func TestClassifier_ThaiQuery(t *testing.T) {
	_, ic := classifierFixture(t)

	candidates := ic.Classify("ข่าววันนี้", "th", 3)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "thai_news", candidates[0].Plugin,
		"Thai news keyword must match by substring")
}

func TestClassifier_NoMatch(t *testing.T) {
	_, ic := classifierFixture(t)

	assert.Empty(t, ic.Classify("quantum chromodynamics lattice simulations", "en", 3))
	assert.Empty(t, ic.Classify("", "en", 3))
	assert.Empty(t, ic.Classify("   ", "en", 3))
}

func TestClassifier_MaxPluginsBound(t *testing.T) {
	_, ic := classifierFixture(t)

	// A query touching news, temple, weather, and reviews vocabulary.
	query := "news about the temple, weather forecast, and restaurant reviews"

	candidates := ic.Classify(query, "en", 2)
	assert.LessOrEqual(t, len(candidates), 2)

	all := ic.Classify(query, "en", 10)
	assert.Greater(t, len(all), 2, "the bound, not the matching, limited the result")
}

func TestClassifier_DefaultMaxPlugins(t *testing.T) {
	_, ic := classifierFixture(t)

	query := "news about the temple, weather forecast, and restaurant reviews"
	candidates := ic.Classify(query, "en", 0)
	assert.LessOrEqual(t, len(candidates), DefaultMaxPlugins)
}

func TestClassifier_ExcludesUnselectablePlugins(t *testing.T) {
	reg, ic := classifierFixture(t)

	before := ic.Classify("temple opening hours", "en", 3)
	require.NotEmpty(t, before)
	require.Equal(t, "cultural_sites", before[0].Plugin)

	require.NoError(t, reg.Disable("cultural_sites"))

	after := ic.Classify("temple opening hours", "en", 3)
	for _, cand := range after {
		assert.NotEqual(t, "cultural_sites", cand.Plugin,
			"disabled plugins must never be selected")
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	_, ic := classifierFixture(t)

	query := "temple news today"
	first := ic.Classify(query, "en", 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ic.Classify(query, "en", 3),
			"identical input must produce identical output")
	}
}

func TestClassifier_ConfidenceOrdering(t *testing.T) {
	_, ic := classifierFixture(t)

	candidates := ic.Classify("temple shrine buddha monastery visit", "en", 4)
	require.NotEmpty(t, candidates)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}
	assert.LessOrEqual(t, candidates[0].Confidence, 1.0)
}

func TestClassifier_AddKeywords(t *testing.T) {
	_, ic := classifierFixture(t)

	require.Empty(t, ic.Classify("chedi luang", "en", 3))

	ic.AddKeywords("temple", "chedi")

	candidates := ic.Classify("chedi luang", "en", 3)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "cultural_sites", candidates[0].Plugin)
}

func TestClassifier_IntentTagItselfMatches(t *testing.T) {
	_, ic := classifierFixture(t)

	candidates := ic.Classify("latest weather please", "en", 3)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "weather_now", candidates[0].Plugin)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "s", "the", "weather"}, tokenize("What's the weather?"))
	assert.Empty(t, tokenize("!!! ... ???"))
}
