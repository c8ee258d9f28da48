package curation

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/provider"
)

func TestDedupePrefersHigherPriorityOverRecency(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	telegrafi := article("Qeveria aprovon buxhetin", provider.Telegrafi, 0, "https://telegrafi.com/a")
	insajderi := article("Qeveria miraton buxhetin", provider.Insajderi, 15, "https://insajderi.org/a")

	for _, input := range [][]domain.Article{
		{telegrafi, insajderi},
		{insajderi, telegrafi},
	} {
		out, err := engine.Dedupe(input, DefaultThreshold)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, telegrafi.URL, out[0].URL)
	}
}

func TestDedupeEqualPriorityPrefersLaterArticle(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	older := article("Qeveria aprovon buxhetin", provider.Koha, 0, "https://koha.net/old")
	newer := article("Qeveria miraton buxhetin", provider.Koha, 30, "https://koha.net/new")

	for _, input := range [][]domain.Article{
		{older, newer},
		{newer, older},
	} {
		out, err := engine.Dedupe(input, DefaultThreshold)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, newer.URL, out[0].URL)
	}
}

func TestDedupeUnknownProviderRanksBelowKnown(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	known := article("Qeveria aprovon buxhetin", provider.BotaSot, 0, "https://botasot.info/a")
	unknown := article("Qeveria miraton buxhetin", "portali-i-ri", 60, "https://portali.example/a")

	out, err := engine.Dedupe([]domain.Article{unknown, known}, DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, known.URL, out[0].URL)
}

func TestDedupeSurvivorTakesFirstPosition(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	input := []domain.Article{
		article("Qeveria miraton buxhetin", provider.Insajderi, 0, "https://insajderi.org/a"),
		article(headlines[0], provider.Koha, 5, "https://koha.net/x"),
		article("Qeveria aprovon buxhetin", provider.Telegrafi, 10, "https://telegrafi.com/a"),
	}

	out, err := engine.Dedupe(input, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://telegrafi.com/a", "https://koha.net/x"}, urls(out))
}

func TestDedupeDropsMalformedRows(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	input := []domain.Article{
		{Title: "", URL: "https://a", Source: provider.Koha, CreatedAt: baseTime},
		{Title: headlines[1], URL: "https://b", Source: "", CreatedAt: baseTime},
		{Title: headlines[2], URL: "https://c", Source: provider.Koha},
		article(headlines[3], provider.Koha, 0, "https://d"),
	}

	out, err := engine.Dedupe(input, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://d"}, urls(out))
}

func TestDedupeRejectsOutOfRangeThreshold(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	for _, threshold := range []float64{-0.01, 1.01, math.NaN()} {
		_, err := engine.Dedupe(mixedPool(), threshold)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	}
}

func TestDedupeMixedPool(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	pool := mixedPool()

	out, err := engine.Dedupe(pool, DefaultThreshold)
	require.NoError(t, err)
	assert.Len(t, out, len(pool)-3)

	got := make(map[string]bool)
	for _, a := range out {
		got[a.URL] = true
	}
	assert.True(t, got["https://telegrafi.com/buxheti"])
	assert.False(t, got["https://insajderi.org/buxheti"])
	assert.True(t, got["https://koha.net/termet"], "koha outranks nacionale")
	assert.False(t, got["https://example.com/4"])
	assert.True(t, got["https://example.com/14"], "koha outranks nacionale")
	assert.False(t, got["https://nacionale.com/ligji"])
}

func TestDedupeProperties(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	pool := mixedPool()
	inputURLs := make(map[string]bool, len(pool))
	for _, a := range pool {
		inputURLs[a.URL] = true
	}

	thresholds := []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1}
	prevLen := 0
	for _, threshold := range thresholds {
		once, err := engine.Dedupe(pool, threshold)
		require.NoError(t, err)

		twice, err := engine.Dedupe(once, threshold)
		require.NoError(t, err)
		assert.Equal(t, urls(once), urls(twice), "idempotent at %v", threshold)

		assert.GreaterOrEqual(t, len(once), prevLen, "monotone at %v", threshold)
		prevLen = len(once)

		for _, a := range once {
			assert.True(t, inputURLs[a.URL], "fabricated %s", a.URL)
		}

		for i := range once {
			for j := i + 1; j < len(once); j++ {
				assert.False(t, Similar(once[i].Title, once[j].Title, threshold),
					"survivors %q and %q collide at %v", once[i].Title, once[j].Title, threshold)
			}
		}
	}
}

func TestDedupeRandomPoolsProperties(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	r := rand.New(rand.NewPCG(7, 2025))

	for trial := range 500 {
		pool := randomPool(r)
		prevLen := 0
		for _, threshold := range []float64{0.75, 0.8, 0.85, 0.9, 0.95} {
			once, err := engine.Dedupe(pool, threshold)
			require.NoError(t, err)

			twice, err := engine.Dedupe(once, threshold)
			require.NoError(t, err)
			require.Equal(t, urls(once), urls(twice), "trial %d: idempotent at %v", trial, threshold)

			require.GreaterOrEqual(t, len(once), prevLen, "trial %d: monotone at %v", trial, threshold)
			prevLen = len(once)

			for i := range once {
				for j := i + 1; j < len(once); j++ {
					require.False(t, Similar(once[i].Title, once[j].Title, threshold),
						"trial %d: %q and %q collide at %v", trial, once[i].Title, once[j].Title, threshold)
				}
			}
		}
	}
}

func TestDedupeGroupsChainedTitles(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	pool := []domain.Article{
		article("aacdabcdabcd", provider.Nacionale, 0, "https://nacionale.com/1"),
		article("abcdaaccabcd", provider.Koha, 0, "https://koha.net/2"),
		article("abcdaccacbcc", provider.Telegrafi, 0, "https://telegrafi.com/3"),
		article("dbcdabcdabcd", provider.Insajderi, 0, "https://insajderi.org/4"),
		article("abcdabcdaccd", provider.GazetaExpress, 0, "https://gazetaexpress.com/5"),
	}

	prevLen := 0
	for step := range 11 {
		threshold := 0.85 + float64(step)/100
		out, err := engine.Dedupe(pool, threshold)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(out), prevLen, "threshold %v", threshold)
		prevLen = len(out)
	}
	assert.Equal(t, len(pool), prevLen)
}

func TestDedupeWithMemoIsUnobservable(t *testing.T) {
	t.Parallel()

	memo, err := NewMemo(16)
	require.NoError(t, err)

	plain := NewEngine(nil)
	cached := NewEngine(nil, WithMemo(memo))

	for _, threshold := range []float64{0.6, 0.85} {
		want, err := plain.Dedupe(mixedPool(), threshold)
		require.NoError(t, err)
		for range 3 {
			got, err := cached.Dedupe(mixedPool(), threshold)
			require.NoError(t, err)
			assert.Equal(t, urls(want), urls(got))
		}
	}

	other := uniquePool(sixProviders[:2], 2)
	want, err := plain.Dedupe(other, DefaultThreshold)
	require.NoError(t, err)
	got, err := cached.Dedupe(other, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, urls(want), urls(got))
}

func TestBetter(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	hi := article("x", provider.Telegrafi, 0, "https://a")
	lo := article("x", provider.Koha, 60, "https://b")
	assert.True(t, engine.Better(hi, lo))
	assert.False(t, engine.Better(lo, hi))

	same := lo
	same.URL = "https://c"
	same.CreatedAt = lo.CreatedAt.Add(time.Minute)
	assert.True(t, engine.Better(same, lo))
	assert.False(t, engine.Better(lo, lo))
}
