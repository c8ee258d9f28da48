package curation

import (
	"fmt"
	"math/rand/v2"
	"time"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/provider"
)

var baseTime = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

// headlines are pairwise dissimilar (Jaro-Winkler below 0.75).
var headlines = []string{
	"Reshjet e borës bllokojnë rrugët në veri",
	"Çmimet e naftës rriten sërish në pompa",
	"Policia arreston dy persona për kontrabandë",
	"Ndeshja Kosovë - Rumani përfundon baras",
	"Tërmet me magnitudë 4.2 në jug të Shqipërisë",
	"Universiteti hap konkursin për bursat",
	"Spitali rajonal merr pajisje të reja",
	"Festivali i filmit nis këtë fundjavë",
	"Eksportet e verës shënojnë rekord",
	"Ministri paralajmëron masa për trafikun",
	"Zjarri përfshin një pyll afër Pejës",
	"Banka qendrore mban normën e interesit",
	"Greva e mësuesve hyn në ditën e tretë",
	"Aeroporti regjistron numër rekord udhëtarësh",
	"Kuvendi miraton ligjin për energjinë",
	"Studentët protestojnë para rektoratit",
	"Ujësjellësi njofton ndërprerje të ujit",
	"Turistët e huaj mbushin bregdetin",
	"Fermerët kërkojnë subvencione më të larta",
	"Koncert bamirësie për fëmijët në nevojë",
	"Ekipi kombëtar fiton ndaj Andorrës",
	"Gjykata shtyn seancën për rastin e tenderit",
	"Ndotja e ajrit arrin nivele alarmante",
	"Kompania teknologjike hap zyra në Tiranë",
}

var sixProviders = []string{
	provider.Telegrafi,
	provider.GazetaExpress,
	provider.Koha,
	provider.IndeksOnline,
	provider.Nacionale,
	provider.Insajderi,
}

func article(title, source string, minutes int, url string) domain.Article {
	return domain.Article{
		Title:     title,
		URL:       url,
		Source:    source,
		CreatedAt: baseTime.Add(time.Duration(minutes) * time.Minute),
	}
}

// mixedPool spreads the headlines over six providers and adds three stories
// covered twice by different outlets.
func mixedPool() []domain.Article {
	pool := make([]domain.Article, 0, len(headlines)+4)
	for i, h := range headlines {
		pool = append(pool, article(h, sixProviders[i%len(sixProviders)], i*10, fmt.Sprintf("https://example.com/%d", i)))
	}
	return append(pool,
		article("Qeveria aprovon buxhetin", provider.Telegrafi, 300, "https://telegrafi.com/buxheti"),
		article("Qeveria miraton buxhetin", provider.Insajderi, 315, "https://insajderi.org/buxheti"),
		article("Tërmet me magnitudë 4.2 në jug të vendit", provider.Koha, 320, "https://koha.net/termet"),
		article("Kuvendi miratoi ligjin për energjinë", provider.Nacionale, 330, "https://nacionale.com/ligji"),
	)
}

// uniquePool returns perProvider distinct stories for each given provider.
func uniquePool(providers []string, perProvider int) []domain.Article {
	var pool []domain.Article
	n := 0
	for _, src := range providers {
		for k := 0; k < perProvider; k++ {
			pool = append(pool, article(headlines[n], src, n, fmt.Sprintf("https://%s/%d", src, k)))
			n++
		}
	}
	return pool
}

// randomPool builds 8 to 17 articles whose titles are mutations of three
// short random stems, so many pairs score close to the usual thresholds.
func randomPool(r *rand.Rand) []domain.Article {
	const alphabet = "abcd"
	word := func() []byte {
		b := make([]byte, 12)
		for i := range b {
			b[i] = alphabet[r.IntN(len(alphabet))]
		}
		return b
	}
	stems := [][]byte{word(), word(), word()}
	sources := append(append([]string(nil), sixProviders...), provider.Lajmi, "portali-i-ri")

	n := 8 + r.IntN(10)
	pool := make([]domain.Article, n)
	for k := range pool {
		title := append([]byte(nil), stems[r.IntN(len(stems))]...)
		for range r.IntN(5) {
			title[r.IntN(len(title))] = alphabet[r.IntN(len(alphabet))]
		}
		pool[k] = article(string(title), sources[r.IntN(len(sources))], r.IntN(51), fmt.Sprintf("https://example.com/r/%d", k))
	}
	return pool
}

func urls(items []domain.Article) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.URL
	}
	return out
}

func countBySource(items []domain.Article) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		out[it.Source]++
	}
	return out
}
