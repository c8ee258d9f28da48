// Package provider holds the canonical news-source identifiers and the
// priority table used to break ties between near-duplicate stories.
package provider

import (
	"sort"
	"strings"
	"unicode"
)

// Canonical provider identifiers.
const (
	Telegrafi     = "telegrafi"
	GazetaExpress = "gazeta-express"
	Koha          = "koha"
	IndeksOnline  = "indeksonline"
	Nacionale     = "nacionale"
	Insajderi     = "insajderi"
	Periskopi     = "periskopi"
	Kallxo        = "kallxo"
	Lajmi         = "lajmi"
	BotaSot       = "botasot"
)

// Entry is one row of the ranking table.
type Entry struct {
	ID       string
	Name     string
	Priority int
}

// known lists the providers in descending priority with every spelling that
// has been seen for them in stored rows.
var known = []struct {
	entry   Entry
	aliases []string
}{
	{Entry{Telegrafi, "Telegrafi", 10}, []string{"Telegrafi", "telegrafi.com"}},
	{Entry{GazetaExpress, "Gazeta Express", 9}, []string{"Gazeta Express", "GazetaExpress", "Express", "gazetaexpress.com"}},
	{Entry{Koha, "Koha", 8}, []string{"Koha", "Koha.net", "koha.net"}},
	{Entry{IndeksOnline, "IndeksOnline", 7}, []string{"IndeksOnline", "Indeks Online", "indeksonline.net"}},
	{Entry{Nacionale, "Nacionale", 6}, []string{"Nacionale", "nacionale.com"}},
	{Entry{Insajderi, "Insajderi", 5}, []string{"Insajderi", "insajderi.org", "insajderi.com"}},
	{Entry{Periskopi, "Periskopi", 4}, []string{"Periskopi", "periskopi.com"}},
	{Entry{Kallxo, "Kallxo", 3}, []string{"Kallxo", "Kallxo.com", "kallxo.com"}},
	{Entry{Lajmi, "Lajmi.net", 2}, []string{"Lajmi", "Lajmi.net", "lajmi.net"}},
	{Entry{BotaSot, "Bota Sot", 1}, []string{"Bota Sot", "BotaSot", "botasot.info"}},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]string {
	idx := make(map[string]string)
	for _, k := range known {
		idx[fold(k.entry.ID)] = k.entry.ID
		for _, a := range k.aliases {
			idx[fold(a)] = k.entry.ID
		}
	}
	return idx
}

// Canonical maps any raw provider spelling (display name, host name or slug)
// to its canonical identifier. Unknown spellings are slugified so that every
// variant of the same unknown source still collapses to one identifier.
func Canonical(raw string) string {
	key := fold(raw)
	if key == "" {
		return ""
	}
	if id, ok := aliasIndex[key]; ok {
		return id
	}
	return slugify(raw)
}

// fold produces the lookup key for aliases: lowercase, "www." and common TLDs
// stripped, separators removed.
func fold(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, "/")
	for _, tld := range []string{".com", ".net", ".org", ".info"} {
		s = strings.TrimSuffix(s, tld)
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func slugify(raw string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Table maps canonical identifiers to priorities. Higher wins.
type Table struct {
	priorities      map[string]int
	names           map[string]string
	DefaultPriority int
}

// DefaultTable returns the built-in ranking. Unknown providers get priority 0
// and therefore rank below every known source.
func DefaultTable() *Table {
	t := &Table{
		priorities: make(map[string]int, len(known)),
		names:      make(map[string]string, len(known)),
	}
	for _, k := range known {
		t.priorities[k.entry.ID] = k.entry.Priority
		t.names[k.entry.ID] = k.entry.Name
	}
	return t
}

// WithDefaultPriority returns a copy of the table using p for unknown providers.
func (t *Table) WithDefaultPriority(p int) *Table {
	cp := &Table{
		priorities:      t.priorities,
		names:           t.names,
		DefaultPriority: p,
	}
	return cp
}

// Priority returns the rank of a canonical identifier.
func (t *Table) Priority(id string) int {
	if p, ok := t.priorities[id]; ok {
		return p
	}
	return t.DefaultPriority
}

// Name returns the display name of id, or id itself when unknown.
func (t *Table) Name(id string) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return id
}

// Known reports whether id is a ranked provider.
func (t *Table) Known(id string) bool {
	_, ok := t.priorities[id]
	return ok
}

// Entries lists the table in descending priority.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.priorities))
	for id, p := range t.priorities {
		out = append(out, Entry{ID: id, Name: t.names[id], Priority: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Aliases returns every raw spelling that folds to id, including id itself.
// Stores use it to match legacy rows written before canonicalisation.
func Aliases(id string) []string {
	out := []string{id}
	for _, k := range known {
		if k.entry.ID != id {
			continue
		}
		out = append(out, k.aliases...)
	}
	return out
}

// Spellings returns the lowercased forms a stored source column may hold for
// id. Unknown ids also match their slug written with spaces, so a filter for
// "top-channel" finds legacy rows stored as "Top Channel".
func Spellings(id string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, a := range Aliases(id) {
		add(a)
	}
	add(strings.ReplaceAll(id, "-", " "))
	return out
}
