package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Telegrafi":                  Telegrafi,
		"telegrafi":                  Telegrafi,
		" TELEGRAFI ":                Telegrafi,
		"https://www.telegrafi.com/": Telegrafi,
		"gazeta-express":             GazetaExpress,
		"Gazeta Express":             GazetaExpress,
		"gazetaexpress.com":          GazetaExpress,
		"Koha.net":                   Koha,
		"Lajmi.net":                  Lajmi,
		"Bota Sot":                   BotaSot,
		"Radio Evropa e Lirë":        "radio-evropa-e-lirë",
		"":                           "",
	}

	for raw, want := range cases {
		assert.Equal(t, want, Canonical(raw), "raw=%q", raw)
	}
}

func TestTablePriority(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	assert.Greater(t, table.Priority(Telegrafi), table.Priority(Insajderi))
	assert.Greater(t, table.Priority(GazetaExpress), table.Priority(Koha))
	assert.Equal(t, 0, table.Priority("unknown-source"))
	assert.Less(t, table.Priority("unknown-source"), table.Priority(BotaSot))

	boosted := table.WithDefaultPriority(100)
	assert.Equal(t, 100, boosted.Priority("unknown-source"))
	assert.Equal(t, 0, table.Priority("unknown-source"), "base table must not change")
}

func TestTableEntriesOrdered(t *testing.T) {
	t.Parallel()

	entries := DefaultTable().Entries()
	if assert.Len(t, entries, 10) {
		assert.Equal(t, Telegrafi, entries[0].ID)
		assert.Equal(t, BotaSot, entries[len(entries)-1].ID)
	}
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Priority, entries[i].Priority)
	}
}

func TestAliasesFoldToID(t *testing.T) {
	t.Parallel()

	for _, alias := range Aliases(GazetaExpress) {
		assert.Equal(t, GazetaExpress, Canonical(alias), "alias=%q", alias)
	}
	assert.Equal(t, []string{"nobody"}, Aliases("nobody"))
}

func TestSpellingsAreLowercased(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"telegrafi", "telegrafi.com"}, Spellings(Telegrafi))
	assert.Equal(t, []string{"gazeta-express", "gazeta express", "gazetaexpress", "express", "gazetaexpress.com"}, Spellings(GazetaExpress))
	assert.Equal(t, []string{"top-channel", "top channel"}, Spellings(Canonical("Top Channel")))
	assert.Equal(t, []string{"nobody"}, Spellings("nobody"))
}

func TestTableName(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	assert.Equal(t, "Gazeta Express", table.Name(GazetaExpress))
	assert.Equal(t, "portali-i-ri", table.Name("portali-i-ri"))
}
