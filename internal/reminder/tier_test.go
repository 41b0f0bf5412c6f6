package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTiers(t *testing.T) {
	tiers, err := ParseTiers("1h@15m,24h@1h")
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	// Ordered by descending lookahead regardless of input order.
	assert.Equal(t, "24h", tiers[0].Name)
	assert.Equal(t, 24*time.Hour, tiers[0].Lookahead)
	assert.Equal(t, time.Hour, tiers[0].Every)
	assert.Equal(t, "1h", tiers[1].Name)
	assert.Equal(t, time.Hour, tiers[1].Lookahead)
	assert.Equal(t, 15*time.Minute, tiers[1].Every)
}

func TestParseTiersRejectsBadSpecs(t *testing.T) {
	cases := map[string]string{
		"missing separator":         "24h",
		"bad lookahead":             "day@1h",
		"bad cadence":               "24h@hourly",
		"cadence exceeds lookahead": "1h@2h",
		"zero duration":             "0s@1h",
		"duplicate tier":            "24h@1h,24h@30m",
		"empty":                     "",
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTiers(spec)
			assert.Error(t, err)
		})
	}
}

func TestTierWindow(t *testing.T) {
	tier := Tier{Name: "24h", Lookahead: 24 * time.Hour, Every: time.Hour}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	from, to := tier.Window(now)
	assert.Equal(t, now.Add(23*time.Hour), from)
	assert.Equal(t, now.Add(24*time.Hour), to)
}

// Every event start time must fall inside exactly one scan tick's window:
// none missed, none double-covered.
func TestTierWindowsTileWithoutOverlap(t *testing.T) {
	tier := Tier{Name: "1h", Lookahead: time.Hour, Every: 15 * time.Minute}
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	starts := []time.Time{
		base.Add(time.Hour),                    // exactly on a window boundary
		base.Add(time.Hour + 7*time.Minute),    // mid window
		base.Add(2*time.Hour + 59*time.Minute), // just before a boundary
	}
	for _, start := range starts {
		hits := 0
		for tick := 0; tick < 20; tick++ {
			now := base.Add(time.Duration(tick) * tier.Every)
			from, to := tier.Window(now)
			if start.After(from) && !start.After(to) {
				hits++
			}
		}
		assert.Equal(t, 1, hits, "event at %s covered by %d windows", start, hits)
	}
}

func TestTierDescribe(t *testing.T) {
	assert.Equal(t, "in 24 hours", Tier{Lookahead: 24 * time.Hour}.Describe())
	assert.Equal(t, "in 1 hour", Tier{Lookahead: time.Hour}.Describe())
	assert.Equal(t, "in 30 minutes", Tier{Lookahead: 30 * time.Minute}.Describe())
}
