// Package reminder implements the time-windowed reminder pipeline: a
// cron-driven scanner that finds events entering a reminder window, a
// dispatcher that sends at-most-once notifications per registration and
// tier, and a sweeper that clears stale delivery markers.
package reminder

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Tier pairs a reminder lookahead with its scan cadence. The scan window
// width equals the cadence, so every event's qualifying instant falls inside
// exactly one scan's window.
type Tier struct {
	Name      string
	Lookahead time.Duration
	Every     time.Duration
}

// Window returns the start-time range an event must fall in to qualify for
// this tier at the given instant: for a 24h tier scanned hourly at t, the
// window is (t+23h, t+24h]. Treated as half-open so consecutive ticks'
// windows tile the timeline without overlap.
func (t Tier) Window(now time.Time) (from, to time.Time) {
	to = now.Add(t.Lookahead)
	from = to.Add(-t.Every)
	return from, to
}

// Describe renders the lookahead for use in a reminder message,
// e.g. "in 24 hours" or "in 30 minutes".
func (t Tier) Describe() string {
	d := t.Lookahead
	switch {
	case d == time.Hour:
		return "in 1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("in %d hours", d/time.Hour)
	case d == time.Minute:
		return "in 1 minute"
	default:
		return fmt.Sprintf("in %d minutes", d/time.Minute)
	}
}

// ParseTiers parses a comma-separated list of lookahead@cadence pairs, e.g.
// "24h@1h,1h@15m". Tiers come back ordered by descending lookahead. The
// cadence must not exceed the lookahead, and since the window width equals
// the cadence, no event can slip between consecutive scans.
func ParseTiers(spec string) ([]Tier, error) {
	var tiers []Tier
	seen := map[string]bool{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lookaheadStr, everyStr, ok := strings.Cut(part, "@")
		if !ok {
			return nil, fmt.Errorf("tier %q: want lookahead@cadence", part)
		}
		lookahead, err := time.ParseDuration(lookaheadStr)
		if err != nil {
			return nil, fmt.Errorf("tier %q: bad lookahead: %w", part, err)
		}
		every, err := time.ParseDuration(everyStr)
		if err != nil {
			return nil, fmt.Errorf("tier %q: bad cadence: %w", part, err)
		}
		if lookahead <= 0 || every <= 0 {
			return nil, fmt.Errorf("tier %q: durations must be positive", part)
		}
		if every > lookahead {
			return nil, fmt.Errorf("tier %q: cadence %s exceeds lookahead %s", part, every, lookahead)
		}
		name := lookaheadStr
		if seen[name] {
			return nil, fmt.Errorf("duplicate tier %q", name)
		}
		seen[name] = true
		tiers = append(tiers, Tier{Name: name, Lookahead: lookahead, Every: every})
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("no reminder tiers configured")
	}
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].Lookahead > tiers[j].Lookahead
	})
	return tiers, nil
}
