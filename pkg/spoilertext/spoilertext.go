// Package spoilertext renders spoiler logs as plain text for terminals and
// the HTTP API.
package spoilertext

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// DefaultWidth is used when a width below 20 columns is requested.
const DefaultWidth = 80

// Humanize turns an identifier into a display name:
// "SpeedBooster" becomes "Speed Booster", "f_DefeatedPhantoon" becomes
// "Defeated Phantoon" and "crateria-demo" becomes "Crateria Demo".
func Humanize(name string) string {
	name = strings.TrimPrefix(name, "f_")
	runes := []rune(name)
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush()
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	// A Caser is stateful, so each call gets its own.
	return cases.Title(language.English, cases.NoLower).String(strings.Join(words, " "))
}

func itemName(item resource.Item) string {
	return Humanize(item.String())
}

// Summary is the short form of a randomization: one line per item location
// in the order it was filled.
func Summary(res *randomize.Randomization) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seed %d on %s (%s, start %s)\n", res.Seed, Humanize(res.Map), res.Difficulty, res.Start)
	for _, step := range res.SpoilerLog.Summary {
		for _, item := range step.Items {
			fmt.Fprintf(&b, "%d. %s: %s\n", step.Step, item.Location, itemName(item.Item))
		}
	}
	return b.String()
}

// Render writes the full spoiler log wrapped to width columns.
func Render(res *randomize.Randomization, width int) string {
	if width < 20 {
		width = DefaultWidth
	}
	var b strings.Builder
	line := func(depth uint, format string, args ...any) {
		text := wordwrap.String(fmt.Sprintf(format, args...), width-int(depth))
		b.WriteString(indent.String(text, depth))
		b.WriteByte('\n')
	}

	line(0, "Seed %d (display %d)", res.Seed, res.DisplaySeed)
	if res.Map != "" {
		line(0, "Map: %s", Humanize(res.Map))
	}
	line(0, "Difficulty: %s", res.Difficulty)
	line(0, "Start: %s", res.Start)
	var locked []string
	for _, d := range res.Doors {
		if d.Color != randomize.DoorBlue {
			locked = append(locked, fmt.Sprintf("%s (%s)", d.Door, d.Color))
		}
	}
	if len(locked) > 0 {
		line(0, "Locked doors: %s", strings.Join(locked, ", "))
	}

	for _, step := range res.SpoilerLog.Summary {
		b.WriteByte('\n')
		line(0, "Step %d", step.Step)
		if len(step.Flags) > 0 {
			flags := make([]string, len(step.Flags))
			for i, f := range step.Flags {
				flags[i] = Humanize(f)
			}
			line(2, "Flags: %s", strings.Join(flags, ", "))
		}
		for _, item := range step.Items {
			switch {
			case item.Key && item.Tier != "":
				line(2, "%s: %s (key, %s)", item.Location, itemName(item.Item), item.Tier)
			case item.Key:
				line(2, "%s: %s (key)", item.Location, itemName(item.Item))
			default:
				line(2, "%s: %s", item.Location, itemName(item.Item))
			}
		}
	}
	return b.String()
}
