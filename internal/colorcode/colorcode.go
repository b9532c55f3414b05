// Package colorcode maps the vinyl color names used on packout sheets to
// the single-letter codes embedded in inventory item numbers.
package colorcode

import (
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownColor is returned for any color not in the table. There is no
// default letter: a wrong letter would corrupt every item number derived
// from it, so lookups fail loudly.
var ErrUnknownColor = fmt.Errorf("unknown color")

var letters = map[string]string{
	"White":        "E",
	"Brown":        "C",
	"Coal Gray":    "K",
	"Musket Brown": "M",
	"Eggshell":     "G",
	"Wicker":       "W",
	"Cream":        "R",
	"Clay":         "Y",
	"Tan":          "T",
	"Terratone":    "O",
	"Ivory":        "I",
	"Light Gray":   "L",
	"Red":          "D",
	"Green":        "N",
}

// Letter resolves a color name to its single-letter code.
func Letter(color string) (string, error) {
	letter, ok := letters[color]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColor, color)
	}
	return letter, nil
}

// ItemNumber derives an inventory item number from a part number and a
// resolved color letter: the part number with the letter appended,
// trimmed. Callers resolve the letter once with Letter and reuse it
// across a sheet's line items.
func ItemNumber(partNumber, letter string) string {
	return strings.TrimSpace(partNumber + letter)
}

// Known returns the color names in the table, sorted, for UI dropdowns.
func Known() []string {
	names := make([]string, 0, len(letters))
	for name := range letters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
