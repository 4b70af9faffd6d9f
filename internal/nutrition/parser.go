package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	portionPattern = regexp.MustCompile(`(\d+)\s*porsi`)
	gramPattern    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:grams?|gr|g)\b`)
)

// Quantity is the explicit amount found in a question. Zero means absent.
type Quantity struct {
	Portions int
	Grams    float64
}

// ParseQuantity extracts "<N> porsi" and "<N> gram|gr|g" from text.
func ParseQuantity(text string) Quantity {
	text = strings.ToLower(text)
	var q Quantity

	if m := portionPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			q.Portions = n
		}
	}
	if m := gramPattern.FindStringSubmatch(text); m != nil {
		if g, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			q.Grams = g
		}
	}
	return q
}
