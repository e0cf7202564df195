package crosscheck

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// unitMultipliers convert a money unit into millions
var unitMultipliers = map[string]float64{
	"b":        1000,
	"bn":       1000,
	"billion":  1000,
	"m":        1,
	"mm":       1,
	"mn":       1,
	"million":  1,
	"k":        0.001,
	"thousand": 0.001,
}

// Plain money numbers at or above this are treated as whole currency units
const absoluteMoneyFloor = 100000

var moneyPattern = regexp.MustCompile(`^[~≈]?\s*(?:[$€£]|usd|eur|gbp)?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*([a-z]*)\+?$`)

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case map[any]any:
		out := make(map[string]any, len(obj))
		for k, val := range obj {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// asNumber accepts JSON/YAML numbers and plain numeric strings like "1,200" or "150+"
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimPrefix(s, "~")
		s = strings.TrimSuffix(s, "+")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// asMillions normalises a money amount: a number, an {amount|value, unit} object,
// or a string such as "$12.5M" or "1.2 billion"
func asMillions(v any) (float64, bool) {
	if obj, ok := asObject(v); ok {
		raw, found := obj["amount"]
		if !found {
			raw, found = obj["value"]
		}
		if !found {
			return 0, false
		}
		amount, ok := asNumber(raw)
		if !ok {
			return 0, false
		}
		unit, _ := obj["unit"].(string)
		if unit == "" {
			return plainMoney(amount), true
		}
		mult, ok := unitMultipliers[strings.ToLower(strings.TrimSpace(unit))]
		if !ok {
			return 0, false
		}
		return amount * mult, true
	}

	if s, ok := v.(string); ok {
		m := moneyPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
		if m == nil {
			return 0, false
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			return 0, false
		}
		if m[2] == "" {
			return plainMoney(amount), true
		}
		mult, ok := unitMultipliers[m[2]]
		if !ok {
			return 0, false
		}
		return amount * mult, true
	}

	if n, ok := asNumber(v); ok {
		return plainMoney(n), true
	}
	return 0, false
}

func plainMoney(n float64) float64 {
	if math.Abs(n) >= absoluteMoneyFloor {
		return n / 1e6
	}
	return n
}

// withinTolerance reports |a-b| / avg(a,b) <= tol
func withinTolerance(a, b, tol float64) bool {
	if a == b {
		return true
	}
	avg := (math.Abs(a) + math.Abs(b)) / 2
	if avg == 0 {
		return false
	}
	return math.Abs(a-b)/avg <= tol
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeString lower-cases, trims, collapses whitespace and drops edge punctuation
func normalizeString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespace.ReplaceAllString(s, " ")
	return strings.Trim(s, ".,;:!")
}

// synonymIndex maps normalised phrases to a group id
type synonymIndex map[string]int

func buildSynonymIndex(groups [][]string) synonymIndex {
	idx := make(synonymIndex)
	for i, group := range groups {
		for _, term := range group {
			idx[normalizeString(term)] = i
		}
	}
	return idx
}

// canonical returns a comparison key for a normalised string. Locations like
// "San Francisco, CA" fall back to their leading segment.
func (s synonymIndex) canonical(norm string) string {
	if g, ok := s[norm]; ok {
		return fmt.Sprintf("#%d", g)
	}
	if head, _, found := strings.Cut(norm, ","); found {
		head = strings.TrimSpace(head)
		if g, ok := s[head]; ok {
			return fmt.Sprintf("#%d", g)
		}
	}
	return norm
}

func (s synonymIndex) stringsMatch(a, b string) bool {
	na, nb := normalizeString(a), normalizeString(b)
	return na == nb || s.canonical(na) == s.canonical(nb)
}

// listKeys normalises array elements; objects contribute their name
func (s synonymIndex) listKeys(list []any) []string {
	seen := make(map[string]bool, len(list))
	var keys []string
	for _, item := range list {
		var text string
		if obj, ok := asObject(item); ok {
			name, found := obj["name"]
			if !found {
				continue
			}
			text = fmt.Sprint(name)
		} else {
			text = fmt.Sprint(item)
		}
		key := s.canonical(normalizeString(text))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// overlap is |A∩B| / max(|A|,|B|); two empty sets overlap fully
func overlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[k] = true
	}
	inter := 0
	for _, k := range b {
		if set[k] {
			inter++
		}
	}
	return float64(inter) / math.Max(float64(len(a)), float64(len(b)))
}
