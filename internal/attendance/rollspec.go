// Package attendance marks class attendance from roll-number patterns and
// natural-language commands, and reports per-student summaries.
package attendance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ExpandRollSpec expands patterns like "1,2,5-10 except 7,9" into a sorted
// list of unique roll numbers. The "except" clause subtracts everything that
// follows it.
func ExpandRollSpec(spec string) ([]int, error) {
	normalized := strings.ToLower(spec)
	normalized = strings.ReplaceAll(normalized, "except", " |except| ")
	normalized = strings.ReplaceAll(normalized, ",", " ")

	include := map[int]struct{}{}
	exclude := map[int]struct{}{}
	target := include
	for _, token := range strings.Fields(normalized) {
		if token == "|except|" {
			target = exclude
			continue
		}
		if from, to, ok := strings.Cut(token, "-"); ok {
			lo, err := strconv.Atoi(from)
			if err != nil {
				return nil, fmt.Errorf("invalid roll range %q", token)
			}
			hi, err := strconv.Atoi(to)
			if err != nil {
				return nil, fmt.Errorf("invalid roll range %q", token)
			}
			if lo > hi {
				return nil, fmt.Errorf("roll range %q is reversed", token)
			}
			for n := lo; n <= hi; n++ {
				target[n] = struct{}{}
			}
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("invalid roll %q", token)
		}
		target[n] = struct{}{}
	}

	rolls := make([]int, 0, len(include))
	for n := range include {
		if _, skip := exclude[n]; skip {
			continue
		}
		rolls = append(rolls, n)
	}
	sort.Ints(rolls)
	return rolls, nil
}

// NormalizeDate converts accepted date spellings to ISO YYYY-MM-DD:
// "today" (or empty) becomes today's date and DD-MM-YYYY is flipped;
// YYYY-MM-DD passes through.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == "today" {
		return time.Now().Format("2006-01-02"), nil
	}
	if t, err := time.Parse("02-01-2006", value); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("unrecognized date %q; use today, DD-MM-YYYY, or YYYY-MM-DD", value)
}
