// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" suggestion.
const maxSuggestDistance = 3

// closest returns the candidate nearest to name, or "" when none is
// within maxSuggestDistance. Ties go to the earlier candidate.
func closest(name string, candidates []string) string {
	best, bestDistance := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		if distance := levenshtein(name, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

func commandNames(commands []*Command) []string {
	names := make([]string, len(commands))
	for i, command := range commands {
		names[i] = command.Name
	}
	return names
}

func flagNames(flagSet *pflag.FlagSet) []string {
	var names []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		names = append(names, f.Name)
	})
	return names
}

// unknownLongFlag returns the name of the first --flag in args that
// flagSet does not define, stopping at "--".
func unknownLongFlag(args []string, flagSet *pflag.FlagSet) string {
	for _, arg := range args {
		if arg == "--" {
			return ""
		}
		name, ok := strings.CutPrefix(arg, "--")
		if !ok {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		if flagSet.Lookup(name) == nil {
			return name
		}
	}
	return ""
}

// levenshtein returns the edit distance between a and b, keeping one
// row of the distance matrix sized to the shorter string.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}
	for j := 1; j <= len(b); j++ {
		diagonal := row[0]
		row[0] = j
		for i := 1; i <= len(a); i++ {
			substitution := diagonal
			if a[i-1] != b[j-1] {
				substitution++
			}
			diagonal = row[i]
			row[i] = min(row[i]+1, row[i-1]+1, substitution)
		}
	}
	return row[len(a)]
}
