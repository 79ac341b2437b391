package entity

import (
	"cmp"
	"slices"
	"strings"
)

const (
	winPoints  = 3
	drawPoints = 1
)

// Commas would split a flat-file record, so they become semicolons everywhere a name is used as a key.
var nameReplacer = strings.NewReplacer(",", ";", "\r", " ", "\n", " ")

// NormalizeName returns the key a player is stored under.
func NormalizeName(name string) string {
	return nameReplacer.Replace(name)
}

type LeaderboardEntry struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

// Score - losses do not subtract.
func (that LeaderboardEntry) Score() int {
	return winPoints*that.Wins + drawPoints*that.Draws
}

// RankEntries sorts by score descending, ties by name.
func RankEntries(entries []LeaderboardEntry) {
	slices.SortFunc(entries, func(a, b LeaderboardEntry) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
