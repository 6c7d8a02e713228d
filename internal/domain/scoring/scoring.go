// Package scoring turns raw per-competitor event results into standings.
package scoring

import "sort"

// Order says which end of the result scale wins.
type Order int

const (
	// LowerIsBetter ranks the smallest result first (race times).
	LowerIsBetter Order = iota
	// HigherIsBetter ranks the largest result first (demolitions).
	HigherIsBetter
)

// Entry is one row of a standings table.
type Entry struct {
	Rank       int     `json:"rank"`
	ConfigPath string  `json:"config_path"`
	Score      float64 `json:"score"`
}

// Rank orders results and assigns competition ranks: equal scores share a
// rank and the next distinct score skips ahead ("1, 1, 3"). Ties are listed
// by config path so the output is stable.
func Rank(results map[string]float64, order Order) []Entry {
	out := make([]Entry, 0, len(results))
	for path, score := range results {
		out = append(out, Entry{ConfigPath: path, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			if order == HigherIsBetter {
				return out[i].Score > out[j].Score
			}
			return out[i].Score < out[j].Score
		}
		return out[i].ConfigPath < out[j].ConfigPath
	})
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// Counts converts integer results for Rank.
func Counts(results map[string]int) map[string]float64 {
	out := make(map[string]float64, len(results))
	for k, v := range results {
		out[k] = float64(v)
	}
	return out
}
