package ranking

import (
	"cmp"
	"slices"

	"github.com/mpapenbr/racesim/pkg/model"
)

// Recompute assigns ranks 1..N by ascending cumulative time.
// Equal times are ordered by starting rank, then by slice position.
// The slice itself is not reordered. The returned indices are in rank order.
func Recompute(participants []model.Participant) []int {
	idx := make([]int, len(participants))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		pa, pb := &participants[a], &participants[b]
		if c := cmp.Compare(pa.CumulativeTime, pb.CumulativeTime); c != 0 {
			return c
		}
		return cmp.Compare(pa.StartingRank, pb.StartingRank)
	})
	for pos, i := range idx {
		participants[i].Rank = pos + 1
	}
	return idx
}

// IsPermutation reports whether the ranks are exactly {1..N}
func IsPermutation(participants []model.Participant) bool {
	seen := make([]bool, len(participants)+1)
	for i := range participants {
		r := participants[i].Rank
		if r < 1 || r > len(participants) || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}
