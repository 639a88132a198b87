package projection

import (
	"sort"

	"github.com/sakif/ssc-portal/internal/model"
)

// Member list orders.
const (
	SortMembersByName   = "name"
	SortMembersByPoints = "points"
	SortMembersByRecent = "recent"
)

// SearchMembers filters the roster by query and orders it: "points" puts the
// highest score first, "recent" the newest member first, anything else sorts
// by name.
func SearchMembers(members []model.Member, query, sortBy string) []model.Member {
	out := make([]model.Member, 0, len(members))
	for _, m := range members {
		if matchesQuery(m, query) {
			out = append(out, m)
		}
	}

	switch sortBy {
	case SortMembersByPoints:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	case SortMembersByRecent:
		sort.SliceStable(out, func(i, j int) bool {
			return createdAt(out[i]).After(createdAt(out[j]))
		})
	default:
		names := newNameOrder()
		sort.SliceStable(out, func(i, j int) bool {
			return names.less(out[i].Name.String(), out[j].Name.String())
		})
	}
	return out
}

// RankedMember is a leaderboard row.
type RankedMember struct {
	model.Member
	Rank int
}

// Podium reports whether the row is in the top three ranks.
func (r RankedMember) Podium() bool {
	return r.Rank <= 3
}

// Rank orders members by points, highest first, breaking ties by name, and
// assigns competition ranks ("1224"): equal points share a rank and the next
// distinct score takes its 1-based position in the list.
func Rank(members []model.Member) []RankedMember {
	sorted := append([]model.Member(nil), members...)
	names := newNameOrder()
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return names.less(sorted[i].Name.String(), sorted[j].Name.String())
	})

	out := make([]RankedMember, len(sorted))
	for i, m := range sorted {
		rank := i + 1
		if i > 0 && m.Points == sorted[i-1].Points {
			rank = out[i-1].Rank
		}
		out[i] = RankedMember{Member: m, Rank: rank}
	}
	return out
}

// TopMembers returns the n highest-scoring members. Ties keep roster order.
func TopMembers(members []model.Member, n int) []model.Member {
	sorted := append([]model.Member(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Points > sorted[j].Points })
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
