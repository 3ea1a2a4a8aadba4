package student

import "sort"

// computeRanks assigns competition ("1224") ranks to candidates with a
// recorded mark: equal marks share a rank and the next distinct mark resumes
// at its absolute position. It also settles scholarships, coaching
// eligibility and pass/fail, and flips candidates to the published status.
// Candidates are returned ordered by rank.
func computeRanks(candidates []Student) []Student {
	sort.SliceStable(candidates, func(i, j int) bool { return *candidates[i].Mark > *candidates[j].Mark })

	prevRank := 0
	for i := range candidates {
		rank := i + 1
		if i > 0 && *candidates[i].Mark == *candidates[i-1].Mark {
			rank = prevRank
		}
		prevRank = rank

		r := rank
		candidates[i].Rank = &r
		candidates[i].Scholarship = scholarshipForRank(rank)
		candidates[i].IASCoaching = rank <= CoachingRankList
		if *candidates[i].Mark >= PassMark {
			candidates[i].ResultStatus = ResultPassed
		} else {
			candidates[i].ResultStatus = ResultFailed
		}
		candidates[i].Status = StatusResultPublished
	}
	return candidates
}

func scholarshipForRank(rank int) string {
	switch rank {
	case 1:
		return ScholarshipGold
	case 2:
		return ScholarshipSilver
	case 3:
		return ScholarshipBronze
	default:
		return ""
	}
}
