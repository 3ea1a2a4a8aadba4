package student

import "testing"

func intPtr(n int) *int { return &n }

func Test_computeRanks(t *testing.T) {
	candidates := []Student{
		{ID: "a", Mark: intPtr(80)},
		{ID: "b", Mark: intPtr(90)},
		{ID: "c", Mark: intPtr(80)},
		{ID: "d", Mark: intPtr(50)},
		{ID: "e", Mark: intPtr(80)},
	}

	ranked := computeRanks(candidates)

	// ties share a rank, the next distinct mark resumes at its position
	wantRanks := map[string]int{"b": 1, "a": 2, "c": 2, "e": 2, "d": 5}
	wantScholarships := map[string]string{"b": ScholarshipGold, "a": ScholarshipSilver, "c": ScholarshipSilver, "e": ScholarshipSilver, "d": ""}
	for _, s := range ranked {
		if *s.Rank != wantRanks[s.ID] {
			t.Errorf("student %s: rank = %d; want %d", s.ID, *s.Rank, wantRanks[s.ID])
		}
		if s.Scholarship != wantScholarships[s.ID] {
			t.Errorf("student %s: scholarship = %q; want %q", s.ID, s.Scholarship, wantScholarships[s.ID])
		}
		if !s.IASCoaching {
			t.Errorf("student %s: expected coaching eligibility at rank %d", s.ID, *s.Rank)
		}
		if s.ResultStatus != ResultPassed {
			t.Errorf("student %s: result = %s; want %s", s.ID, s.ResultStatus, ResultPassed)
		}
		if s.Status != StatusResultPublished {
			t.Errorf("student %s: status = %s; want %s", s.ID, s.Status, StatusResultPublished)
		}
	}

	// returned ordered by rank
	if ranked[0].ID != "b" || *ranked[len(ranked)-1].Rank != 5 {
		t.Errorf("computeRanks() not ordered by rank: %+v", ranked)
	}
}

func Test_computeRanks_passMark(t *testing.T) {
	ranked := computeRanks([]Student{
		{ID: "pass", Mark: intPtr(PassMark)},
		{ID: "fail", Mark: intPtr(PassMark - 1)},
	})

	for _, s := range ranked {
		want := ResultPassed
		if s.ID == "fail" {
			want = ResultFailed
		}
		if s.ResultStatus != want {
			t.Errorf("student %s: result = %s; want %s", s.ID, s.ResultStatus, want)
		}
	}
}

func Test_computeRanks_coachingCutoff(t *testing.T) {
	// distinct marks so ranks are dense
	candidates := make([]Student, CoachingRankList+1)
	for i := range candidates {
		candidates[i] = Student{Mark: intPtr(100 - i)}
	}

	ranked := computeRanks(candidates)
	if !ranked[CoachingRankList-1].IASCoaching {
		t.Errorf("rank %d should be coaching-eligible", CoachingRankList)
	}
	if ranked[CoachingRankList].IASCoaching {
		t.Errorf("rank %d should not be coaching-eligible", CoachingRankList+1)
	}
}
