package model

import "time"

// HTBStats is the Hack The Box profile summary shown on the machines page.
// Keys match the payload the stats editor posts.
type HTBStats struct {
	GlobalRanking  int       `json:"globalRanking" db:"global_ranking"`
	FinalScore     int       `json:"finalScore" db:"final_score"`
	MachinesPwned  int       `json:"machinesPwned" db:"machines_pwned"`
	OwnsUser       int       `json:"ownsUser" db:"owns_user"`
	OwnsRoot       int       `json:"ownsRoot" db:"owns_root"`
	Respect        int       `json:"respect" db:"respect"`
	UniversityRank *int      `json:"universityRank" db:"university_rank"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// DefaultHTBStats is served before the operator has saved anything.
func DefaultHTBStats() HTBStats {
	return HTBStats{
		GlobalRanking: 15234,
		FinalScore:    1337,
		MachinesPwned: 42,
		OwnsUser:      42,
		OwnsRoot:      42,
		Respect:       15,
	}
}

// THMStats is the TryHackMe profile summary. Badges is a count.
type THMStats struct {
	GlobalRanking  int       `json:"global_ranking" db:"global_ranking"`
	TotalPoints    int       `json:"total_points" db:"total_points"`
	RoomsCompleted int       `json:"rooms_completed" db:"rooms_completed"`
	Streak         int       `json:"streak" db:"streak"`
	Badges         int       `json:"badges" db:"badges"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// DefaultTHMStats is served before the operator has saved anything.
func DefaultTHMStats() THMStats {
	return THMStats{
		GlobalRanking:  8456,
		TotalPoints:    2895,
		RoomsCompleted: 67,
		Streak:         12,
		Badges:         3,
	}
}
