package domain

// FormatID names one of the supported match-length presets.
type FormatID string

const (
	// FormatSingleSet is a one-set match.
	FormatSingleSet FormatID = "single_set"
	// FormatBestOf3Super is best of three sets with a super tiebreak instead of a third set.
	FormatBestOf3Super FormatID = "best_of_3_super"
	// FormatBestOf3 is best of three full sets.
	FormatBestOf3 FormatID = "best_of_3"
	// FormatBestOf5 is best of five full sets.
	FormatBestOf5 FormatID = "best_of_5"
)

const (
	standardGamesPerSet      = 6
	standardTiebreakAt       = 6
	standardTiebreakPoints   = 7
	defaultSuperTiebreakGoal = 10
)

// MatchFormat is the immutable rule set chosen when a match is created.
type MatchFormat struct {
	ID                  FormatID `json:"id"`
	SetsToWin           int      `json:"sets_to_win"`
	GamesPerSet         int      `json:"games_per_set"`
	TiebreakAt          int      `json:"tiebreak_at"`
	FinalSetTiebreak    bool     `json:"final_set_tiebreak"`
	SuperTiebreak       bool     `json:"super_tiebreak"`
	SuperTiebreakPoints int      `json:"super_tiebreak_points"`
}

var formats = map[FormatID]MatchFormat{
	FormatSingleSet:    preset(FormatSingleSet, 1, false),
	FormatBestOf3Super: preset(FormatBestOf3Super, 2, true),
	FormatBestOf3:      preset(FormatBestOf3, 2, false),
	FormatBestOf5:      preset(FormatBestOf5, 3, false),
}

func preset(id FormatID, setsToWin int, superTiebreak bool) MatchFormat {
	return MatchFormat{
		ID:                  id,
		SetsToWin:           setsToWin,
		GamesPerSet:         standardGamesPerSet,
		TiebreakAt:          standardTiebreakAt,
		FinalSetTiebreak:    true,
		SuperTiebreak:       superTiebreak,
		SuperTiebreakPoints: defaultSuperTiebreakGoal,
	}
}

// Format returns the preset registered under id.
func Format(id FormatID) (MatchFormat, bool) {
	f, ok := formats[id]
	return f, ok
}

// MustFormat is Format for the compile-time preset constants.
func MustFormat(id FormatID) MatchFormat {
	f, ok := formats[id]
	if !ok {
		panic("unknown match format: " + string(id))
	}
	return f
}

// FormatIDs lists the presets from shortest to longest match.
func FormatIDs() []FormatID {
	return []FormatID{FormatSingleSet, FormatBestOf3Super, FormatBestOf3, FormatBestOf5}
}

// MaxSets is the number of set entries a completed match can hold.
func (f MatchFormat) MaxSets() int {
	return 2*f.SetsToWin - 1
}
