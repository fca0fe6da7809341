package engine

// Verdict is the outcome of checking the win conditions after a ballot or
// a quest resolution.
type Verdict int

const (
	VerdictContinue Verdict = iota
	VerdictOpenAssassination
	VerdictEvilWins
	VerdictGoodWins
)

// EvaluateWin applies the win conditions in order of precedence: three
// failed quests end the game for evil, five consecutive rejections end it
// for evil, and three successful quests win for good unless Merlin is in
// play, in which case the assassination phase opens. afterRejection marks
// calls made right after a rejected ballot; the rejection counter only
// ends the game at that moment.
func EvaluateWin(questResults []bool, rejectCount int, merlinInPlay, afterRejection bool) Verdict {
	fails, successes := 0, 0
	for _, ok := range questResults {
		if ok {
			successes++
		} else {
			fails++
		}
	}
	if fails >= 3 {
		return VerdictEvilWins
	}
	if afterRejection && rejectCount >= 5 {
		return VerdictEvilWins
	}
	if successes >= 3 {
		if merlinInPlay {
			return VerdictOpenAssassination
		}
		return VerdictGoodWins
	}
	return VerdictContinue
}
