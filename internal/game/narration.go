package game

import (
	"fmt"

	"quiz-session-service/internal/domain"
)

var optionLetters = []string{"A", "B", "C", "D"}

// ReadAloudText builds the spoken form of a question: a team intro in team
// mode, the prompt, then the options lettered A through D. True/false is
// phrased naturally and open-ended questions ask for a typed answer.
func ReadAloudText(question domain.Question, activeTeamName string) string {
	text := ""
	if activeTeamName != "" {
		text = "Question for " + activeTeamName + ". "
	}
	text += question.Prompt + "."

	if len(question.Options) == 0 {
		return text + " Type or speak your answer."
	}
	if len(question.Options) == 2 && question.Options[0] == "True" {
		return text + " True or false?"
	}
	for i, option := range question.Options {
		if i >= len(optionLetters) {
			break
		}
		text += fmt.Sprintf(" Option %s: %s.", optionLetters[i], option)
	}
	return text
}

// feedbackPhrase is the short spoken reaction to a scored answer.
func feedbackPhrase(score float64) string {
	switch {
	case score == 0:
		return "Incorrect answer."
	case score == 1:
		return "Correct answer!"
	default:
		return fmt.Sprintf("Partially correct. %.1f points.", score)
	}
}
