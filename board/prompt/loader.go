package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/coach.txt
	coachRaw string

	//go:embed template/coach_context.txt
	coachContextRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Coach        string
	CoachContext string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Coach:        strings.TrimSpace(coachRaw),
		CoachContext: strings.TrimSpace(coachContextRaw),
	}
}
