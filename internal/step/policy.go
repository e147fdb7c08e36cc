package step

import (
	"strings"

	"github.com/codefionn/loopdriver/internal/consts"
)

// CorrectionInstruction is appended to the retry message after a reply
// could not be parsed.
const CorrectionInstruction = "The previous reply could not be parsed as JSON. Return only a JSON object that follows the schema."

// RetryPolicy bounds how often one role is asked for output and how the
// follow-up message is phrased.
type RetryPolicy struct {
	// MaxAttempts caps the generation calls per invocation.
	MaxAttempts int
	// Correction builds the user message for every attempt after the first.
	Correction func(promptBody, state string) string
}

// DefaultRetryPolicy allows one corrective retry.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: consts.MaxGenerationAttempts,
		Correction:  CorrectionMessage,
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return consts.MaxGenerationAttempts
	}
	return p.MaxAttempts
}

func (p RetryPolicy) correction(promptBody, state string) string {
	if p.Correction == nil {
		return CorrectionMessage(promptBody, state)
	}
	return p.Correction(promptBody, state)
}

// CorrectionMessage repeats the prompt and state, replacing any extra
// context with CorrectionInstruction. The state follows its label on the
// next line.
func CorrectionMessage(promptBody, state string) string {
	return joinSections(promptBody, stateLabel+"\n"+state, CorrectionInstruction)
}

// UserMessage is the first-attempt message for a role. The state label is
// a section of its own, so a blank line separates it from the JSON.
func UserMessage(promptBody, state, extra string) string {
	return joinSections(promptBody, stateLabel, state, extra)
}

const stateLabel = "STATE:"

func joinSections(sections ...string) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
