package progress

import (
	"fmt"
	"strings"
)

// Stage marks where in a round an update was emitted.
type Stage int

const (
	// StageStepStarted is sent before a role is invoked.
	StageStepStarted Stage = iota
	// StageStepFinished is sent after the role's record was appended.
	StageStepFinished
	// StageRoundFinished is sent after the state fold and decision.
	StageRoundFinished
)

func (s Stage) String() string {
	switch s {
	case StageStepStarted:
		return "started"
	case StageStepFinished:
		return "finished"
	case StageRoundFinished:
		return "round"
	default:
		return "unknown"
	}
}

// Update describes loop activity for a user-facing status line.
type Update struct {
	// Round is the one-based round number.
	Round int
	// MaxRounds is the configured round cap.
	MaxRounds int
	// Role is the role being invoked, empty for round-level updates.
	Role  string
	Stage Stage
	// Message is optional detail, e.g. the decision taken.
	Message string
	// AddNewLine appends a newline to the rendered line if missing.
	AddNewLine bool
}

// Line renders the update as "round N/M: <role>" plus the message.
func (u Update) Line() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "round %d/%d", u.Round, u.MaxRounds)
	if u.Role != "" {
		sb.WriteString(": ")
		sb.WriteString(u.Role)
	}
	if u.Message != "" {
		sb.WriteString(" ")
		sb.WriteString(u.Message)
	}
	line := sb.String()
	if u.AddNewLine && !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	return line
}

// Callback receives progress updates.
type Callback func(Update) error

// Normalize clamps counters to sane values.
func Normalize(update Update) Update {
	if update.Round < 0 {
		update.Round = 0
	}
	if update.MaxRounds < update.Round {
		update.MaxRounds = update.Round
	}
	return update
}

// Dispatch normalizes and sends the update if the callback is set.
func Dispatch(cb Callback, update Update) error {
	if cb == nil {
		return nil
	}
	return cb(Normalize(update))
}
