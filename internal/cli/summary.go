package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/codefionn/loopdriver/internal/config"
	"github.com/codefionn/loopdriver/internal/loop"
	"github.com/codefionn/loopdriver/internal/step"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	reasonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SummaryLines returns the plain outcome line and the run log line.
func SummaryLines(s *Summary) (outcome, location string) {
	if s.Result != nil {
		switch s.Result.Termination {
		case loop.TerminationStop:
			outcome = "Loop stopped. Reason: " + s.Result.Reason
		case loop.TerminationPause:
			outcome = "Loop paused. Reason: " + s.Result.Reason
		default:
			outcome = fmt.Sprintf("Reached the maximum of %d rounds without a stop decision.", s.Result.RoundsExecuted)
		}
	}
	if s.Location != "" {
		location = "Run log saved to: " + s.Location
	}
	return outcome, location
}

// WriteSummary prints the run outcome and log location to w, styled when
// styled is set.
func WriteSummary(w io.Writer, s *Summary, styled bool) error {
	outcome, location := SummaryLines(s)
	if !styled {
		var sb strings.Builder
		for _, line := range []string{outcome, location} {
			if line != "" {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
		_, err := io.WriteString(w, sb.String())
		return err
	}

	var parts []string
	if s.Result != nil {
		parts = append(parts, titleStyle.Render(titleFor(s.Result.Termination)))
		if s.Result.Termination.Explicit() {
			parts = append(parts, reasonStyle.Render(s.Result.Reason))
		} else {
			parts = append(parts, reasonStyle.Render(outcome))
		}
	}
	if s.Location != "" {
		parts = append(parts, "Run log: "+pathStyle.Render(s.Location))
	}
	if len(parts) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, summaryBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	return err
}

func titleFor(t loop.Termination) string {
	switch t {
	case loop.TerminationStop:
		return "Loop stopped"
	case loop.TerminationPause:
		return "Loop paused"
	default:
		return "Round cap reached"
	}
}

// DescribeError renders err for the user. Malformed output shows the role
// and the offending text.
func DescribeError(err error) string {
	var malformed *step.MalformedOutputError
	if errors.As(err, &malformed) {
		return fmt.Sprintf("role %q returned output that is not a JSON object after %d attempts.\nLast output (truncated):\n%s",
			malformed.Role, malformed.Attempts, malformed.Snippet)
	}
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	return err.Error()
}
