package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

var (
	//nolint:gochecknoglobals // Compiled once, read-only.
	scheduleLine = regexp.MustCompile(`^(Start|Change)_Alarm\((-?\d+)\):\s*Group\((-?\d+)\)\s+(-?\d+)\s+(\S.*)$`)
	//nolint:gochecknoglobals // Compiled once, read-only.
	targetLine = regexp.MustCompile(`^(Cancel|Suspend|Reactivate)_Alarm\((-?\d+)\)$`)
)

const viewKeyword = "View_Alarms"

// Parse turns one input line into a Command.
//
// Lines that do not match the grammar, or carry a non-positive alarm or
// group id, fail with a ParseError. Well-formed lines with other bad
// fields fail Validate with an InvalidArgument.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)

	if line == viewKeyword {
		return View(), nil
	}

	if m := scheduleLine.FindStringSubmatch(line); m != nil {
		id, errID := positive(m[2])
		group, errGroup := positive(m[3])
		seconds, errSeconds := strconv.Atoi(m[4])

		if errID != nil || errGroup != nil || errSeconds != nil {
			return Command{}, badCommand(line)
		}

		message := strings.TrimRight(m[5], " \t")

		cmd := Start(id, group, seconds, message)
		if m[1] == "Change" {
			cmd = Change(id, group, seconds, message)
		}

		if err := cmd.Validate(); err != nil {
			return Command{}, err
		}

		return cmd, nil
	}

	if m := targetLine.FindStringSubmatch(line); m != nil {
		id, err := positive(m[2])
		if err != nil {
			return Command{}, badCommand(line)
		}

		switch m[1] {
		case "Cancel":
			return Cancel(id), nil
		case "Suspend":
			return Suspend(id), nil
		default:
			return Reactivate(id), nil
		}
	}

	return Command{}, badCommand(line)
}

// positive parses a strictly positive decimal integer.
func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}

	if n <= 0 {
		return 0, strconv.ErrRange
	}

	return n, nil
}

func badCommand(line string) error {
	return alarm.Errorf(alarm.KindParseError, "Bad command %q", line)
}
