package tasks

import (
	"strconv"
	"strings"
)

const explainSep = " | "

// explanation accumulates the human-readable reasons behind a score.
type explanation struct {
	b strings.Builder
}

func (e *explanation) add(part string) {
	if part == "" {
		return
	}
	if e.b.Len() > 0 {
		e.b.WriteString(explainSep)
	}
	e.b.WriteString(part)
}

func (e *explanation) String() string {
	return e.b.String()
}

// urgencyReason describes the deadline contribution. Deadlines more than a
// week away contribute without a reason.
func urgencyReason(days int, urgency float64) string {
	u := fmtNum(urgency)
	switch {
	case days < 0:
		return "OVERDUE by " + strconv.Itoa(-days) + " days (+" + u + " urgency)"
	case days == 0:
		return "Due TODAY (+" + u + " urgency)"
	case days == 1:
		return "Due tomorrow (+" + u + " urgency)"
	case days <= 3:
		return "Due in " + strconv.Itoa(days) + " days (+" + u + " urgency)"
	case days <= 7:
		return "Due this week (+" + u + " urgency)"
	default:
		return ""
	}
}

func highImportance(imp int) string {
	return "High importance (" + strconv.Itoa(imp) + "/10)"
}

func quickWin(hours float64) string {
	return "Quick win (" + fmtNum(hours) + "h)"
}

func blocksReason(n int) string {
	return "Blocks " + strconv.Itoa(n) + " tasks"
}

// fmtNum prints a number without trailing zeros: 2, 1.5, 17.5.
func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
