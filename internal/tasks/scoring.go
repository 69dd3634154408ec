package tasks

import (
	"math"
	"strconv"
)

// factors are the inputs a strategy weighs for one task.
type factors struct {
	days       int
	urgency    float64
	importance int
	hours      float64
	blocks     int
}

type scoreFunc func(f factors, why *explanation) float64

// urgency maps days until due to a deadline pressure. It never increases
// as the due date moves further away.
func urgency(days int) float64 {
	switch {
	case days < 0:
		return 100 + 5*float64(-days)
	case days == 0:
		return 80
	case days == 1:
		return 60
	case days <= 3:
		return 40
	case days <= 7:
		return 20
	default:
		return 20 * 7 / float64(days)
	}
}

func scoreSmart(f factors, why *explanation) float64 {
	if f.importance >= 8 {
		why.add(highImportance(f.importance))
	}
	if f.hours <= 2 {
		why.add(quickWin(f.hours))
	}
	if f.blocks > 0 {
		why.add(blocksReason(f.blocks))
	}
	return f.urgency + 5*float64(f.importance) + 10*float64(f.blocks) - 2*f.hours
}

func scoreFastest(f factors, why *explanation) float64 {
	why.add("Low effort prioritized (" + fmtNum(f.hours) + "h)")
	return f.urgency + 2*float64(f.importance) - 10*f.hours
}

func scoreImpact(f factors, why *explanation) float64 {
	why.add("High impact focus (importance: " + strconv.Itoa(f.importance) + "/10)")
	if f.blocks > 0 {
		why.add(blocksReason(f.blocks))
	}
	return 10*float64(f.importance) + f.urgency + 15*float64(f.blocks)
}

func scoreDeadline(f factors, why *explanation) float64 {
	why.add("Deadline focused")
	return f.urgency + 2*float64(f.importance)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
