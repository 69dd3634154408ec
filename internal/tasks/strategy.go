package tasks

import (
	"errors"
	"fmt"
)

// Strategy names a scoring policy.
type Strategy string

const (
	StrategySmart    Strategy = "smart"
	StrategyFastest  Strategy = "fastest"
	StrategyImpact   Strategy = "impact"
	StrategyDeadline Strategy = "deadline"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategies lists every strategy in display order.
func Strategies() []Strategy {
	return []Strategy{StrategySmart, StrategyFastest, StrategyImpact, StrategyDeadline}
}

// ParseStrategy maps a name to a Strategy. The empty name means smart.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategySmart, nil
	}
	s := Strategy(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

func (s Strategy) Valid() bool {
	switch s {
	case StrategySmart, StrategyFastest, StrategyImpact, StrategyDeadline:
		return true
	}
	return false
}

func (s Strategy) DisplayName() string {
	switch s {
	case StrategySmart:
		return "Smart Balance"
	case StrategyFastest:
		return "Fastest Wins"
	case StrategyImpact:
		return "High Impact"
	case StrategyDeadline:
		return "Deadline Driven"
	default:
		return string(s)
	}
}

// scorer returns the scoring function for the strategy.
func (s Strategy) scorer() (scoreFunc, error) {
	switch s {
	case StrategySmart:
		return scoreSmart, nil
	case StrategyFastest:
		return scoreFastest, nil
	case StrategyImpact:
		return scoreImpact, nil
	case StrategyDeadline:
		return scoreDeadline, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s))
	}
}
