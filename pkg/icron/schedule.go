package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerInfo describes the surrounding triggers of a cron expression
// relative to a reference time.
type TriggerInfo struct {
	Next       time.Time
	Expression string

	TimeUntilNext time.Duration
}

func parser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour |
		cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate reports whether the expression parses with the standard
// five-field layout (descriptors like @daily included).
func Validate(cronExpr string) error {
	if _, err := parser().Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// GetTriggerInfo computes the next trigger of cronExpr after refTime.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	schedule, err := parser().Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	nextTime := schedule.Next(refTime)

	return &TriggerInfo{
		Expression:    cronExpr,
		Next:          nextTime,
		TimeUntilNext: nextTime.Sub(refTime),
	}, nil
}
