package planner

import (
	"fmt"
	"time"
)

// SlotError reports a selection failure together with the slot it happened on.
type SlotError struct {
	Slot Slot
	Err  error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%s %s %s (%s): %v",
		e.Slot.Weekday, e.Slot.Date.Format(time.DateOnly), e.Slot.Meal, e.Slot.Filter, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}
