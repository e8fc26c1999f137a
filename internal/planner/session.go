package planner

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"
)

// AcceptCommand accepts the menu under review.
const AcceptCommand = "save"

// State is the state of a revision session.
type State int

const (
	Reviewing State = iota
	Accepted
)

func (s State) String() string {
	switch s {
	case Reviewing:
		return "reviewing"
	case Accepted:
		return "accepted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CursorPolicy decides how rejections advance the rotation cursor.
type CursorPolicy int

const (
	// CursorPerSlot gives every slot its own cursor, advanced only by rejections of
	// that slot.
	CursorPerSlot CursorPolicy = iota
	// CursorConsecutive keeps a single cursor that restarts whenever a rejection
	// targets a different slot than the previous one.
	CursorConsecutive
)

// ParseCursorPolicy reads "per-slot" or "consecutive".
func ParseCursorPolicy(s string) (CursorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-slot":
		return CursorPerSlot, nil
	case "consecutive":
		return CursorConsecutive, nil
	default:
		return 0, fmt.Errorf("%w: unknown cursor mode %q", apperrors.ErrConfig, s)
	}
}

func (p CursorPolicy) String() string {
	if p == CursorConsecutive {
		return "consecutive"
	}
	return "per-slot"
}

// Result is the outcome of one submitted command.
type Result struct {
	State State
	// Revised is true when the command re-assigned a slot.
	Revised bool
	// Slot is the re-assigned slot index, or -1.
	Slot int
	// Slots holds the final menu once the session is accepted.
	Slots []Slot
}

// Session is the revision loop over a built menu. It performs no I/O: the caller
// reads commands from wherever the user is and feeds them to Submit.
type Session struct {
	catalog    *recipe.Catalog
	menu       *Menu
	policy     CursorPolicy
	state      State
	cursors    []int
	shared     int
	last       int
	rejections int
}

// NewSession starts reviewing menu. Every slot cursor starts at 0.
func NewSession(menu *Menu, catalog *recipe.Catalog, policy CursorPolicy) *Session {
	return &Session{
		catalog: catalog,
		menu:    menu,
		policy:  policy,
		state:   Reviewing,
		cursors: make([]int, len(menu.Slots)),
		last:    -1,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Menu returns the menu under review.
func (s *Session) Menu() *Menu { return s.menu }

// Rejections counts the slots re-assigned so far.
func (s *Session) Rejections() int { return s.rejections }

// Cursor returns the rotation cursor of slot i.
func (s *Session) Cursor(i int) int {
	if i < 0 || i >= len(s.cursors) {
		return 0
	}
	return s.cursors[i]
}

// Slots returns a copy of the current assignments.
func (s *Session) Slots() []Slot {
	return slices.Clone(s.menu.Slots)
}

// Submit handles one command: AcceptCommand accepts the menu, a slot index rejects
// that slot's recipe. Anything else is ignored and the session keeps reviewing.
// Errors are fatal for the run.
func (s *Session) Submit(command string) (Result, error) {
	if s.state == Accepted {
		return Result{State: Accepted, Slot: -1}, apperrors.ErrSessionClosed
	}

	command = strings.TrimSpace(command)
	if command == AcceptCommand {
		s.state = Accepted
		return Result{State: Accepted, Slot: -1, Slots: s.Slots()}, nil
	}

	i, err := strconv.Atoi(command)
	if err != nil || i < 0 || i >= len(s.menu.Slots) {
		return Result{State: Reviewing, Slot: -1}, nil
	}
	if err := s.Reject(i); err != nil {
		return Result{State: Reviewing, Slot: -1}, err
	}
	return Result{State: Reviewing, Revised: true, Slot: i}, nil
}

// Reject replaces the recipe of slot i with the next one in rotation. The displaced
// recipe gets back the provisional date it had before this slot took it.
func (s *Session) Reject(i int) error {
	if s.state == Accepted {
		return apperrors.ErrSessionClosed
	}
	if i < 0 || i >= len(s.menu.Slots) {
		return fmt.Errorf("slot %d: %w", i, apperrors.ErrNotFound)
	}

	slot := &s.menu.Slots[i]
	displaced := slot.RecipeID
	cursor := s.advance(i)

	slot.RecipeID = -1
	if err := stamp(s.catalog, s.menu.Slots, displaced); err != nil {
		slot.RecipeID = displaced
		return fmt.Errorf("failed to restore recipe %d: %w", displaced, err)
	}

	id, err := Select(s.catalog, slot.Meal, slot.Filter, cursor)
	if err != nil {
		slot.RecipeID = displaced
		_ = stamp(s.catalog, s.menu.Slots, displaced)
		return &SlotError{Slot: *slot, Err: err}
	}
	slot.RecipeID = id
	if err := stamp(s.catalog, s.menu.Slots, id); err != nil {
		return fmt.Errorf("failed to stamp recipe %d: %w", id, err)
	}
	s.rejections++
	return nil
}

func (s *Session) advance(i int) int {
	if s.policy == CursorConsecutive {
		if s.last != i {
			s.shared = 0
		}
		s.shared++
		s.last = i
		s.cursors[i] = s.shared
		return s.shared
	}
	s.cursors[i]++
	s.last = i
	return s.cursors[i]
}
