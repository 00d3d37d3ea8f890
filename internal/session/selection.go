package session

import "searoute/internal/types"

// Selection is the two-slot start/end pick state.
type Selection struct {
	Start *types.Coordinate `json:"start"`
	End   *types.Coordinate `json:"end"`
}

// Select applies one pick: fill start, then end, then start over with the
// new point as start.
func (s *Selection) Select(point types.Coordinate) {
	p := point
	switch {
	case s.Start == nil:
		s.Start = &p
	case s.End == nil:
		s.End = &p
	default:
		s.Start = &p
		s.End = nil
	}
}

// Complete reports whether both endpoints are set.
func (s Selection) Complete() bool {
	return s.Start != nil && s.End != nil
}

// Reset clears both endpoints.
func (s *Selection) Reset() {
	s.Start = nil
	s.End = nil
}

// clone copies the selection so callers cannot mutate controller state.
func (s Selection) clone() Selection {
	var out Selection
	if s.Start != nil {
		start := *s.Start
		out.Start = &start
	}
	if s.End != nil {
		end := *s.End
		out.End = &end
	}
	return out
}
