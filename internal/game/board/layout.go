package board

import (
	"sort"
	"sync"
)

// Layout is the immutable result of one Generate call. Consumers query it by
// landing floor; the index is built once and shared safely between readers.
type Layout struct {
	Seed      uint32  `json:"seed"`
	Ladders   []Event `json:"ladders"`
	Traps     []Event `json:"traps"`
	Eggs      []Egg   `json:"eggs,omitempty"`
	Fallbacks int     `json:"fallbacks"`

	once     sync.Once
	bySource map[int]Event
	eggs     map[int]Egg
}

// NewLayout assembles a Layout from already placed events.
func NewLayout(seed uint32, ladders, traps []Event, eggs []Egg, fallbacks int) *Layout {
	return &Layout{
		Seed:      seed,
		Ladders:   ladders,
		Traps:     traps,
		Eggs:      eggs,
		Fallbacks: fallbacks,
	}
}

func (l *Layout) index() {
	l.once.Do(func() {
		l.bySource = make(map[int]Event, len(l.Ladders)+len(l.Traps))
		for _, e := range l.Ladders {
			l.bySource[e.Source] = e
		}
		for _, e := range l.Traps {
			l.bySource[e.Source] = e
		}
		l.eggs = make(map[int]Egg, len(l.Eggs))
		for _, e := range l.Eggs {
			l.eggs[e.Floor] = e
		}
	})
}

// At returns the ladder or trap whose source is pos.
func (l *Layout) At(pos int) (Event, bool) {
	l.index()
	e, ok := l.bySource[pos]
	return e, ok
}

// EggAt returns the egg awarded on floor.
func (l *Layout) EggAt(floor int) (Egg, bool) {
	l.index()
	e, ok := l.eggs[floor]
	return e, ok
}

// Events returns every ladder and trap ordered by source floor.
func (l *Layout) Events() []Event {
	out := make([]Event, 0, len(l.Ladders)+len(l.Traps))
	out = append(out, l.Ladders...)
	out = append(out, l.Traps...)
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
