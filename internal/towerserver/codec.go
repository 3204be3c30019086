package towerserver

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/tower"
)

// errField reports a missing or malformed request field.
type errField struct {
	name   string
	reason string
}

func (e *errField) Error() string { return fmt.Sprintf("field %q %s", e.name, e.reason) }

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", &errField{name, "is required"}
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", &errField{name, "must be a string"}
	}
	return s.StringValue, nil
}

func userIDField(req *structpb.Struct) (uuid.UUID, error) {
	s, err := stringField(req, "user_id")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &errField{"user_id", "must be a UUID"}
	}
	return id, nil
}

// intField reads an integral number within [lo, hi].
func intField(req *structpb.Struct, name string, lo, hi int64) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, &errField{name, "is required"}
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, &errField{name, "must be a number"}
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
		return 0, &errField{name, fmt.Sprintf("must be an integer in [%d, %d]", lo, hi)}
	}
	return int64(f), nil
}

func eventValue(e board.Event) map[string]any {
	return map[string]any{
		"source": e.Source,
		"target": e.Target,
		"kind":   string(e.Kind),
		"delta":  e.Delta,
	}
}

func eggValue(e board.Egg) map[string]any {
	return map[string]any{
		"floor":      e.Floor,
		"monster_id": e.MonsterID,
	}
}

func layoutValue(l *board.Layout) map[string]any {
	ladders := make([]any, 0, len(l.Ladders))
	for _, e := range l.Ladders {
		ladders = append(ladders, eventValue(e))
	}
	traps := make([]any, 0, len(l.Traps))
	for _, e := range l.Traps {
		traps = append(traps, eventValue(e))
	}
	eggs := make([]any, 0, len(l.Eggs))
	for _, e := range l.Eggs {
		eggs = append(eggs, eggValue(e))
	}
	return map[string]any{
		"seed":      l.Seed,
		"ladders":   ladders,
		"traps":     traps,
		"eggs":      eggs,
		"fallbacks": l.Fallbacks,
	}
}

func stringList(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func progressValue(p *tower.Progress) map[string]any {
	return map[string]any{
		"id":               p.ID.String(),
		"user_id":          p.UserID.String(),
		"seed":             p.Seed,
		"current_floor":    p.CurrentFloor,
		"dice_count":       p.DiceCount,
		"monsters":         stringList(p.Monsters),
		"eggs":             stringList(p.Eggs()),
		"total_climbs":     p.TotalClimbs,
		"highest_floor":    p.HighestFloor,
		"last_roll":        p.LastRoll,
		"last_event_kind":  string(p.LastEventKind),
		"last_event_floor": p.LastEventFloor,
		"reached_top":      p.ReachedTop(),
		"updated_at":       p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func climbValue(p *tower.Progress, res tower.ClimbResult) map[string]any {
	out := map[string]any{
		"progress":    progressValue(p),
		"roll":        res.Roll,
		"landed":      res.Landed,
		"floor":       res.Floor,
		"reached_top": res.ReachedTop,
		"event":       nil,
		"egg":         nil,
	}
	if res.Event != nil {
		out["event"] = eventValue(*res.Event)
	}
	if res.Egg != nil {
		out["egg"] = eggValue(*res.Egg)
	}
	return out
}
