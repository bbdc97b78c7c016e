package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/forPelevin/notecut/internal/types"
)

// OverlapPolicy decides which side of an overlap gives way.
type OverlapPolicy int

const (
	// ClampHead moves the later event's start to the previous end.
	ClampHead OverlapPolicy = iota
	// TrimTail cuts the previous cue at the later event's start.
	TrimTail
)

func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch s {
	case "", "clamp-head":
		return ClampHead, nil
	case "trim-tail":
		return TrimTail, nil
	}
	return 0, fmt.Errorf("unknown overlap policy %q (want clamp-head or trim-tail)", s)
}

func (p OverlapPolicy) String() string {
	if p == TrimTail {
		return "trim-tail"
	}
	return "clamp-head"
}

type Result struct {
	Cues []types.Cue
	// Dropped holds events left without positive duration, in timeline order.
	Dropped []types.TimedEvent
}

// Normalize turns unordered, possibly overlapping or gapped events into a contiguous
// cue timeline:
//   - events are ordered by start (stable, so equal starts keep input order)
//   - overlaps are resolved according to policy
//   - a gap is closed by stretching the previous cue; a leading gap is left as is
//   - an event without positive duration after resolution is dropped
func Normalize(events []types.TimedEvent, policy OverlapPolicy) Result {
	sorted := make([]types.TimedEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var (
		res     Result
		srcs    []types.TimedEvent
		lastEnd time.Duration
	)
	for _, ev := range sorted {
		if ev.End <= ev.Start {
			res.Dropped = append(res.Dropped, ev)
			continue
		}
		start := ev.Start
		if start < lastEnd {
			switch policy {
			case TrimTail:
				n := len(res.Cues)
				res.Cues[n-1].End = start
				if res.Cues[n-1].End <= res.Cues[n-1].Start {
					res.Dropped = append(res.Dropped, srcs[n-1])
					res.Cues, srcs = res.Cues[:n-1], srcs[:n-1]
				}
				lastEnd = start
			default:
				start = lastEnd
			}
		}
		if start >= ev.End {
			res.Dropped = append(res.Dropped, ev)
			continue
		}
		if n := len(res.Cues); n > 0 && start > lastEnd {
			res.Cues[n-1].End = start
		}
		res.Cues = append(res.Cues, types.Cue{Start: start, End: ev.End, Label: ev.Label})
		srcs = append(srcs, ev)
		lastEnd = ev.End
	}
	for i := range res.Cues {
		res.Cues[i].Index = i + 1
	}
	return res
}

// Validate reports the first broken timeline invariant, if any.
func Validate(cues []types.Cue) error {
	for i, c := range cues {
		if c.Index != i+1 {
			return fmt.Errorf("cue %d: index %d is not sequential", i+1, c.Index)
		}
		if c.Start > c.End {
			return fmt.Errorf("cue %d: start %s after end %s", c.Index, c.Start, c.End)
		}
		if i > 0 && cues[i-1].End != c.Start {
			return fmt.Errorf("cue %d: starts at %s but previous cue ends at %s", c.Index, c.Start, cues[i-1].End)
		}
	}
	return nil
}

// FromCues converts parsed cues back to events so they can be re-normalized.
func FromCues(cues []types.Cue) []types.TimedEvent {
	out := make([]types.TimedEvent, 0, len(cues))
	for _, c := range cues {
		out = append(out, types.TimedEvent{Label: c.Label, Start: c.Start, End: c.End})
	}
	return out
}
