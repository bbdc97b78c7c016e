package smf

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/forPelevin/notecut/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// defaultTempo is 120 BPM expressed in microseconds per quarter note.
const defaultTempo = 500_000

var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName spells a MIDI key with sharps; key 60 is C4.
func NoteName(key uint8) string {
	return fmt.Sprintf("%s%d", pitchClasses[key%12], int(key)/12-1)
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

// Extract returns one event per sounded note, labelled with its name. Notes still held
// at the end of their track are ignored.
func (a *Adapter) Extract(ctx context.Context, midiPath string) ([]types.TimedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := smf.ReadFile(midiPath)
	if err != nil {
		return nil, fmt.Errorf("read midi %s: %w", midiPath, err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("read midi %s: only metric time format is supported", midiPath)
	}

	var (
		tempi []tempoChange
		notes []note
	)
	for ti, tr := range s.Tracks {
		var abs uint64
		open := map[[2]uint8][]uint64{}
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				tempi = append(tempi, tempoChange{tick: abs, usPerBeat: 60_000_000 / bpm})
				continue
			}
			var ch, key, vel uint8
			msg := midi.Message(ev.Message)
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				k := [2]uint8{ch, key}
				open[k] = append(open[k], abs)
			case msg.GetNoteEnd(&ch, &key):
				k := [2]uint8{ch, key}
				if starts := open[k]; len(starts) > 0 {
					notes = append(notes, note{track: ti, key: key, on: starts[0], off: abs})
					open[k] = starts[1:]
				}
			}
		}
	}
	return toEvents(notes, tempi, uint16(ticks)), nil
}

type tempoChange struct {
	tick      uint64
	usPerBeat float64
}

type note struct {
	track int
	key   uint8
	on    uint64
	off   uint64
}

func toEvents(notes []note, tempi []tempoChange, ppq uint16) []types.TimedEvent {
	sort.SliceStable(tempi, func(i, j int) bool { return tempi[i].tick < tempi[j].tick })
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].on != notes[j].on {
			return notes[i].on < notes[j].on
		}
		return notes[i].track < notes[j].track
	})
	out := make([]types.TimedEvent, 0, len(notes))
	for _, n := range notes {
		out = append(out, types.TimedEvent{
			Label: NoteName(n.key),
			Start: tickTime(n.on, ppq, tempi),
			End:   tickTime(n.off, ppq, tempi),
		})
	}
	return out
}

// tickTime converts an absolute tick to wall time under a sorted tempo map.
func tickTime(tick uint64, ppq uint16, tempi []tempoChange) time.Duration {
	if ppq == 0 {
		return 0
	}
	var (
		us       float64
		lastTick uint64
		tempo    float64 = defaultTempo
	)
	for _, tc := range tempi {
		if tc.tick >= tick {
			break
		}
		us += float64(tc.tick-lastTick) / float64(ppq) * tempo
		lastTick = tc.tick
		tempo = tc.usPerBeat
	}
	us += float64(tick-lastTick) / float64(ppq) * tempo
	return time.Duration(us * float64(time.Microsecond)).Round(time.Microsecond)
}
