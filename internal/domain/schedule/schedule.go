package schedule

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/forPelevin/notecut/internal/domain/pool"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/sirupsen/logrus"
)

// Rand is the source used to pick a group. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type Option func(*Scheduler)

func WithRand(r Rand) Option { return func(s *Scheduler) { s.rnd = r } }

func WithSeed(seed uint64) Option {
	return func(s *Scheduler) { s.rnd = seeded(seed) }
}

func WithLogger(l logrus.FieldLogger) Option { return func(s *Scheduler) { s.log = l } }

// Scheduler assigns one clip per cue from a pool it owns exclusively.
type Scheduler struct {
	pool *pool.Pool
	rnd  Rand
	log  logrus.FieldLogger
}

// New claims p for the returned scheduler. Without WithRand or WithSeed the group
// choice is seeded from crypto/rand.
func New(p *pool.Pool, opts ...Option) (*Scheduler, error) {
	if err := p.Claim(); err != nil {
		return nil, err
	}
	s := &Scheduler{pool: p}
	for _, o := range opts {
		o(s)
	}
	if s.rnd == nil {
		var b [8]byte
		if _, err := io.ReadFull(crand.Reader, b[:]); err != nil {
			return nil, fmt.Errorf("seed scheduler: %w", err)
		}
		s.rnd = seeded(binary.LittleEndian.Uint64(b[:]))
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	return s, nil
}

func seeded(seed uint64) *rand.Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return rand.New(rand.NewChaCha8(key))
}

// Assign resolves every cue in order. On failure no segments are returned; clips
// consumed for earlier cues stay consumed.
func (s *Scheduler) Assign(cues []types.Cue, progress func(current, total int)) ([]types.AssignedSegment, error) {
	out := make([]types.AssignedSegment, 0, len(cues))
	for i, c := range cues {
		target := c.Duration()
		if target <= 0 {
			return nil, errs.Input("cue %d has non-positive duration %s", c.Index, target)
		}
		key, clip, ok := s.pick(target)
		if !ok {
			return nil, fmt.Errorf("%w: no clip of %s or longer for cue %d (%d of %d clips left)",
				errs.ErrResourceExhaustion, target, c.Index, s.pool.Available(), s.pool.Len())
		}
		s.log.WithFields(logrus.Fields{
			"cue":   c.Index,
			"group": key,
			"clip":  clip.Path,
		}).Debugf("assigned %s of %s", target, clip.Duration)

		out = append(out, types.AssignedSegment{
			CueIndex:   c.Index,
			SourcePath: clip.Path,
			Group:      key,
			TrimStart:  0,
			TrimEnd:    target,
		})
		if progress != nil {
			progress(i+1, len(cues))
		}
	}
	return out, nil
}

// pick chooses a random non-empty group and takes its head when long enough.
// Otherwise the other candidates are probed in key order and the first head that fits
// is taken. Probing only peeks: a head is consumed only when it is assigned. A chosen
// group that cannot serve the target is dropped from this cue's candidates; its head
// is the group's longest clip, so nothing else in it could.
func (s *Scheduler) pick(target time.Duration) (string, types.ClipDescriptor, bool) {
	candidates := s.pool.NonEmpty()
	for len(candidates) > 0 {
		i := s.rnd.IntN(len(candidates))
		key := candidates[i]
		if head, _ := s.pool.Head(key); head.Duration >= target {
			c, _ := s.pool.Take(key)
			return key, c, true
		}
		for _, other := range candidates {
			if other == key {
				continue
			}
			if head, _ := s.pool.Head(other); head.Duration >= target {
				c, _ := s.pool.Take(other)
				return other, c, true
			}
		}
		candidates = append(candidates[:i:i], candidates[i+1:]...)
	}
	return "", types.ClipDescriptor{}, false
}
