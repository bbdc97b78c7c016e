package pool

import (
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
)

var mediaExts = map[string]struct{}{
	".mp4": {},
	".avi": {},
	".mov": {},
}

func IsMedia(name string) bool {
	_, ok := mediaExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// GroupKey returns the part of the file name before the first "_". Names without a
// separator form their own group keyed by the stem.
func GroupKey(name string) string {
	base := filepath.Base(name)
	if i := strings.IndexByte(base, '_'); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Pool is an arena of clip descriptors partitioned into groups. Each group lists its
// entries longest first and is drained from the head. A Pool belongs to one scheduler
// at a time, see Claim.
type Pool struct {
	clips    []types.ClipDescriptor
	consumed []bool
	groups   map[string][]int
	cursor   map[string]int
	keys     []string
	claimed  atomic.Bool
}

func New(clips []types.ClipDescriptor) *Pool {
	p := &Pool{
		clips:    append([]types.ClipDescriptor(nil), clips...),
		consumed: make([]bool, len(clips)),
		groups:   map[string][]int{},
		cursor:   map[string]int{},
	}
	for i, c := range p.clips {
		k := GroupKey(c.Path)
		if _, ok := p.groups[k]; !ok {
			p.keys = append(p.keys, k)
		}
		p.groups[k] = append(p.groups[k], i)
	}
	sort.Strings(p.keys)
	for _, idxs := range p.groups {
		sort.SliceStable(idxs, func(a, b int) bool {
			ca, cb := p.clips[idxs[a]], p.clips[idxs[b]]
			if ca.Duration != cb.Duration {
				return ca.Duration > cb.Duration
			}
			return ca.Path < cb.Path
		})
	}
	return p
}

// Claim hands the pool to a single owner. A second claim fails with ErrPoolClaimed.
func (p *Pool) Claim() error {
	if !p.claimed.CompareAndSwap(false, true) {
		return errs.ErrPoolClaimed
	}
	return nil
}

func (p *Pool) Len() int { return len(p.clips) }

// Keys lists every group key in ascending order.
func (p *Pool) Keys() []string { return append([]string(nil), p.keys...) }

// NonEmpty lists, in ascending order, the groups that still hold clips.
func (p *Pool) NonEmpty() []string {
	var out []string
	for _, k := range p.keys {
		if p.cursor[k] < len(p.groups[k]) {
			out = append(out, k)
		}
	}
	return out
}

// Group returns the remaining clips of key, longest first.
func (p *Pool) Group(key string) []types.ClipDescriptor {
	idxs := p.groups[key]
	var out []types.ClipDescriptor
	for _, i := range idxs[min(p.cursor[key], len(idxs)):] {
		out = append(out, p.clips[i])
	}
	return out
}

// Head returns the longest remaining clip of key without consuming it.
func (p *Pool) Head(key string) (types.ClipDescriptor, bool) {
	idxs := p.groups[key]
	c := p.cursor[key]
	if c >= len(idxs) {
		return types.ClipDescriptor{}, false
	}
	return p.clips[idxs[c]], true
}

// Take consumes and returns the head of key.
func (p *Pool) Take(key string) (types.ClipDescriptor, bool) {
	idxs := p.groups[key]
	c := p.cursor[key]
	if c >= len(idxs) {
		return types.ClipDescriptor{}, false
	}
	p.consumed[idxs[c]] = true
	p.cursor[key] = c + 1
	return p.clips[idxs[c]], true
}

func (p *Pool) Available() int {
	n := 0
	for _, used := range p.consumed {
		if !used {
			n++
		}
	}
	return n
}

// Consumed lists the clips taken so far, in arena order.
func (p *Pool) Consumed() []types.ClipDescriptor {
	var out []types.ClipDescriptor
	for i, used := range p.consumed {
		if used {
			out = append(out, p.clips[i])
		}
	}
	return out
}
