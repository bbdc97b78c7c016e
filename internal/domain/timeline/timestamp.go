package timeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Millisecond separators: SepDot for cue output, SepComma for subtitle interop.
const (
	SepDot   byte = '.'
	SepComma byte = ','
)

var reTimestamp = regexp.MustCompile(`^(\d{2,}):([0-5]\d):([0-5]\d)[.,](\d{3})$`)

// FormatTimestamp renders d as HH:MM:SS.mmm. Hours do not wrap at 24.
func FormatTimestamp(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := int64(d.Round(time.Millisecond) / time.Millisecond)
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}

func ParseTimestamp(s string) (time.Duration, error) {
	m := reTimestamp.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("timestamp %q: want HH:MM:SS,mmm", s)
	}
	h, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", s, err)
	}
	// The last whole hour below the limit can still overflow with minutes added.
	if h >= math.MaxInt64/int64(time.Hour) {
		return 0, fmt.Errorf("timestamp %q: hours out of range", s)
	}
	mm, _ := strconv.Atoi(m[2])
	ss, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])
	return time.Duration(h)*time.Hour +
		time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
