package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/forPelevin/notecut/internal/domain/timeline"
	"github.com/forPelevin/notecut/internal/types"
)

var reTiming = regexp.MustCompile(`^(\d{2,}:\d{2}:\d{2}[,.]\d{3}) --> (\d{2,}:\d{2}:\d{2}[,.]\d{3})$`)

type ParseResult struct {
	Cues    []types.Cue
	Skipped []types.SkippedBlock
}

type block struct {
	line  int
	lines []string
}

// ParseSRT reads index/timing/text blocks. Blocks that do not match the grammar are
// reported in Skipped and never abort the parse; only read errors do. Cues are
// re-indexed 1..n in file order.
func ParseSRT(r io.Reader) (ParseResult, error) {
	blocks, err := splitBlocks(r)
	if err != nil {
		return ParseResult{}, err
	}

	var res ParseResult
	for _, b := range blocks {
		c, reason := parseBlock(b)
		if reason != "" {
			res.Skipped = append(res.Skipped, types.SkippedBlock{Line: b.line, Reason: reason})
			continue
		}
		c.Index = len(res.Cues) + 1
		res.Cues = append(res.Cues, c)
	}
	return res, nil
}

func splitBlocks(r io.Reader) ([]block, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		out []block
		cur *block
		n   int
	)
	for sc.Scan() {
		n++
		ln := strings.TrimRight(sc.Text(), "\r")
		if n == 1 {
			ln = strings.TrimPrefix(ln, "\ufeff")
		}
		if strings.TrimSpace(ln) == "" {
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &block{line: n}
		}
		cur.lines = append(cur.lines, ln)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read cues: %w", err)
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out, nil
}

func parseBlock(b block) (types.Cue, string) {
	if len(b.lines) < 2 {
		return types.Cue{}, "block needs an index line and a timing line"
	}
	if _, err := strconv.Atoi(strings.TrimSpace(b.lines[0])); err != nil {
		return types.Cue{}, fmt.Sprintf("bad index %q", b.lines[0])
	}
	m := reTiming.FindStringSubmatch(strings.TrimSpace(b.lines[1]))
	if m == nil {
		return types.Cue{}, fmt.Sprintf("bad timing line %q", b.lines[1])
	}
	start, err := timeline.ParseTimestamp(m[1])
	if err != nil {
		return types.Cue{}, err.Error()
	}
	end, err := timeline.ParseTimestamp(m[2])
	if err != nil {
		return types.Cue{}, err.Error()
	}
	if end < start {
		return types.Cue{}, fmt.Sprintf("end %s before start %s", m[2], m[1])
	}
	text := strings.TrimSpace(strings.Join(b.lines[2:], "\n"))
	return types.Cue{Start: start, End: end, Label: text}, ""
}

// WriteCues writes cues in timeline order as index / timing / label blocks.
func WriteCues(w io.Writer, cues []types.Cue, sep byte) error {
	bw := bufio.NewWriter(w)
	for _, c := range cues {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			c.Index,
			timeline.FormatTimestamp(c.Start, sep),
			timeline.FormatTimestamp(c.End, sep),
			c.Label,
		)
	}
	return bw.Flush()
}
