package subtitles

import (
	"fmt"
	"strings"
	"time"
)

// RenderLabelASS builds a subtitle file that shows label for the whole clip. The
// renderer burns one file per trimmed segment, so event times are clip-local.
func RenderLabelASS(label string, dur time.Duration, width, height int) string {
	var b strings.Builder
	b.WriteString(assHeader(width, height))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	b.WriteString("Dialogue: 0,0:00:00.00,")
	b.WriteString(assTime(dur))
	b.WriteString(",Label,,0,0,0,,")
	b.WriteString(sanitizeASS(label))
	b.WriteString("\n")
	return b.String()
}

func assHeader(width, height int) string {
	// Font size follows the frame height so labels keep their proportion at any size.
	fontSize := height / 9
	if fontSize < 12 {
		fontSize = 12
	}
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Label, Inter, %d, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,4,2,2, 40,40,40,1
`, width, height, fontSize))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", "\\N")
	return s
}
