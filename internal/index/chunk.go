// Package index builds searchable per-policy vector indexes over line-window
// chunks, so retrieved snippets can be cited back to exact line ranges.
package index

import (
	"strings"
)

// Chunk is one line-window of a policy document. Line numbers are 1-based
// and inclusive, so citations can point at the source text.
type Chunk struct {
	Source    string
	LineStart int
	LineEnd   int
	Content   string
}

const (
	// DefaultWindowChars bounds the size of one chunk.
	DefaultWindowChars = 600
	// DefaultOverlapLines is how many trailing lines carry into the next window.
	DefaultOverlapLines = 5
)

// LineWindows splits text into windows of at most windowChars characters,
// breaking on line boundaries and overlapping by overlapLines lines. Each
// window records the line range it covers. Empty windows are dropped.
func LineWindows(source, text string, windowChars, overlapLines int) []Chunk {
	if windowChars <= 0 {
		windowChars = DefaultWindowChars
	}
	if overlapLines < 0 {
		overlapLines = DefaultOverlapLines
	}

	lines := strings.Split(text, "\n")

	var chunks []Chunk
	var buf []string
	startLn, curLen := 1, 0

	flush := func(endLn int) {
		txt := strings.TrimSpace(strings.Join(buf, "\n"))
		if txt != "" {
			chunks = append(chunks, Chunk{
				Source:    source,
				LineStart: startLn,
				LineEnd:   endLn,
				Content:   txt,
			})
		}
	}

	for i, line := range lines {
		ln := i + 1
		seg := len(line) + 1

		if curLen+seg > windowChars && len(buf) > 0 {
			flush(ln - 1)

			// Start the next window with the tail of this one.
			keep := buf
			if overlapLines < len(buf) {
				keep = buf[len(buf)-overlapLines:]
			}
			buf = append([]string(nil), keep...)
			startLn = ln - len(buf)
			if startLn < 1 {
				startLn = 1
			}
			curLen = 0
			for _, l := range buf {
				curLen += len(l) + 1
			}
		}

		buf = append(buf, line)
		curLen += seg
	}
	flush(len(lines))

	return chunks
}
