package chunker

import (
	"regexp"
	"strings"
)

// Default chunking parameters, in characters.
const (
	// DefaultMaxChunkSize is the upper bound for a chunk's content.
	DefaultMaxChunkSize = 2000

	// DefaultMinChunkSize is the lower bound; shorter candidate
	// sections are dropped.
	DefaultMinChunkSize = 200

	// DefaultOverlap is the number of characters shared between
	// consecutive sliding-window chunks.
	DefaultOverlap = 100

	// boundarySearchSpan is how far back from a window end the
	// sliding window looks for a sentence or paragraph boundary.
	boundarySearchSpan = 200
)

// Options configures the Split algorithm. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// MaxChunkSize is the upper bound for chunk content length.
	MaxChunkSize int

	// MinChunkSize is the lower bound; sections shorter than this are
	// dropped, except the single-chunk short circuit and the final
	// chunk of a document.
	MinChunkSize int

	// Overlap is the character overlap between consecutive
	// sliding-window chunks.
	Overlap int

	// SplitByHeaders enables markdown heading segmentation.
	SplitByHeaders bool

	// PreserveQA enables question/answer segmentation when no
	// headings are present.
	PreserveQA bool
}

// DefaultOptions returns the standard chunking configuration.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize:   DefaultMaxChunkSize,
		MinChunkSize:   DefaultMinChunkSize,
		Overlap:        DefaultOverlap,
		SplitByHeaders: true,
		PreserveQA:     true,
	}
}

// sanitized replaces malformed option values with workable ones.
// Malformed options are a caller contract violation; this keeps the
// algorithm from dividing by zero or looping rather than promising any
// particular recovery.
func (o Options) sanitized() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.MinChunkSize <= 0 || o.MinChunkSize > o.MaxChunkSize {
		o.MinChunkSize = o.MaxChunkSize / 10
		if o.MinChunkSize == 0 {
			o.MinChunkSize = 1
		}
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.MaxChunkSize {
		o.Overlap = o.MaxChunkSize / 4
	}
	return o
}

// Segment is one chunk of a split document. StartChar and EndChar are
// always expressed in original-document coordinates, including for
// segments produced by recursive calls on sub-sections.
type Segment struct {
	// Content is the chunk text, trimmed of surrounding whitespace.
	Content string

	// Index is the ordinal position, assigned in increasing
	// left-to-right order starting at 0.
	Index int

	// Section is the heading title for header-split segments.
	Section string

	// IsQA marks segments produced by question/answer segmentation.
	IsQA bool

	// StartChar and EndChar are the segment's half-open span in the
	// input text. StartChar < EndChar always holds.
	StartChar int
	EndChar   int
}

// headingRe matches markdown-style heading lines with 1-3 leading '#'.
var headingRe = regexp.MustCompile(`(?m)^#{1,3}[ \t]+(.+)$`)

// qaMarkerRe matches question markers at line start.
var qaMarkerRe = regexp.MustCompile(`(?m)^Q:`)

// Split converts text into an ordered sequence of bounded, overlapping
// segments suitable for embedding and retrieval. It is a pure function
// of its inputs and never blocks.
//
// Strategies are tried in priority order: a whole-text short circuit,
// markdown heading segmentation, question/answer segmentation, and a
// sliding window with boundary-seeking cuts as the final fallback.
func Split(text string, opts Options) []Segment {
	opts = opts.sanitized()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Whole text fits in one chunk.
	if len(text) <= opts.MaxChunkSize {
		return []Segment{{
			Content:   strings.TrimSpace(text),
			Index:     0,
			StartChar: 0,
			EndChar:   len(text),
		}}
	}

	var segments []Segment

	headings := headingRe.FindAllStringSubmatchIndex(text, -1)

	switch {
	case opts.SplitByHeaders && len(headings) > 0:
		segments = splitByHeadings(text, headings, opts)

	case opts.PreserveQA:
		segments = splitByQA(text, opts)
	}

	// Neither structured method yielded more than one segment.
	if len(segments) <= 1 {
		segments = slideWindow(text, opts, 0, "", false)
	}

	for i := range segments {
		segments[i].Index = i
	}
	return segments
}

// splitByHeadings cuts text at markdown heading boundaries. Each
// section between consecutive headings becomes a candidate segment
// tagged with its heading title; oversized sections are re-chunked by
// the sliding window and undersized ones are dropped.
func splitByHeadings(text string, headings [][]int, opts Options) []Segment {
	var segments []Segment

	// Content before the first heading is retained as an
	// "Introduction" segment when long enough.
	lead := text[:headings[0][0]]
	if len(strings.TrimSpace(lead)) >= opts.MinChunkSize {
		segments = append(segments, sectionSegments(lead, 0, "Introduction", opts)...)
	}

	for i, h := range headings {
		title := strings.TrimSpace(text[h[2]:h[3]])

		bodyStart := h[1]
		if bodyStart < len(text) && text[bodyStart] == '\n' {
			bodyStart++
		}
		bodyEnd := len(text)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1][0]
		}

		body := text[bodyStart:bodyEnd]
		if len(strings.TrimSpace(body)) < opts.MinChunkSize {
			continue
		}
		segments = append(segments, sectionSegments(body, bodyStart, title, opts)...)
	}

	return segments
}

// sectionSegments turns one section body into segments, recursing into
// the sliding window when the body exceeds the chunk size limit.
// baseOffset is the section's position in the original document and is
// added back so nested spans stay in document coordinates.
func sectionSegments(body string, baseOffset int, title string, opts Options) []Segment {
	if len(body) > opts.MaxChunkSize {
		return slideWindow(body, opts, baseOffset, title, false)
	}
	return []Segment{{
		Content:   strings.TrimSpace(body),
		Section:   title,
		StartChar: baseOffset,
		EndChar:   baseOffset + len(body),
	}}
}

// splitByQA cuts text at repeated "Q:" markers. Each span from one
// marker to the next is a question+answer unit; oversized units are
// re-chunked by the sliding window. Returns nil unless at least two
// markers are present.
func splitByQA(text string, opts Options) []Segment {
	markers := qaMarkerRe.FindAllStringIndex(text, -1)
	if len(markers) < 2 {
		return nil
	}

	var segments []Segment

	// Preamble before the first marker, when substantial.
	lead := text[:markers[0][0]]
	if len(strings.TrimSpace(lead)) >= opts.MinChunkSize {
		segments = append(segments, sectionSegments(lead, 0, "", opts)...)
	}

	for i, m := range markers {
		start := m[0]
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}

		unit := text[start:end]
		if len(strings.TrimSpace(unit)) < opts.MinChunkSize {
			continue
		}

		if len(unit) > opts.MaxChunkSize {
			sub := slideWindow(unit, opts, start, "", true)
			segments = append(segments, sub...)
			continue
		}
		segments = append(segments, Segment{
			Content:   strings.TrimSpace(unit),
			IsQA:      true,
			StartChar: start,
			EndChar:   end,
		})
	}

	return segments
}

// slideWindow walks text in windows of MaxChunkSize, seeking a sentence
// terminator or paragraph break near each window end before cutting.
// The window start advances by (end - Overlap), clamped so it always
// moves forward. A hard iteration cap forces termination by flushing
// the remaining text as a final segment; this is defensive and not
// expected to trigger on well-formed input.
func slideWindow(text string, opts Options, baseOffset int, section string, isQA bool) []Segment {
	var segments []Segment

	maxIterations := len(text)/opts.MinChunkSize + 10
	start := 0

	for iteration := 0; start < len(text); iteration++ {
		if iteration >= maxIterations {
			// Flush whatever is left, regardless of size.
			segments = appendSegment(segments, text, start, len(text), baseOffset, section, isQA)
			break
		}

		end := start + opts.MaxChunkSize
		if end >= len(text) {
			// Final chunk; may be shorter than MinChunkSize.
			segments = appendSegment(segments, text, start, len(text), baseOffset, section, isQA)
			break
		}

		if cut := findBreakPoint(text, start, end, opts.MinChunkSize); cut > start {
			end = cut
		}
		segments = appendSegment(segments, text, start, end, baseOffset, section, isQA)

		next := end - opts.Overlap
		if next <= start {
			// Overlap would stall the window; force progress.
			next = end
		}
		start = next
	}

	return segments
}

// appendSegment adds text[start:end] as a segment unless it trims to
// nothing. Offsets are translated into document coordinates.
func appendSegment(segments []Segment, text string, start, end, baseOffset int, section string, isQA bool) []Segment {
	content := strings.TrimSpace(text[start:end])
	if content == "" {
		return segments
	}
	return append(segments, Segment{
		Content:   content,
		Section:   section,
		IsQA:      isQA,
		StartChar: baseOffset + start,
		EndChar:   baseOffset + end,
	})
}

// findBreakPoint searches backward from end for a sentence terminator,
// then for a paragraph break. The search floor is the later of
// (end - boundarySearchSpan) and (start + minChunkSize), so a cut never
// produces an undersized chunk. Returns 0 when no boundary was found.
func findBreakPoint(text string, start, end, minChunkSize int) int {
	floor := end - boundarySearchSpan
	if f := start + minChunkSize; f > floor {
		floor = f
	}
	if floor >= end {
		return 0
	}

	// Prefer a sentence terminator followed by whitespace.
	for i := end - 1; i > floor; i-- {
		c := text[i-1]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i < len(text) && text[i] != ' ' && text[i] != '\n' {
			continue
		}
		if c == '.' && isFalseSentenceEnd(text, i-1) {
			continue
		}
		return i
	}

	// Fall back to a paragraph break.
	if idx := strings.LastIndex(text[floor:end], "\n\n"); idx >= 0 {
		return floor + idx
	}

	return 0
}

// abbreviations that commonly precede a period mid-sentence.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "st": true,
	"vs": true, "etc": true, "approx": true, "dept": true, "fig": true,
}

// isFalseSentenceEnd reports whether the period at dot is likely a
// decimal point or an abbreviation rather than a sentence end. This is
// a naive guard, not a sentence tokenizer.
func isFalseSentenceEnd(text string, dot int) bool {
	// Decimal: digit on both sides of the period.
	if dot > 0 && dot+1 < len(text) && isDigit(text[dot-1]) && isDigit(text[dot+1]) {
		return true
	}

	// Word immediately before the period.
	wordStart := dot
	for wordStart > 0 && isLetter(text[wordStart-1]) {
		wordStart--
	}
	word := strings.ToLower(text[wordStart:dot])

	// Single letters read as initials ("J. Smith").
	if len(word) == 1 {
		return true
	}
	return abbreviations[word]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
