package dub

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var bracketRangePattern = regexp.MustCompile(`\[(.*?)\]`)

// ImportTimeFile reads a speaker timefile and returns its intervals in
// order. Lines are free-form text; every `[start-end]` bracketed token is
// parsed independently, so the header line and blank lines are ignored
// automatically.
func ImportTimeFile(path string) ([]TimeRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ranges []TimeRange
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		for _, m := range bracketRangePattern.FindAllStringSubmatch(line, -1) {
			parts := strings.SplitN(m[1], "-", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("%w: malformed range %q in %s", ErrUnparseableTime, m[1], path)
			}
			start, err := ParseTimeString(parts[0])
			if err != nil {
				return nil, err
			}
			end, err := ParseTimeString(parts[1])
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, TimeRange{Start: start, End: end})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ranges, nil
}

// ReadSpeakerTimefiles reads speakerN.txt files (N starting at 1)
// sequentially from directory until one is missing, reconstructing each
// speaker's segments and TotalTime.
func ReadSpeakerTimefiles(directory string) ([]Speaker, error) {
	var speakers []Speaker
	for n := 1; ; n++ {
		path := filepath.Join(directory, fmt.Sprintf("speaker%d.txt", n))
		if _, err := os.Stat(path); err != nil {
			break
		}
		ranges, err := ImportTimeFile(path)
		if err != nil {
			return nil, err
		}
		segments := make([]Segment, len(ranges))
		total := 0.0
		for i, r := range ranges {
			segments[i] = Segment{Start: r.Start, End: r.End}
			total += r.End - r.Start
		}
		speakers = append(speakers, Speaker{
			Label:     fmt.Sprintf("Speaker%d", n),
			TotalTime: total,
			Segments:  segments,
		})
	}
	return speakers, nil
}

// SpeakerTimefilesExist reports whether a speakerN.txt file already exists
// for every one of count speakers, so diarization can be skipped in favor
// of a manually-corrected set of timefiles.
func SpeakerTimefilesExist(directory string, count int) bool {
	for n := 1; n <= count; n++ {
		path := filepath.Join(directory, fmt.Sprintf("speaker%d.txt", n))
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return count > 0
}

// WriteSpeakerTimefiles writes one speakerN.txt file per speaker into
// directory, in the header-then-bracketed-ranges format the parser above
// accepts back.
func WriteSpeakerTimefiles(speakers []Speaker, directory string) error {
	for i, sp := range speakers {
		n := i + 1
		path := filepath.Join(directory, fmt.Sprintf("speaker%d.txt", n))

		var b strings.Builder
		fmt.Fprintf(&b, "Speaker %d total: %s\n\n", n, FormatTimeString(sp.TotalTime))
		for _, seg := range sp.Segments {
			fmt.Fprintf(&b, "[%.1f-%.1f]\n", seg.Start, seg.End)
		}

		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
