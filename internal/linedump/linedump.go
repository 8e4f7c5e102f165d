// Package linedump prints a range of a file's lines with invisible
// characters made visible. It exists for chasing stray tabs, trailing
// whitespace and CRLF endings in source files.
package linedump

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrBadRange = errors.New("linedump: from is after to")

// Range is 1-based and inclusive. Zero To means "to the end".
type Range struct {
	From int
	To   int
}

// Line is one printed line.
type Line struct {
	Number  int
	Text    string // raw text without the newline
	Visible string // Text with markers
}

// Read returns the lines of r inside rng. Bounds outside the input are clamped.
func Read(r io.Reader, rng Range) ([]Line, error) {
	if rng.From < 1 {
		rng.From = 1
	}
	if rng.To != 0 && rng.From > rng.To {
		return nil, ErrBadRange
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	sc.Split(scanLinesKeepCR)

	var out []Line
	var last string
	n := 0
	for sc.Scan() {
		n++
		if n < rng.From {
			last = sc.Text()
			continue
		}
		if rng.To != 0 && n > rng.To {
			break
		}
		text := sc.Text()
		out = append(out, Line{Number: n, Text: text, Visible: Visible(text)})
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("scan: %w", err)
	}
	// From past the end clamps to the last line.
	if len(out) == 0 && n > 0 {
		out = append(out, Line{Number: n, Text: last, Visible: Visible(last)})
	}
	return out, nil
}

// ReadFile is Read over a named file.
func ReadFile(path string, rng Range) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, rng)
}

var (
	tabMarker      = strings.NewReplacer("\t", "→")
	trailingMarker = strings.NewReplacer("\t", "→", " ", "·")
)

// Visible marks tabs as →, a trailing CR as ␍ and spaces in the trailing
// whitespace run as ·.
func Visible(s string) string {
	cr := strings.HasSuffix(s, "\r")
	s = strings.TrimSuffix(s, "\r")
	body := strings.TrimRight(s, " \t")
	var b strings.Builder
	b.WriteString(tabMarker.Replace(body))
	b.WriteString(trailingMarker.Replace(s[len(body):]))
	if cr {
		b.WriteString("␍")
	}
	return b.String()
}

// Write prints lines as "%*d | text", right-aligning the numbers.
func Write(w io.Writer, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	width := len(fmt.Sprint(lines[len(lines)-1].Number))
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%*d | %s\n", width, l.Number, l.Visible); err != nil {
			return err
		}
	}
	return nil
}

// scanLinesKeepCR is bufio.ScanLines without dropping the '\r' of CRLF.
func scanLinesKeepCR(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
