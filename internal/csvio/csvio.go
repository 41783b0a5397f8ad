// Package csvio reads and writes the semicolon-delimited file formats the
// original tool exchanges with the outside world: a link (topology) file,
// a demand file, an assignment file, and the per-round output files.
// Every field on disk is 1-based; this package translates to and from the
// 0-based indices used internally.
package csvio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const delimiter = ";"

// writer wraps a bufio.Writer with the teacher's deferred-error idiom: a
// sequence of Write calls accumulates a single error, checked once at the
// end instead of after every field.
type writer struct {
	w   *bufio.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: bufio.NewWriter(w)}
}

// field writes one value followed by the field delimiter.
func (cw *writer) field(value string) {
	if cw.err != nil {
		return
	}
	_, cw.err = cw.w.WriteString(value + delimiter)
}

// fieldf is field with fmt.Sprintf formatting.
func (cw *writer) fieldf(format string, args ...any) {
	cw.field(fmt.Sprintf(format, args...))
}

// raw writes value with no trailing delimiter, for a row's final cell:
// a handful of footer lines in the original format omit the delimiter
// before the newline, unlike the loop-built rows that precede them.
func (cw *writer) raw(value string) {
	if cw.err != nil {
		return
	}
	_, cw.err = cw.w.WriteString(value)
}

// newline ends the current row.
func (cw *writer) newline() {
	if cw.err != nil {
		return
	}
	_, cw.err = cw.w.WriteString("\n")
}

// flush flushes the underlying buffer and returns the first error seen by
// this writer, if any.
func (cw *writer) flush() error {
	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}

// splitRow mirrors CSVReader's dumb semicolon split: no quoting, no
// trimming, so a trailing delimiter yields a trailing empty field.
func splitRow(line string) []string {
	return strings.Split(line, delimiter)
}

// readRows reads every line of path and splits each on the delimiter.
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvio: open %s: %w", path, err)
	}
	defer f.Close()

	var rows [][]string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		rows = append(rows, splitRow(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("csvio: read %s: %w", path, err)
	}
	return rows, nil
}

// betweenLast returns the substring of s between the last occurrence of
// first and the last occurrence of last, matching getInBetweenString's
// "rightmost delimiter" semantics (the assignment header uses this to
// pull "3" out of "k_3=(1,2,4)" and "(1,2,4)" out of the same string).
func betweenLast(s, first, last string) string {
	firstIdx := strings.LastIndex(s, first)
	lastIdx := strings.LastIndex(s, last)
	if firstIdx < 0 || lastIdx < 0 || firstIdx+len(first) > lastIdx {
		return ""
	}
	return s[firstIdx+len(first) : lastIdx]
}
