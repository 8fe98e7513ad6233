package credential

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// remoteMinFields is the field count below which a potfile line is noise.
const remoteMinFields = 4

var ErrBlankLine = errors.New("blank line")

// ParseRemoteLine extracts the canonical form from one line of a remote
// potfile dump. Fields 2 and 3 are the SSID and password; lines with fewer
// than four fields are dropped without error.
func ParseRemoteLine(line string) (string, bool) {
	fields := strings.Split(strings.TrimSpace(line), Separator)
	if len(fields) < remoteMinFields {
		return "", false
	}
	return fields[2] + Separator + fields[3], true
}

// ParseRemoteDump normalizes a whole remote dump.
func ParseRemoteDump(text string) Set {
	s := NewSet()
	for _, line := range strings.Split(text, "\n") {
		if c, ok := ParseRemoteLine(line); ok {
			s.Add(c)
		}
	}
	return s
}

// ParseLocalLine validates a line of the local cracked list, which is already
// in canonical form. Blank lines return ErrBlankLine.
func ParseLocalLine(line string) (string, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", ErrBlankLine
	}
	if len(strings.Split(trimmed, Separator)) != 2 {
		return "", &ParseError{Text: trimmed}
	}
	return trimmed, nil
}

// ParseLocalList reads the local cracked list. Malformed lines are skipped and
// returned as *ParseError values; they never stop the scan.
func ParseLocalList(r io.Reader) (Set, []error, error) {
	s := NewSet()
	var parseErrs []error

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		c, err := ParseLocalLine(scanner.Text())
		if err != nil {
			if errors.Is(err, ErrBlankLine) {
				continue
			}
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = lineNo
			}
			parseErrs = append(parseErrs, err)
			continue
		}
		s.Add(c)
	}
	if err := scanner.Err(); err != nil {
		return nil, parseErrs, err
	}
	return s, parseErrs, nil
}
