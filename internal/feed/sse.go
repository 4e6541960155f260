package feed

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Event is one dispatched server-sent event.
type Event struct {
	// Type is the event field, "message" when absent.
	Type string
	Data string
	// LastID is the last event id seen on the stream. It persists across
	// events until the server sends a new id.
	LastID string
}

// Parser reads server-sent events from a stream.
type Parser struct {
	scanner *bufio.Scanner
	lastID  string
	// skipLF is set after a line ended in CR, so a following LF completes
	// a CRLF pair instead of ending an empty line.
	skipLF bool
}

// NewParser wraps r.
func NewParser(r io.Reader) *Parser {
	p := &Parser{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(p.splitLines)
	p.scanner = sc
	return p
}

// splitLines ends lines on CRLF, LF or a bare CR. A line ending in CR is
// returned at once rather than waiting to see whether LF follows.
func (p *Parser) splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	skipped := 0
	if p.skipLF && len(data) > 0 {
		p.skipLF = false
		if data[0] == '\n' {
			data = data[1:]
			skipped = 1
		}
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			p.skipLF = true
		}
		return skipped + i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return skipped + len(data), data, nil
	}
	return skipped, nil, nil
}

// Next returns the next event. It returns io.EOF when the stream ends
// cleanly; a partially received event at EOF is discarded.
func (p *Parser) Next() (Event, error) {
	var (
		typ     string
		data    strings.Builder
		hasData bool
	)
	for p.scanner.Scan() {
		line := p.scanner.Text()
		if line == "" {
			if !hasData {
				typ = ""
				continue
			}
			if typ == "" {
				typ = "message"
			}
			return Event{
				Type:   typ,
				Data:   strings.TrimSuffix(data.String(), "\n"),
				LastID: p.lastID,
			}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			typ = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				p.lastID = value
			}
		}
	}
	if err := p.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
