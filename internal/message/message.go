// Package message holds one turn of a captured conversation: its direction,
// its payload bytes split into sub-parts, and free-form attributes.
package message

import (
	"bytes"
	"fmt"
	"strings"
)

// Direction is the flow of a message relative to the fuzzer.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

// String returns the descriptor keyword for d.
func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// ParseDirection maps a descriptor keyword to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "inbound":
		return Inbound, nil
	case "outbound":
		return Outbound, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Subcomponent is one line's worth of payload. Sub-part 0 comes from the
// inbound/outbound line, the rest from "more" lines.
type Subcomponent struct {
	Attributes []string
	original   []byte
}

// Original returns the sub-part bytes.
func (s *Subcomponent) Original() []byte {
	return s.original
}

// SetOriginal replaces the sub-part bytes with a copy of b.
func (s *Subcomponent) SetOriginal(b []byte) {
	s.original = append([]byte(nil), b...)
}

// Message is one conversation turn.
type Message struct {
	Direction     Direction
	Attributes    []string
	Subcomponents []*Subcomponent
}

// New returns a single-part message carrying payload.
func New(dir Direction, payload []byte) *Message {
	m := &Message{Direction: dir}
	m.SetOriginal(payload)
	return m
}

// SetFromSerialized initializes m from an inbound/outbound line such as
// "outbound fuzz 'GET /\r\n'". Only direction and payload are taken from
// the line; attributes are the caller's business.
func (m *Message) SetFromSerialized(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("empty message line")
	}
	dir, err := ParseDirection(fields[0])
	if err != nil {
		return err
	}
	payload, err := PayloadFromLine(line)
	if err != nil {
		return err
	}
	m.Direction = dir
	m.Subcomponents = []*Subcomponent{{original: payload}}
	return nil
}

// AppendFromSerialized adds the payload of a "more" line as a new sub-part.
func (m *Message) AppendFromSerialized(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "more" {
		return fmt.Errorf("not a continuation line: %q", line)
	}
	payload, err := PayloadFromLine(line)
	if err != nil {
		return err
	}
	m.Subcomponents = append(m.Subcomponents, &Subcomponent{original: payload})
	return nil
}

// Original returns the concatenated bytes of all sub-parts.
func (m *Message) Original() []byte {
	parts := make([][]byte, len(m.Subcomponents))
	for i, s := range m.Subcomponents {
		parts[i] = s.original
	}
	return bytes.Join(parts, nil)
}

// SetOriginal replaces the whole payload with b as a single sub-part.
// Attributes of the first sub-part are kept.
func (m *Message) SetOriginal(b []byte) {
	var attrs []string
	if len(m.Subcomponents) > 0 {
		attrs = m.Subcomponents[0].Attributes
	}
	sub := &Subcomponent{Attributes: attrs}
	sub.SetOriginal(b)
	m.Subcomponents = []*Subcomponent{sub}
}

// Serialized returns the whole payload as a quoted, escaped string.
func (m *Message) Serialized() string {
	return Quote(m.Original())
}

// Quote escapes b and wraps it in single quotes.
func Quote(b []byte) string {
	return "'" + Escape(b) + "'"
}

// PayloadFromLine extracts and unescapes the text between the first and the
// last single quote of line. A line without quotes carries no payload.
func PayloadFromLine(line string) ([]byte, error) {
	first := strings.IndexByte(line, '\'')
	if first < 0 {
		return nil, nil
	}
	last := strings.LastIndexByte(line, '\'')
	if last == first {
		return nil, fmt.Errorf("unterminated payload in %q", line)
	}
	return Unescape(line[first+1 : last])
}
