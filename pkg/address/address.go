package address

import (
	"fmt"
	"strconv"
	"strings"
)

// Address identifies a fuzz target: either a whole message or one sub-part of it.
type Address struct {
	Message int // index into the conversation
	Part    int // sub-part index, meaningful only when HasPart is true
	HasPart bool
}

// Whole addresses message i as a unit.
func Whole(i int) Address {
	return Address{Message: i}
}

// Part addresses sub-part j of message i. Sub-part 0 is the payload of the
// inbound/outbound line, j >= 1 are the "more" lines that follow it.
func Part(i, j int) Address {
	return Address{Message: i, Part: j, HasPart: true}
}

// String returns the descriptor form of the address, "i" or "i.j".
func (a Address) String() string {
	if a.HasPart {
		return fmt.Sprintf("%d.%d", a.Message, a.Part)
	}
	return strconv.Itoa(a.Message)
}

// Parse reads "i" or "i.j". Only a single dotted level is accepted.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	head, tail, dotted := strings.Cut(s, ".")
	msg, err := parseIndex(head)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if !dotted {
		return Whole(msg), nil
	}
	part, err := parseIndex(tail)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Part(msg, part), nil
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty index")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative index %d", n)
	}
	return n, nil
}
