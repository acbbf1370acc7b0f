// Package descriptor reads and writes fuzzer descriptors: the text files that
// record a captured conversation, its session settings and which parts of it
// are fuzzed.
package descriptor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"fuzzdesc/internal/message"
	"fuzzdesc/internal/rangespec"
)

// EndMarker separates descriptor content from the processor template.
const EndMarker = "########END FUZZER########\n"

// Descriptor is the in-memory form of one .fuzzer file.
type Descriptor struct {
	// ProcessorDirectory holds custom processors, or "default".
	ProcessorDirectory string
	// FailureThreshold is how many times a crashing test case is retried.
	FailureThreshold uint
	// FailureTimeout is the wait between retries of a crashing test case.
	FailureTimeout time.Duration
	Proto          string
	Port           uint16
	// ShouldPerformTestRun requests an unfuzzed run before fuzzing starts.
	ShouldPerformTestRun bool
	ClientMode           bool
	FuzzDirection        message.Direction
	// ReceiveTimeout bounds each receive while replaying the conversation.
	ReceiveTimeout time.Duration

	Messages []*message.Message
	Comments *Ledger

	targets rotator

	unfuzzedBytes     map[int][]int
	unfuzzedBytesStrs map[int]string
}

// New returns a descriptor populated with defaults.
func New() *Descriptor {
	return &Descriptor{
		ProcessorDirectory:   "default",
		FailureThreshold:     3,
		FailureTimeout:       5 * time.Second,
		Proto:                "tcp",
		ShouldPerformTestRun: true,
		ClientMode:           true,
		FuzzDirection:        message.Outbound,
		ReceiveTimeout:       time.Second,
		Comments:             NewLedger(),
		unfuzzedBytes:        make(map[int][]int),
		unfuzzedBytesStrs:    make(map[int]string),
	}
}

// SetUnfuzzedBytesFromString records which byte offsets of message msg are
// never fuzzed, from a selection such as "1,3,5-10".
func (d *Descriptor) SetUnfuzzedBytesFromString(msg int, s string) error {
	offsets, err := rangespec.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid unfuzzed bytes for message %d: %w", msg, err)
	}
	d.unfuzzedBytes[msg] = offsets
	d.unfuzzedBytesStrs[msg] = s
	return nil
}

// UnfuzzedBytes returns the excluded offsets of message msg.
func (d *Descriptor) UnfuzzedBytes(msg int) ([]int, bool) {
	offsets, ok := d.unfuzzedBytes[msg]
	return append([]int(nil), offsets...), ok
}

// UnfuzzedBytesString returns the selection literal for message msg.
func (d *Descriptor) UnfuzzedBytesString(msg int) string {
	return d.unfuzzedBytesStrs[msg]
}

// Hash identifies the conversation: protocol, port and every message's
// direction and payload. Comments and settings that do not change what goes
// on the wire are ignored.
func (d *Descriptor) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d", d.Proto, d.Port)
	for _, m := range d.Messages {
		payload := m.Original()
		fmt.Fprintf(h, "|%s|%d:", m.Direction, len(payload))
		h.Write(payload)
	}
	return hex.EncodeToString(h.Sum(nil))
}
