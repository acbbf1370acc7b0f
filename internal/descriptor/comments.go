package descriptor

import "fmt"

// Ledger keys for settings and the trailing section.
const (
	KeyProcessorDir         = "processor_dir"
	KeyFailureThreshold     = "failureThreshold"
	KeyFailureTimeout       = "failureTimeout"
	KeyProto                = "proto"
	KeyPort                 = "port"
	KeyShouldPerformTestRun = "shouldPerformTestRun"
	KeyReceiveTimeout       = "receiveTimeout"
	KeyEndComments          = "endcomments"
)

// MessageKey returns the ledger key holding comments placed before message i.
func MessageKey(i int) string {
	return fmt.Sprintf("message%d", i)
}

// Ledger keeps the comment and blank lines that preceded each section of a
// descriptor, in the order sections were first seen.
type Ledger struct {
	keys    []string
	entries map[string]string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]string)}
}

// Set replaces the text stored under key.
func (l *Ledger) Set(key, text string) {
	if _, ok := l.entries[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.entries[key] = text
}

// Append adds text after whatever is already stored under key.
func (l *Ledger) Append(key, text string) {
	l.Set(key, l.entries[key]+text)
}

// Get returns the text under key, or "" when the key was never recorded.
func (l *Ledger) Get(key string) string {
	return l.entries[key]
}

// Has reports whether key was recorded, even with empty text.
func (l *Ledger) Has(key string) bool {
	_, ok := l.entries[key]
	return ok
}

// Keys returns the recorded keys in first-seen order.
func (l *Ledger) Keys() []string {
	return append([]string(nil), l.keys...)
}

// Len returns the number of recorded keys.
func (l *Ledger) Len() int {
	return len(l.keys)
}
