package descriptor

import (
	"bytes"

	"fuzzdesc/internal/message"
)

// Payloads that are at most this printable are never wrapped.
const printableThreshold = 0.80

// printableRatio returns the fraction of b that is printable ASCII.
func printableRatio(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	count := 0
	for _, c := range b {
		if message.IsPrintable(c) {
			count++
		}
	}
	return float64(count) / float64(len(b))
}

// wrapPayload splits raw after every occurrence of delim. The returned
// chunks all end with delim; rest is whatever follows the last occurrence.
// ok is false when raw should stay on one line: wrapping is disabled, the
// payload is mostly binary, or delim never occurs.
func wrapPayload(raw, delim []byte) (chunks [][]byte, rest []byte, ok bool) {
	if len(delim) == 0 || printableRatio(raw) <= printableThreshold {
		return nil, nil, false
	}
	if !bytes.Contains(raw, delim) {
		return nil, nil, false
	}

	pieces := bytes.SplitAfter(raw, delim)
	rest = pieces[len(pieces)-1]
	for _, p := range pieces[:len(pieces)-1] {
		if len(p) > 0 {
			chunks = append(chunks, p)
		}
	}
	return chunks, rest, true
}
