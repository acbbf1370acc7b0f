// Package template supplies the processor boilerplate appended after the
// END FUZZER marker of every written descriptor.
package template

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed processor.tmpl
var processorTemplate []byte

// Source provides the opaque tail copied verbatim into a written descriptor.
type Source interface {
	Tail() ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]byte, error)

func (f SourceFunc) Tail() ([]byte, error) { return f() }

// Embedded returns the built-in processor template.
func Embedded() Source {
	return SourceFunc(func() ([]byte, error) {
		return append([]byte(nil), processorTemplate...), nil
	})
}

// File reads the tail from path on every call.
func File(path string) Source {
	return SourceFunc(func() ([]byte, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read processor template %s: %w", path, err)
		}
		return b, nil
	})
}

// Static always returns text.
func Static(text string) Source {
	return SourceFunc(func() ([]byte, error) {
		return []byte(text), nil
	})
}
