// Package report renders a human readable summary of a descriptor.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/message"
	"fuzzdesc/pkg/address"
)

// PreviewWidth is the display width payload previews are cut to.
const PreviewWidth = 48

// Markdown summarizes the settings, messages and fuzz targets of d.
func Markdown(d *descriptor.Descriptor, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)

	b.WriteString("| setting | value |\n|---|---|\n")
	row(&b, "processor_dir", d.ProcessorDirectory)
	row(&b, "proto", d.Proto)
	row(&b, "port", fmt.Sprint(d.Port))
	row(&b, "mode", mode(d))
	row(&b, "failureThreshold", fmt.Sprint(d.FailureThreshold))
	row(&b, "failureTimeout", d.FailureTimeout.String())
	row(&b, "receiveTimeout", d.ReceiveTimeout.String())
	row(&b, "shouldPerformTestRun", fmt.Sprint(d.ShouldPerformTestRun))
	row(&b, "fuzz targets", orNone(d.FuzzTargetsString()))

	fmt.Fprintf(&b, "\n## Messages (%d)\n\n", len(d.Messages))
	if len(d.Messages) == 0 {
		b.WriteString("No messages.\n")
		return b.String()
	}
	b.WriteString("| # | direction | bytes | parts | fuzz | payload |\n|---|---|---|---|---|---|\n")
	for i, msg := range d.Messages {
		fmt.Fprintf(&b, "| %d | %s | %d | %d | %s | `%s` |\n",
			i, msg.Direction, len(msg.Original()), len(msg.Subcomponents),
			orNone(fuzzMarks(d, i, msg)), cell(Preview(msg.Original(), PreviewWidth)))
	}
	return b.String()
}

// HTML renders the Markdown summary of d as an HTML fragment.
func HTML(d *descriptor.Descriptor, name string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(d, name)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Preview returns the escaped form of payload cut to width display cells.
func Preview(payload []byte, width int) string {
	return runewidth.Truncate(message.Escape(payload), width, "…")
}

func fuzzMarks(d *descriptor.Descriptor, i int, msg *message.Message) string {
	var marks []string
	if d.IsFuzzTarget(address.Whole(i)) {
		marks = append(marks, "whole")
	}
	for j := range msg.Subcomponents {
		if a := address.Part(i, j); d.IsFuzzTarget(a) {
			marks = append(marks, a.String())
		}
	}
	return strings.Join(marks, ", ")
}

func mode(d *descriptor.Descriptor) string {
	if d.ClientMode {
		return "client"
	}
	return "server"
}

func row(b *strings.Builder, k, v string) {
	fmt.Fprintf(b, "| %s | %s |\n", k, cell(v))
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
