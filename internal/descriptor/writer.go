package descriptor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fuzzdesc/internal/message"
	"fuzzdesc/internal/template"
	"fuzzdesc/pkg/address"
)

// DefaultDelimiter is the escaped delimiter file writes wrap payloads on.
const DefaultDelimiter = `\n`

const fence = "'''\n"

// WriteOptions controls a write pass.
type WriteOptions struct {
	// DefaultComments replaces every preserved comment with the stock
	// explanation of each setting.
	DefaultComments bool
	// Final is the index of the last message written; nil writes them all.
	Final *int
	// Delimiter is the escaped byte sequence long printable payloads are
	// wrapped on. Empty disables wrapping.
	Delimiter string
	// NoWrap keeps WriteFile from falling back to DefaultDelimiter.
	NoWrap bool
	// Template supplies the tail after the END FUZZER marker; nil uses the
	// built-in processor template.
	Template template.Source
	Logger   *zerolog.Logger
}

// Through is a convenience for WriteOptions.Final.
func Through(i int) *int {
	return &i
}

func (o WriteOptions) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// Stock comments used when WriteOptions.DefaultComments is set.
const (
	defaultProcessorDirComment = "# Directory containing any custom exception/message/monitor processors\n" +
		"# This should be either an absolute path or relative to the .fuzzer file\n" +
		"# If set to \"default\", the processors in the same folder as the .fuzzer file are used\n"
	defaultFailureThresholdComment     = "# Number of times to retry a test case causing a crash\n"
	defaultFailureTimeoutComment       = "# How long to wait between retrying test cases causing a crash\n"
	defaultReceiveTimeoutComment       = "# How long for recv() to block when waiting on data from server\n"
	defaultShouldPerformTestRunComment = "# Whether to perform an unfuzzed test run before fuzzing\n"
	defaultProtoComment                = "# Protocol (udp or tcp)\n"
	defaultPortComment                 = "# Port number to connect to\n"
	defaultMessagesComment             = "# The actual messages in the conversation\n" +
		"# Each contains a message to be sent to or from the server, printably-formatted\n" +
		"# To fuzz a sub-message (a 'more' line), mark that line 'fuzz' as well\n"
)

// WriteFile writes d to path, or to the first free path-N sibling when path
// already exists. It never overwrites and returns the path actually used.
func (d *Descriptor) WriteFile(path string, opts WriteOptions) (string, error) {
	if opts.Delimiter == "" && !opts.NoWrap {
		opts.Delimiter = DefaultDelimiter
	}
	out, err := d.Render(opts)
	if err != nil {
		return "", err
	}

	target, err := AvailablePath(path)
	if err != nil {
		return "", err
	}
	if target != path {
		opts.logger().Warn().Str("requested", path).Str("path", target).Msg("File already exists, using a new name")
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create descriptor %s: %w", target, err)
	}
	if _, err := f.Write(out); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write descriptor %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write descriptor %s: %w", target, err)
	}
	return target, nil
}

// WriteTo renders d into w.
func (d *Descriptor) WriteTo(w io.Writer, opts WriteOptions) error {
	out, err := d.Render(opts)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Render returns the descriptor text followed by the template tail.
func (d *Descriptor) Render(opts WriteOptions) ([]byte, error) {
	final := len(d.Messages) - 1
	if opts.Final != nil {
		if *opts.Final < 0 || *opts.Final >= len(d.Messages) {
			return nil, fmt.Errorf("final message %d of %d: %w", *opts.Final, len(d.Messages), ErrMessageIndex)
		}
		final = *opts.Final
	}
	delim, err := message.Unescape(opts.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("invalid delimiter %q: %w", opts.Delimiter, err)
	}
	src := opts.Template
	if src == nil {
		src = template.Embedded()
	}

	w := &writer{d: d, defaults: opts.DefaultComments, delim: delim}
	w.b.WriteString(fence)

	w.setting(KeyProcessorDir, defaultProcessorDirComment, "processor_dir %s\n", d.ProcessorDirectory)
	w.setting(KeyFailureThreshold, defaultFailureThresholdComment, "failureThreshold %d\n", d.FailureThreshold)
	w.setting(KeyFailureTimeout, defaultFailureTimeoutComment, "failureTimeout %s\n", formatSeconds(d.FailureTimeout))
	w.setting(KeyReceiveTimeout, defaultReceiveTimeoutComment, "receiveTimeout %s\n", formatSeconds(d.ReceiveTimeout))
	w.setting(KeyShouldPerformTestRun, defaultShouldPerformTestRunComment, "shouldPerformTestRun %d\n", boolFlag(d.ShouldPerformTestRun))
	w.setting(KeyProto, defaultProtoComment, "proto %s\n", d.Proto)
	w.setting(KeyPort, defaultPortComment, "port %d\n\n", d.Port)

	if d.ClientMode {
		w.b.WriteString("commsMode Client\n")
	} else {
		w.b.WriteString("commsMode Server\n")
	}

	if w.defaults {
		w.b.WriteString(defaultMessagesComment)
	}
	for i := 0; i <= final; i++ {
		w.message(i)
	}

	if !w.defaults {
		w.b.WriteString(d.Comments.Get(KeyEndComments))
	}
	w.b.WriteString(fence)
	w.b.WriteString(EndMarker)

	tail, err := src.Tail()
	if err != nil {
		return nil, err
	}
	w.b.Write(tail)
	return []byte(w.b.String()), nil
}

type writer struct {
	d        *Descriptor
	defaults bool
	delim    []byte
	b        strings.Builder
}

func (w *writer) setting(key, defaultComment, format string, v any) {
	if w.defaults {
		w.b.WriteString(defaultComment)
	} else {
		w.b.WriteString(w.d.Comments.Get(key))
	}
	fmt.Fprintf(&w.b, format, v)
}

// marker writes an index comment unless the same line was already written,
// typically because it came back through the preserved comments.
func (w *writer) marker(line string) {
	if !strings.Contains(w.b.String(), line) {
		w.b.WriteString(line)
	}
}

func (w *writer) message(i int) {
	msg := w.d.Messages[i]
	if !w.defaults {
		w.b.WriteString(w.d.Comments.Get(MessageKey(i)))
	}
	w.marker(fmt.Sprintf("#msg(%d)\n", i))

	if len(msg.Subcomponents) > 1 {
		w.parts(i, msg)
		return
	}

	chunks, rest, ok := wrapPayload(msg.Original(), w.delim)
	if !ok {
		w.b.WriteString(w.headPrefix(i, msg) + msg.Serialized() + "\n")
		return
	}

	w.b.WriteString(w.headPrefix(i, msg) + message.Quote(chunks[0]) + "\n")
	for _, c := range chunks[1:] {
		w.b.WriteString("more " + message.Quote(c) + "\n")
	}
	if len(rest) > 0 {
		w.marker(fmt.Sprintf("#msg(%d.%d)\n", i, len(chunks)))
		w.b.WriteString("more " + message.Quote(rest) + "\n")
	}
}

// parts writes a message whose sub-part boundaries were authored by hand;
// they are kept as they are.
func (w *writer) parts(i int, msg *message.Message) {
	w.b.WriteString(w.headPrefix(i, msg) + message.Quote(msg.Subcomponents[0].Original()) + "\n")
	for j, sub := range msg.Subcomponents[1:] {
		fields := append([]string{"more"}, sub.Attributes...)
		if w.d.IsFuzzTarget(address.Part(i, j+1)) {
			fields = append(fields, "fuzz")
		}
		w.b.WriteString(strings.Join(fields, " ") + " " + message.Quote(sub.Original()) + "\n")
	}
}

func (w *writer) headPrefix(i int, msg *message.Message) string {
	fields := append([]string{msg.Direction.String()}, msg.Attributes...)
	if w.d.IsFuzzTarget(address.Whole(i)) || w.d.IsFuzzTarget(address.Part(i, 0)) {
		fields = append(fields, "fuzz")
	}
	return strings.Join(fields, " ") + " "
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
