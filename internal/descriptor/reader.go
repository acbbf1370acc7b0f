package descriptor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/rs/zerolog"

	"fuzzdesc/internal/message"
	"fuzzdesc/pkg/address"
)

// ReadOptions controls a read pass.
type ReadOptions struct {
	// Quiet suppresses per-message and unknown-setting log lines. Deprecation
	// warnings and errors are always logged.
	Quiet  bool
	Logger *zerolog.Logger
}

func (o ReadOptions) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// ReadFile reads the descriptor stored at path.
func ReadFile(path string, opts ReadOptions) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open descriptor %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read parses a descriptor from r into a fresh Descriptor.
func Read(r io.Reader, opts ReadOptions) (*Descriptor, error) {
	d := New()
	if err := d.Load(r, opts); err != nil {
		return nil, err
	}
	return d, nil
}

// Load parses a descriptor from r into d. Reading stops at EOF or at the
// END FUZZER marker; nothing after the marker is looked at.
func (d *Descriptor) Load(r io.Reader, opts ReadOptions) error {
	rd := &reader{d: d, quiet: opts.Quiet, log: opts.logger()}

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			lineNo++
			stop, lerr := rd.line(lineNo, raw)
			if lerr != nil {
				return lerr
			}
			if stop {
				break
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read descriptor: %w", err)
		}
	}

	rd.push(KeyEndComments)
	return nil
}

// reader holds the state of one read pass.
type reader struct {
	d     *Descriptor
	quiet bool
	log   *zerolog.Logger

	// pending collects comment lines until the next directive claims them.
	pending    strings.Builder
	messageNum int
	current    *message.Message
}

// line handles one raw line including its terminator. It reports whether
// the END FUZZER marker was reached.
func (rd *reader) line(n int, raw string) (bool, error) {
	if strings.HasPrefix(raw, "#") || raw == "\n" {
		if strings.TrimRight(raw, "\r\n") == strings.TrimSuffix(EndMarker, "\n") {
			return true, nil
		}
		rd.pending.WriteString(raw)
		return false, nil
	}

	text := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
	if strings.HasPrefix(text, "'''") || strings.TrimSpace(text) == "" {
		return false, nil
	}

	err := rd.apply(text, directiveArgs(text))
	switch {
	case err == nil:
	case errors.Is(err, errMissingValue):
		return false, nil
	case errors.Is(err, ErrLegacyUnfuzzedBytes):
		return false, &LineError{Line: n, Text: text, Err: err}
	default:
		rd.log.Error().Int("line", n).Str("text", text).Err(err).Msg("Invalid line")
		return false, &LineError{Line: n, Text: text, Err: err}
	}

	// Comments ahead of "more" lines and unknown directives stay with the
	// message being built.
	if rd.pending.Len() > 0 {
		rd.d.Comments.Append(MessageKey(rd.messageNum-1), rd.take())
	}
	return false, nil
}

// directiveArgs splits the part of text ahead of any quoted payload.
func directiveArgs(text string) []string {
	if i := strings.IndexByte(text, '\''); i >= 0 {
		text = text[:i]
	}
	return strings.Fields(text)
}

func (rd *reader) apply(text string, args []string) error {
	if len(args) == 0 {
		return errMissingValue
	}
	d := rd.d

	switch args[0] {
	case "processor_dir":
		v, err := value(args)
		if err != nil {
			return err
		}
		d.ProcessorDirectory = v
		rd.push(KeyProcessorDir)

	case "failureThreshold":
		v, err := value(args)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		threshold, err := safecast.Conv[uint](n)
		if err != nil {
			return fmt.Errorf("failureThreshold %d: %w", n, err)
		}
		d.FailureThreshold = threshold
		rd.push(KeyFailureThreshold)

	case "failureTimeout":
		v, err := value(args)
		if err != nil {
			return err
		}
		timeout, err := parseSeconds(v)
		if err != nil {
			return err
		}
		d.FailureTimeout = timeout
		rd.push(KeyFailureTimeout)

	case "proto":
		v, err := value(args)
		if err != nil {
			return err
		}
		d.Proto = v
		rd.push(KeyProto)

	case "port":
		v, err := value(args)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		port, err := safecast.Conv[uint16](n)
		if err != nil {
			return fmt.Errorf("port %d: %w", n, err)
		}
		d.Port = port
		rd.push(KeyPort)

	case "shouldPerformTestRun":
		v, err := value(args)
		if err != nil {
			return err
		}
		switch v {
		case "0":
			d.ShouldPerformTestRun = false
		case "1":
			d.ShouldPerformTestRun = true
		default:
			return ErrInvalidTestRunFlag
		}
		rd.push(KeyShouldPerformTestRun)

	case "receiveTimeout":
		v, err := value(args)
		if err != nil {
			return err
		}
		timeout, err := parseSeconds(v)
		if err != nil {
			return err
		}
		d.ReceiveTimeout = timeout
		rd.push(KeyReceiveTimeout)

	case "messagesToFuzz":
		rd.log.Warn().Msg("legacy messagesToFuzz directive is deprecated, mark messages with 'fuzz' instead")
		v, err := value(args)
		if err != nil {
			return err
		}
		if err := d.SetFuzzTargetsFromString(v); err != nil {
			return err
		}
		rd.push(MessageKey(0))

	case "unfuzzedBytes":
		rd.log.Error().Msg("legacy unfuzzedBytes directive found, it has been replaced by the multi-line message format; update the descriptor")
		return ErrLegacyUnfuzzedBytes

	case "commsMode":
		v, err := value(args)
		if err != nil {
			return err
		}
		switch v {
		case "Server":
			d.ClientMode = false
			d.FuzzDirection = message.Outbound
		case "Client":
			d.ClientMode = true
			d.FuzzDirection = message.Outbound
		}

	case "inbound", "outbound":
		return rd.startMessage(text, args)

	case "more":
		return rd.continueMessage(text, args)

	default:
		if !rd.quiet {
			rd.log.Warn().Str("setting", args[0]).Msg("Unknown setting in descriptor")
		}
	}
	return nil
}

func (rd *reader) startMessage(text string, args []string) error {
	msg := &message.Message{}
	if err := msg.SetFromSerialized(text); err != nil {
		return err
	}
	attrs, fuzz := splitAttributes(args[1:])
	msg.Attributes = attrs

	n := rd.messageNum
	rd.d.Messages = append(rd.d.Messages, msg)
	if !rd.quiet {
		rd.log.Info().Msgf("Message #%d: %d bytes %s", n, len(msg.Original()), msg.Direction)
	}
	// a legacy messagesToFuzz line may already have filed comments here
	rd.d.Comments.Append(MessageKey(n), rd.take())
	if fuzz {
		rd.d.AddFuzzTarget(address.Whole(n))
	}

	rd.messageNum++
	rd.current = msg
	return nil
}

func (rd *reader) continueMessage(text string, args []string) error {
	if rd.current == nil {
		return ErrOrphanContinuation
	}
	if err := rd.current.AppendFromSerialized(text); err != nil {
		return err
	}
	part := len(rd.current.Subcomponents) - 1
	sub := rd.current.Subcomponents[part]

	attrs, fuzz := splitAttributes(args[1:])
	sub.Attributes = append(sub.Attributes, attrs...)
	if fuzz {
		rd.d.AddFuzzTarget(address.Part(rd.messageNum-1, part))
	}
	if !rd.quiet {
		rd.log.Info().Msgf("\tSubcomponent: %d additional bytes", len(sub.Original()))
	}
	return nil
}

// push moves the pending comments into key, replacing what was there.
func (rd *reader) push(key string) {
	rd.d.Comments.Set(key, rd.take())
}

func (rd *reader) take() string {
	s := rd.pending.String()
	rd.pending.Reset()
	return s
}

func value(args []string) (string, error) {
	if len(args) < 2 {
		return "", errMissingValue
	}
	return args[1], nil
}

// splitAttributes separates the "fuzz" marker from free-form attributes.
func splitAttributes(tokens []string) ([]string, bool) {
	var attrs []string
	fuzz := false
	for _, tok := range tokens {
		if tok == "fuzz" {
			fuzz = true
			continue
		}
		attrs = append(attrs, tok)
	}
	return attrs, fuzz
}

func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("timeout %q is not a finite number of seconds", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}
