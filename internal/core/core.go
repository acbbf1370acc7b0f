package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"fortio.org/safecast"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fuzzdesc/internal/clock"
	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/state"
	"fuzzdesc/pkg/address"
)

// ErrNoTargets is returned when rotating a descriptor that marks nothing for fuzzing.
var ErrNoTargets = errors.New("descriptor has no fuzz targets")

func orNop(l *zerolog.Logger) *zerolog.Logger {
	if l != nil {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	Write  descriptor.WriteOptions
	Quiet  bool
	Logger *zerolog.Logger
}

// Normalize reads the descriptor at in and writes it back out in canonical
// form. Legacy directives are converted on the way. An empty out writes next
// to in. The file at out is never overwritten; the path actually written is
// returned.
func Normalize(in, out string, opts NormalizeOptions) (string, error) {
	log := orNop(opts.Logger)
	d, err := descriptor.ReadFile(in, descriptor.ReadOptions{Quiet: opts.Quiet, Logger: log})
	if err != nil {
		return "", err
	}
	if out == "" {
		out = in
	}
	if opts.Write.Logger == nil {
		opts.Write.Logger = log
	}
	written, err := d.WriteFile(out, opts.Write)
	if err != nil {
		return "", err
	}
	log.Debug().Str("from", in).Str("to", written).Int("messages", len(d.Messages)).Msg("Normalized descriptor")
	return written, nil
}

// CheckResult is the outcome of parsing one descriptor.
type CheckResult struct {
	Path     string
	Messages int
	Targets  int
	Hash     string
	Err      error
}

// CheckFiles parses every path concurrently, at most jobs at a time. Parse
// failures are reported per file; the returned error is only set when ctx
// is cancelled.
func CheckFiles(ctx context.Context, paths []string, jobs int, logger *zerolog.Logger) ([]CheckResult, error) {
	log := orNop(logger)
	results := make([]CheckResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res := CheckResult{Path: path}
			d, err := descriptor.ReadFile(path, descriptor.ReadOptions{Quiet: true, Logger: log})
			if err != nil {
				res.Err = err
			} else {
				res.Messages = len(d.Messages)
				res.Targets = len(d.FuzzTargets())
				res.Hash = d.Hash()
			}
			// each goroutine owns results[i]
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// RotationResult describes the fuzz target selected by RotateTarget.
type RotationResult struct {
	Path      string
	Cursor    int
	Target    address.Address
	Targets   int
	Rotations uint64
}

// RotateTarget advances the persisted fuzz target cursor of the descriptor
// at path by one. The cursor is keyed by the descriptor hash, so editing
// comments or fuzz markers keeps it while changing a payload starts over.
func RotateTarget(path string, store StateStore, clk clock.Clock, logger *zerolog.Logger) (RotationResult, error) {
	log := orNop(logger)
	d, err := descriptor.ReadFile(path, descriptor.ReadOptions{Quiet: true, Logger: log})
	if err != nil {
		return RotationResult{}, err
	}
	if len(d.FuzzTargets()) == 0 {
		return RotationResult{}, fmt.Errorf("%s: %w", path, ErrNoTargets)
	}

	states, err := store.Load()
	if err != nil {
		return RotationResult{}, fmt.Errorf("failed to load rotation state: %w", err)
	}
	hash := d.Hash()
	idx := findState(states, hash)
	if idx < 0 {
		states = append(states, state.RotationState{DescriptorHash: hash})
		idx = len(states) - 1
	}
	rs := &states[idx]

	if rs.Started() {
		if err := d.SeekFuzzTarget(int(rs.Cursor)); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Stored cursor no longer fits, starting over")
		}
	}
	cur := d.RotateFuzzTarget()
	target, _ := d.CurrentFuzzTarget()

	cursor, err := safecast.Conv[uint32](cur)
	if err != nil {
		return RotationResult{}, fmt.Errorf("cursor %d: %w", cur, err)
	}
	rs.Path = path
	rs.Cursor = cursor
	rs.Rotations++
	rs.UpdatedAt = clk.Now()

	if err := store.Save(states); err != nil {
		return RotationResult{}, fmt.Errorf("failed to save rotation state: %w", err)
	}
	log.Debug().Str("path", path).Stringer("target", target).Int("cursor", cur).Msg("Rotated fuzz target")

	return RotationResult{
		Path:      path,
		Cursor:    cur,
		Target:    target,
		Targets:   len(d.FuzzTargets()),
		Rotations: rs.Rotations,
	}, nil
}

// ResetRotation forgets the persisted cursor of the descriptor at path and
// reports whether there was one.
func ResetRotation(path string, store StateStore) (bool, error) {
	d, err := descriptor.ReadFile(path, descriptor.ReadOptions{Quiet: true})
	if err != nil {
		return false, err
	}
	states, err := store.Load()
	if err != nil {
		return false, fmt.Errorf("failed to load rotation state: %w", err)
	}
	hash := d.Hash()
	if findState(states, hash) < 0 {
		return false, nil
	}
	if err := store.Save(RemoveState(states, hash)); err != nil {
		return false, fmt.Errorf("failed to save rotation state: %w", err)
	}
	return true, nil
}

// ToggleTarget marks a for fuzzing when it is not marked and unmarks it
// otherwise. It reports whether a is marked afterwards.
func ToggleTarget(d *descriptor.Descriptor, a address.Address) (bool, error) {
	if a.Message < 0 || a.Message >= len(d.Messages) {
		return false, fmt.Errorf("message %s: %w", a, descriptor.ErrMessageIndex)
	}
	if a.HasPart && (a.Part < 0 || a.Part >= len(d.Messages[a.Message].Subcomponents)) {
		return false, fmt.Errorf("sub-part %s: %w", a, descriptor.ErrMessageIndex)
	}
	if d.RemoveFuzzTarget(a) {
		return false, nil
	}
	d.AddFuzzTarget(a)
	return true, nil
}
