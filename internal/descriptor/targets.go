package descriptor

import (
	"fmt"

	"fuzzdesc/internal/rangespec"
	"fuzzdesc/pkg/address"
)

// rotator is the round-robin cursor over the registered fuzz targets.
type rotator struct {
	targets []address.Address
	literal string
	current int
	started bool
}

func (r *rotator) setFromString(s string) error {
	addrs, err := rangespec.ParseAddresses(s)
	if err != nil {
		return fmt.Errorf("invalid fuzz target selection %q: %w", s, err)
	}
	r.targets = addrs
	r.literal = s
	return nil
}

func (r *rotator) add(a address.Address) {
	r.targets = append(r.targets, a)
	r.literal = rangespec.JoinAddresses(r.targets)
}

func (r *rotator) remove(a address.Address) bool {
	kept := r.targets[:0]
	found := false
	for _, t := range r.targets {
		if t == a {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return false
	}
	r.targets = kept
	r.literal = rangespec.JoinAddresses(r.targets)
	return true
}

func (r *rotator) clear() {
	r.targets = nil
	r.literal = ""
}

func (r *rotator) next() int {
	if r.started && r.current+1 < len(r.targets) {
		r.current++
	} else {
		r.current = 0
	}
	r.started = true
	return r.current
}

func (r *rotator) currentTarget() (address.Address, bool) {
	if !r.started || r.current >= len(r.targets) {
		return address.Address{}, false
	}
	return r.targets[r.current], true
}

// FuzzTargets returns a copy of the registered targets in registration order.
func (d *Descriptor) FuzzTargets() []address.Address {
	return append([]address.Address(nil), d.targets.targets...)
}

// FuzzTargetsString returns the selection literal the targets came from.
func (d *Descriptor) FuzzTargetsString() string {
	return d.targets.literal
}

// SetFuzzTargetsFromString replaces the targets with the expansion of a
// selection such as "1,3-4,2.1".
func (d *Descriptor) SetFuzzTargetsFromString(s string) error {
	return d.targets.setFromString(s)
}

// AddFuzzTarget appends a. Duplicates are kept.
func (d *Descriptor) AddFuzzTarget(a address.Address) {
	d.targets.add(a)
}

// RemoveFuzzTarget drops every occurrence of a and reports whether any was found.
func (d *Descriptor) RemoveFuzzTarget(a address.Address) bool {
	return d.targets.remove(a)
}

// ClearFuzzTargets empties the target list and its literal. The cursor is
// left alone.
func (d *Descriptor) ClearFuzzTargets() {
	d.targets.clear()
}

// IsFuzzTarget reports whether a is registered.
func (d *Descriptor) IsFuzzTarget(a address.Address) bool {
	for _, t := range d.targets.targets {
		if t == a {
			return true
		}
	}
	return false
}

// RotateFuzzTarget advances the cursor to the next target, wrapping to the
// first one, and returns the new cursor position.
func (d *Descriptor) RotateFuzzTarget() int {
	return d.targets.next()
}

// CurrentFuzzTarget returns the target under the cursor.
func (d *Descriptor) CurrentFuzzTarget() (address.Address, bool) {
	return d.targets.currentTarget()
}

// FuzzTargetIndex returns the cursor position, false while it was never set.
func (d *Descriptor) FuzzTargetIndex() (int, bool) {
	return d.targets.current, d.targets.started
}

// SeekFuzzTarget places the cursor on target i.
func (d *Descriptor) SeekFuzzTarget(i int) error {
	if i < 0 || i >= len(d.targets.targets) {
		return fmt.Errorf("fuzz target %d of %d: %w", i, len(d.targets.targets), ErrMessageIndex)
	}
	d.targets.current = i
	d.targets.started = true
	return nil
}

// EditCurrentFuzzTarget replaces the bytes addressed by the current target.
func (d *Descriptor) EditCurrentFuzzTarget(b []byte) error {
	a, ok := d.CurrentFuzzTarget()
	if !ok {
		return ErrNoCurrentTarget
	}
	if a.Message < 0 || a.Message >= len(d.Messages) {
		return fmt.Errorf("fuzz target %s: %w", a, ErrMessageIndex)
	}
	msg := d.Messages[a.Message]
	if !a.HasPart {
		msg.SetOriginal(b)
		return nil
	}
	if a.Part < 0 || a.Part >= len(msg.Subcomponents) {
		return fmt.Errorf("fuzz target %s: %w", a, ErrMessageIndex)
	}
	msg.Subcomponents[a.Part].SetOriginal(b)
	return nil
}
