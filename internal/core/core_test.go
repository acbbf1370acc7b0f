package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuzzdesc/internal/clock"
	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/template"
	"fuzzdesc/pkg/address"
)

const twoTargets = `port 21
outbound fuzz 'USER anonymous\r\n'
inbound '331 ok\r\n'
outbound fuzz 'PASS guest\r\n'
`

// Helper to create a temporary descriptor file with given content
func writeDescriptor(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create descriptor: %v", err)
	}
	return path
}

func TestNormalize_ConvertsLegacyTargets(t *testing.T) {
	dir := t.TempDir()
	in := writeDescriptor(t, dir, "legacy.fuzzer", "messagesToFuzz 1\noutbound 'a'\noutbound 'b'\n")

	out, err := Normalize(in, "", NormalizeOptions{Quiet: true, Write: descriptor.WriteOptions{Template: template.Static("")}})
	require.NoError(t, err)
	assert.Equal(t, in+"-1", out, "input is never overwritten")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "messagesToFuzz")
	assert.Contains(t, string(data), "outbound fuzz 'b'\n")
	assert.Contains(t, string(data), "outbound 'a'\n")
}

func TestNormalize_RejectsUnfuzzedBytes(t *testing.T) {
	dir := t.TempDir()
	in := writeDescriptor(t, dir, "old.fuzzer", "outbound 'a'\nunfuzzedBytes 0 1\n")

	_, err := Normalize(in, filepath.Join(dir, "new.fuzzer"), NormalizeOptions{Quiet: true})
	assert.ErrorIs(t, err, descriptor.ErrLegacyUnfuzzedBytes)
	_, statErr := os.Stat(filepath.Join(dir, "new.fuzzer"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written for a rejected descriptor")
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		paths = append(paths, writeDescriptor(t, dir, "ok"+string(rune('a'+i))+".fuzzer", twoTargets))
	}
	bad := writeDescriptor(t, dir, "bad.fuzzer", "port http\n")
	paths = append(paths, bad, filepath.Join(dir, "missing.fuzzer"))

	results, err := CheckFiles(context.Background(), paths, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for i, res := range results[:6] {
		assert.Equal(t, paths[i], res.Path, "results keep input order")
		assert.NoError(t, res.Err)
		assert.Equal(t, 3, res.Messages)
		assert.Equal(t, 2, res.Targets)
		assert.Equal(t, results[0].Hash, res.Hash)
	}
	assert.Error(t, results[6].Err)
	assert.Error(t, results[7].Err)
}

func TestCheckFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	path := writeDescriptor(t, dir, "a.fuzzer", twoTargets)
	_, err := CheckFiles(ctx, []string{path, path, path}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRotateTarget_Cycles(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "ftp.fuzzer", twoTargets)
	store := NewInMemoryStateStore()
	clk := clock.NewMockClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	want := []address.Address{address.Whole(0), address.Whole(2), address.Whole(0)}
	for i, w := range want {
		res, err := RotateTarget(path, store, clk, nil)
		require.NoError(t, err)
		assert.Equal(t, w, res.Target, "rotation %d", i)
		assert.Equal(t, uint64(i+1), res.Rotations)
		assert.Equal(t, 2, res.Targets)
		clk.Advance(time.Minute)
	}

	states, err := store.Load()
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, uint32(0), states[0].Cursor)
	assert.Equal(t, path, states[0].Path)
	assert.True(t, states[0].UpdatedAt.Equal(time.Date(2024, 6, 1, 8, 2, 0, 0, time.UTC)))
}

func TestRotateTarget_CommentEditsKeepCursor(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "ftp.fuzzer", twoTargets)
	store := NewInMemoryStateStore()
	clk := clock.NewMockClock(time.Now())

	_, err := RotateTarget(path, store, clk, nil)
	require.NoError(t, err)

	writeDescriptor(t, dir, "ftp.fuzzer", "# a new comment\n"+twoTargets)
	res, err := RotateTarget(path, store, clk, nil)
	require.NoError(t, err)
	assert.Equal(t, address.Whole(2), res.Target)

	writeDescriptor(t, dir, "ftp.fuzzer", strings.Replace(twoTargets, "guest", "admin", 1))
	res, err = RotateTarget(path, store, clk, nil)
	require.NoError(t, err)
	assert.Equal(t, address.Whole(0), res.Target, "a changed payload starts a fresh rotation")
}

func TestRotateTarget_ShrunkTargets(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "ftp.fuzzer", twoTargets)
	store := NewInMemoryStateStore()
	clk := clock.NewMockClock(time.Now())

	for i := 0; i < 2; i++ {
		_, err := RotateTarget(path, store, clk, nil)
		require.NoError(t, err)
	}

	// Dropping a fuzz marker keeps the hash but leaves the stored cursor past the end
	writeDescriptor(t, dir, "ftp.fuzzer", strings.Replace(twoTargets, "outbound fuzz 'PASS", "outbound 'PASS", 1))
	res, err := RotateTarget(path, store, clk, nil)
	require.NoError(t, err)
	assert.Equal(t, address.Whole(0), res.Target)
	assert.Equal(t, 0, res.Cursor)
}

func TestRotateTarget_NoTargets(t *testing.T) {
	path := writeDescriptor(t, t.TempDir(), "plain.fuzzer", "outbound 'x'\n")
	_, err := RotateTarget(path, NewInMemoryStateStore(), clock.RealClock{}, nil)
	assert.ErrorIs(t, err, ErrNoTargets)
}

func TestResetRotation(t *testing.T) {
	path := writeDescriptor(t, t.TempDir(), "ftp.fuzzer", twoTargets)
	store := NewInMemoryStateStore()

	found, err := ResetRotation(path, store)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = RotateTarget(path, store, clock.RealClock{}, nil)
	require.NoError(t, err)

	found, err = ResetRotation(path, store)
	require.NoError(t, err)
	assert.True(t, found)

	res, err := RotateTarget(path, store, clock.RealClock{}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Rotations)
}

func TestToggleTarget(t *testing.T) {
	d, err := descriptor.Read(strings.NewReader("outbound 'a'\nmore 'b'\ninbound 'c'\n"), descriptor.ReadOptions{Quiet: true})
	require.NoError(t, err)

	on, err := ToggleTarget(d, address.Part(0, 1))
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, d.IsFuzzTarget(address.Part(0, 1)))

	on, err = ToggleTarget(d, address.Part(0, 1))
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, d.FuzzTargets())

	_, err = ToggleTarget(d, address.Whole(2))
	assert.ErrorIs(t, err, descriptor.ErrMessageIndex)
	_, err = ToggleTarget(d, address.Part(1, 1))
	assert.ErrorIs(t, err, descriptor.ErrMessageIndex)
}
