package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuzzdesc/internal/message"
	"fuzzdesc/pkg/address"
)

func threeMessages() *Descriptor {
	d := New()
	d.Messages = []*message.Message{
		message.New(message.Outbound, []byte("zero")),
		message.New(message.Inbound, []byte("one")),
		message.New(message.Outbound, []byte("two")),
	}
	return d
}

func TestRotateFuzzTarget_Wraps(t *testing.T) {
	d := threeMessages()
	require.NoError(t, d.SetFuzzTargetsFromString("0,2,1"))

	_, ok := d.CurrentFuzzTarget()
	assert.False(t, ok, "no cursor before the first rotation")

	assert.Equal(t, 0, d.RotateFuzzTarget())
	assert.Equal(t, 1, d.RotateFuzzTarget())
	assert.Equal(t, 2, d.RotateFuzzTarget())
	assert.Equal(t, 0, d.RotateFuzzTarget(), "cursor wraps after the last target")

	a, ok := d.CurrentFuzzTarget()
	require.True(t, ok)
	assert.Equal(t, address.Whole(0), a)
}

func TestRotateFuzzTarget_FullCycle(t *testing.T) {
	for n := 1; n <= 5; n++ {
		d := New()
		for i := 0; i < n; i++ {
			d.AddFuzzTarget(address.Whole(i))
		}
		d.RotateFuzzTarget()
		for i := 0; i < n; i++ {
			d.RotateFuzzTarget()
		}
		idx, ok := d.FuzzTargetIndex()
		require.True(t, ok)
		assert.Equal(t, 0, idx, "n=%d", n)
	}
}

func TestRotateFuzzTarget_Empty(t *testing.T) {
	d := New()
	assert.Equal(t, 0, d.RotateFuzzTarget())
	_, ok := d.CurrentFuzzTarget()
	assert.False(t, ok)
}

func TestEditCurrentFuzzTarget(t *testing.T) {
	t.Run("no cursor", func(t *testing.T) {
		d := threeMessages()
		d.AddFuzzTarget(address.Whole(1))
		assert.ErrorIs(t, d.EditCurrentFuzzTarget([]byte("x")), ErrNoCurrentTarget)
	})

	t.Run("whole message", func(t *testing.T) {
		d := threeMessages()
		require.NoError(t, d.Messages[1].AppendFromSerialized("more 'tail'"))
		d.AddFuzzTarget(address.Whole(1))
		d.RotateFuzzTarget()

		require.NoError(t, d.EditCurrentFuzzTarget([]byte("edited")))
		assert.Equal(t, []byte("edited"), d.Messages[1].Original())
		assert.Len(t, d.Messages[1].Subcomponents, 1)
		assert.Equal(t, []byte("zero"), d.Messages[0].Original())
	})

	t.Run("sub-part", func(t *testing.T) {
		d := threeMessages()
		require.NoError(t, d.Messages[2].AppendFromSerialized("more 'tail'"))
		require.NoError(t, d.SetFuzzTargetsFromString("2.1"))
		d.RotateFuzzTarget()

		buf := []byte("TAIL")
		require.NoError(t, d.EditCurrentFuzzTarget(buf))
		buf[0] = 'x'
		assert.Equal(t, []byte("twoTAIL"), d.Messages[2].Original())
	})

	t.Run("stale target", func(t *testing.T) {
		d := threeMessages()
		d.AddFuzzTarget(address.Part(0, 3))
		d.AddFuzzTarget(address.Whole(9))
		d.RotateFuzzTarget()
		assert.ErrorIs(t, d.EditCurrentFuzzTarget(nil), ErrMessageIndex)
		d.RotateFuzzTarget()
		assert.ErrorIs(t, d.EditCurrentFuzzTarget(nil), ErrMessageIndex)
	})
}

func TestFuzzTargetLiteral(t *testing.T) {
	d := threeMessages()
	require.NoError(t, d.SetFuzzTargetsFromString("0-1"))
	assert.Equal(t, "0-1", d.FuzzTargetsString(), "literal is kept as written")

	d.AddFuzzTarget(address.Part(2, 1))
	assert.Equal(t, "0,1,2.1", d.FuzzTargetsString())
	assert.True(t, d.IsFuzzTarget(address.Part(2, 1)))
	assert.False(t, d.IsFuzzTarget(address.Whole(2)))

	assert.Error(t, d.SetFuzzTargetsFromString("3-1"))
	assert.Equal(t, "0,1,2.1", d.FuzzTargetsString(), "failed parse leaves targets alone")
}

func TestRemoveAndClearFuzzTargets(t *testing.T) {
	d := threeMessages()
	require.NoError(t, d.SetFuzzTargetsFromString("0,1,0"))

	assert.True(t, d.RemoveFuzzTarget(address.Whole(0)))
	assert.Equal(t, []address.Address{address.Whole(1)}, d.FuzzTargets())
	assert.False(t, d.RemoveFuzzTarget(address.Whole(2)))

	d.RotateFuzzTarget()
	d.ClearFuzzTargets()
	assert.Empty(t, d.FuzzTargets())
	assert.Equal(t, "", d.FuzzTargetsString())

	idx, ok := d.FuzzTargetIndex()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = d.CurrentFuzzTarget()
	assert.False(t, ok, "cursor past the end yields no target")
}

func TestSeekFuzzTarget(t *testing.T) {
	d := threeMessages()
	require.NoError(t, d.SetFuzzTargetsFromString("0,1,2"))

	require.NoError(t, d.SeekFuzzTarget(2))
	a, ok := d.CurrentFuzzTarget()
	require.True(t, ok)
	assert.Equal(t, address.Whole(2), a)
	assert.Equal(t, 0, d.RotateFuzzTarget())

	assert.ErrorIs(t, d.SeekFuzzTarget(3), ErrMessageIndex)
	assert.ErrorIs(t, d.SeekFuzzTarget(-1), ErrMessageIndex)
}

func TestFuzzTargets_ReturnsCopy(t *testing.T) {
	d := New()
	d.AddFuzzTarget(address.Whole(0))
	got := d.FuzzTargets()
	got[0] = address.Whole(7)
	assert.True(t, d.IsFuzzTarget(address.Whole(0)))
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	assert.False(t, l.Has(KeyPort))

	l.Set(KeyPort, "")
	l.Append(MessageKey(0), "# a\n")
	l.Append(MessageKey(0), "# b\n")
	l.Set(KeyPort, "# port\n")

	assert.True(t, l.Has(KeyPort))
	assert.Equal(t, "# port\n", l.Get(KeyPort))
	assert.Equal(t, "# a\n# b\n", l.Get(MessageKey(0)))
	assert.Equal(t, []string{KeyPort, "message0"}, l.Keys())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "", l.Get("missing"))
}
