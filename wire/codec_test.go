package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/wire"
)

func pushBytes(sb *arena.SegmentedBuffer, b []byte) {
	sb.Push(arena.NewViewFromBytes(b))
}

func TestShortFrameRoundTrip(t *testing.T) {
	raw := []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	var sb arena.SegmentedBuffer
	pushBytes(&sb, raw)

	f, ok, err := wire.DecodeFrame(&sb, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, f.More())
	require.False(t, f.IsCommand())
	require.Equal(t, "hello", string(f.Payload.Bytes()))
	require.Equal(t, 0, sb.Len())
}

func TestMultipartFrameSequence(t *testing.T) {
	raw := []byte{0x01, 0x03, 'a', 'b', 'c', 0x00, 0x03, 'd', 'e', 'f'}
	var sb arena.SegmentedBuffer
	pushBytes(&sb, raw)

	f1, ok, err := wire.DecodeFrame(&sb, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, f1.More())
	require.Equal(t, "abc", string(f1.Payload.Bytes()))

	f2, ok, err := wire.DecodeFrame(&sb, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, f2.More())
	require.Equal(t, "def", string(f2.Payload.Bytes()))
}

func TestDecodeFrameNeedsMoreLeavesCursorUntouched(t *testing.T) {
	var sb arena.SegmentedBuffer
	pushBytes(&sb, []byte{0x00, 0x05, 'h', 'e'}) // declares 5 bytes, only 2 present

	f, ok, err := wire.DecodeFrame(&sb, 0)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, wire.Frame{}, f)
	require.Equal(t, 4, sb.Len()) // nothing consumed
}

func TestEncodeDecodeRoundTripShortAndLong(t *testing.T) {
	payloads := [][]byte{
		[]byte("x"),
		make([]byte, 300), // forces long form
	}
	for _, p := range payloads {
		var dst []byte
		dst = wire.EncodeFrame(dst, p, false, false)

		var sb arena.SegmentedBuffer
		pushBytes(&sb, dst)
		f, ok, err := wire.DecodeFrame(&sb, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, p, f.Payload.Bytes())
	}
}

func TestDecodeFrameRejectsUnknownFlagBits(t *testing.T) {
	var sb arena.SegmentedBuffer
	pushBytes(&sb, []byte{0xF8, 0x00}) // high bits set, none are MORE/LONG/COMMAND

	_, _, err := wire.DecodeFrame(&sb, 0)
	require.Error(t, err)
}

func TestDecodeFrameRejectsOversizePayload(t *testing.T) {
	var sb arena.SegmentedBuffer
	pushBytes(&sb, []byte{0x00, 0xFF}) // declares 255 bytes
	_, _, err := wire.DecodeFrame(&sb, 10)
	require.Error(t, err)
}

func TestStreamSplitArbitrarilyProducesSameFrames(t *testing.T) {
	var full []byte
	full = wire.EncodeFrame(full, []byte("one"), true, false)
	full = wire.EncodeFrame(full, []byte("two"), false, false)

	decodeAll := func(feed func(*arena.SegmentedBuffer)) []string {
		var sb arena.SegmentedBuffer
		var got []string
		for {
			feed(&sb)
			f, ok, err := wire.DecodeFrame(&sb, 0)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if !ok {
				if sb.Len() == 0 {
					break
				}
				continue
			}
			got = append(got, string(f.Payload.Bytes()))
			if len(got) == 2 {
				break
			}
		}
		return got
	}

	wholeFed := false
	whole := decodeAll(func(sb *arena.SegmentedBuffer) {
		if wholeFed {
			return
		}
		wholeFed = true
		sb.Push(arena.NewViewFromBytes(full))
	})

	fedOnce := false
	piecewise := decodeAll(func(sb *arena.SegmentedBuffer) {
		if fedOnce {
			return
		}
		fedOnce = true
		for _, b := range full {
			sb.Push(arena.NewViewFromBytes([]byte{b}))
		}
	})

	require.Equal(t, whole, piecewise)
}
