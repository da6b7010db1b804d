// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package timeline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/ghostloop/ghostloop/internal/arena"
)

// ErrCorrupt is returned when a serialized timeline cannot be decoded or
// fails its integrity check. Callers fail closed: the timeline is discarded
// and the user is notified, never partially recovered.
var ErrCorrupt = errors.New("corrupt timeline")

// Wire format constants. Timestamps travel as f32 seconds and are
// re-quantized to ticks on decode; with tick-aligned inputs the round trip
// is exact.
const (
	codecMagic   = "GLTL"
	codecVersion = 1
)

// Encode serializes a timeline to the compact wire format: a fixed header
// (magic, version, tick rate, key, event count) followed by one
// (opcode, start f32, endOrDuration f32, payload) tuple per event. An
// intent record is a few bytes versus tens of bytes for a raw transform
// sample.
func Encode(t *Timeline, tickRate int) ([]byte, error) {
	if tickRate <= 0 || tickRate > 255 {
		return nil, fmt.Errorf("invalid tick rate %d", tickRate)
	}

	var buf bytes.Buffer
	buf.WriteString(codecMagic)
	buf.WriteByte(codecVersion)
	buf.WriteByte(byte(tickRate))
	buf.WriteByte(byte(t.key.Arena))
	buf.Write(t.key.Actor[:])

	writeU32(&buf, uint32(len(t.events)))
	writeF32(&buf, ticksToSeconds(t.length, tickRate))

	for _, ev := range t.events {
		buf.WriteByte(byte(ev.Kind))
		writeF32(&buf, ticksToSeconds(ev.Start, tickRate))

		switch ev.Kind {
		case KindMove:
			writeF32(&buf, ticksToSeconds(ev.End, tickRate))
			buf.WriteByte(byte(ev.Dir))
		case KindAbilityStart:
			writeF32(&buf, ticksToSeconds(ev.Hold, tickRate))
			buf.WriteByte(ev.Slot)
			writeU16(&buf, ev.Target.X)
			writeU16(&buf, ev.Target.Y)
		case KindAbilityEnd:
			writeF32(&buf, 0)
			buf.WriteByte(ev.Slot)
		case KindDeath:
			writeF32(&buf, 0)
			writeU16(&buf, ev.Pos.X)
			writeU16(&buf, ev.Pos.Y)
		default:
			return nil, fmt.Errorf("unknown event kind %d", ev.Kind)
		}
	}

	return buf.Bytes(), nil
}

// Decode parses the wire format back into a Timeline. All failure modes
// surface ErrCorrupt.
func Decode(data []byte) (*Timeline, error) {
	r := &reader{data: data}

	magic := r.bytes(4)
	if r.err != nil || string(magic) != codecMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := r.u8(); r.err != nil || v != codecVersion {
		return nil, fmt.Errorf("%w: unsupported codec version %d", ErrCorrupt, v)
	}
	tickRate := int(r.u8())
	if r.err != nil || tickRate == 0 {
		return nil, fmt.Errorf("%w: invalid tick rate", ErrCorrupt)
	}
	arenaID := arena.ID(r.u8())

	var actor ulid.ULID
	copy(actor[:], r.bytes(16))
	if r.err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}

	count := r.u32()
	length := secondsToTicks(r.f32(), tickRate)
	if r.err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: non-positive length", ErrCorrupt)
	}
	// Each event is at least 6 bytes; reject counts the payload cannot hold.
	if int(count) > len(r.data)/6 {
		return nil, fmt.Errorf("%w: event count %d exceeds payload", ErrCorrupt, count)
	}

	b := NewBuilder(Key{Actor: actor, Arena: arenaID}, length)
	for i := uint32(0); i < count; i++ {
		kind := EventKind(r.u8())
		start := secondsToTicks(r.f32(), tickRate)
		second := r.f32()

		var ev Event
		switch kind {
		case KindMove:
			end := secondsToTicks(second, tickRate)
			dir := arena.Direction(r.u8())
			ev = Move(dir, start, end)
		case KindAbilityStart:
			hold := secondsToTicks(second, tickRate)
			slot := r.u8()
			target := arena.Cell{X: r.u16(), Y: r.u16()}
			ev = AbilityStart(slot, target, hold, start)
		case KindAbilityEnd:
			ev = AbilityEnd(r.u8(), start)
		case KindDeath:
			ev = Death(arena.Cell{X: r.u16(), Y: r.u16()}, start)
		default:
			return nil, fmt.Errorf("%w: unknown opcode %d at event %d", ErrCorrupt, kind, i)
		}
		if r.err != nil {
			return nil, fmt.Errorf("%w: truncated event %d", ErrCorrupt, i)
		}
		b.Append(ev)
	}
	if r.rest() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.rest())
	}

	t, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return t, nil
}

// Checksum returns the blake2b-256 digest of an encoded timeline. The vault
// stores it alongside the payload and verifies on read.
func Checksum(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

func ticksToSeconds(t arena.Tick, rate int) float32 {
	return float32(t) / float32(rate)
}

func secondsToTicks(s float32, rate int) arena.Tick {
	return arena.Tick(math.Round(float64(s) * float64(rate)))
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeF32(buf *bytes.Buffer, v float32) {
	writeU32(buf, math.Float32bits(v))
}

// reader is a cursor over the wire payload with sticky error handling.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = errors.New("short read")
		return nil
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) rest() int {
	if r.err != nil {
		return 0
	}
	return len(r.data) - r.off
}
