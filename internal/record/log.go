package record

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/coplib/orderengine/internal/model"
)

// Log is the append-only byte log backing the record dispatcher. Each
// entry is a length-prefixed frame:
//
//	[frame_len: u32][record_type: u32][version: u32][id: IdT][payload: bytes]
//
// The original's FileSaver abstraction (StorageRecordDispatcher.cpp)
// stores one record per key in an external keyed store, addressed by
// the caller-supplied IdT, and never defines the on-disk framing
// itself; this engine instead appends every record to one sequential
// file, so the id travels inside the frame and a frame_len prefix makes
// the stream self-delimiting for Replay — both of which an external
// keyed store gets for free from its own index.
type Log struct {
	mu sync.Mutex
	f  *os.File
}

// OpenLog opens path for appending, creating it if it doesn't exist.
func OpenLog(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("record: open log: %w", err)
	}
	return &Log{f: f}, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Append writes one [record_type][version][id][payload] frame and
// returns its byte offset within the log.
func (l *Log) Append(recordType Type, version uint32, id model.IdT, payload []byte) (int64, error) {
	frame := make([]byte, 0, 24+len(payload))
	frame = putU32(frame, uint32(recordType))
	frame = putU32(frame, version)
	frame = putIdT(frame, id)
	frame = append(frame, payload...)

	l.mu.Lock()
	defer l.mu.Unlock()

	offset, err := l.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("record: seek log: %w", err)
	}

	var lenBuf [4]byte
	binary.NativeEndian.PutUint32(lenBuf[:], uint32(len(frame)))
	if _, err := l.f.Write(lenBuf[:]); err != nil {
		return 0, fmt.Errorf("record: write frame length: %w", err)
	}
	if _, err := l.f.Write(frame); err != nil {
		return 0, fmt.Errorf("record: write frame: %w", err)
	}
	return offset, nil
}

// Frame is one decoded-header entry read back from a log during replay;
// Payload still needs its type-specific codec applied.
type Frame struct {
	Offset  int64
	Type    Type
	Version uint32
	ID      model.IdT
	Payload []byte
}

// ReadAll reads every frame in path sequentially, in append order. It
// does not hold the file open past the call, so it is safe to run
// concurrently with a Log still appending to the same path during
// startup replay.
func ReadAll(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("record: open log for replay: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var frames []Frame
	var offset int64
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return frames, fmt.Errorf("record: read frame length at offset %d: %w", offset, err)
		}
		frameLen := binary.NativeEndian.Uint32(lenBuf[:])
		if frameLen < 8 {
			return frames, fmt.Errorf("record: frame at offset %d too short (%d bytes)", offset, frameLen)
		}

		frameBuf := make([]byte, frameLen)
		if _, err := io.ReadFull(r, frameBuf); err != nil {
			return frames, fmt.Errorf("record: read frame body at offset %d: %w", offset, err)
		}

		typ, rest, err := getU32(frameBuf)
		if err != nil {
			return frames, fmt.Errorf("record: decode frame type at offset %d: %w", offset, err)
		}
		version, rest, err := getU32(rest)
		if err != nil {
			return frames, fmt.Errorf("record: decode frame version at offset %d: %w", offset, err)
		}
		id, payload, err := getIdT(rest)
		if err != nil {
			return frames, fmt.Errorf("record: decode frame id at offset %d: %w", offset, err)
		}

		frames = append(frames, Frame{Offset: offset, Type: Type(typ), Version: version, ID: id, Payload: payload})
		offset += 4 + int64(frameLen)
	}
	return frames, nil
}
