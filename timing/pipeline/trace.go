package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HexU32 lazily formats a word for log attributes.
type HexU32 uint32

func (v HexU32) String() string {
	return fmt.Sprintf("%08x", uint32(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v HexU32) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// TraceEntry is one executed cycle in a writeback trace. The packed
// record uses the 46-bit WritebackRecord layout.
type TraceEntry struct {
	Cycle       hexutil.Uint64 `json:"cycle"`
	PC          hexutil.Uint64 `json:"pc"`
	Instruction hexutil.Uint64 `json:"instruction"`
	Writeback   hexutil.Uint64 `json:"writeback"`
	PCNext      hexutil.Uint64 `json:"pcNext"`
}

// Record returns the unpacked writeback record of the entry.
func (e TraceEntry) Record() WritebackRecord {
	return UnpackWriteback(uint64(e.Writeback))
}

// Tracer writes one JSON line per executed cycle.
type Tracer struct {
	enc *json.Encoder
	err error
}

// NewTracer creates a tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{enc: json.NewEncoder(w)}
}

// Record appends the entry for a cycle. After the first write error all
// further entries are dropped; Err reports it.
func (t *Tracer) Record(cycle uint64, cur CycleState) {
	if t.err != nil {
		return
	}

	entry := TraceEntry{
		Cycle:       hexutil.Uint64(cycle),
		PC:          hexutil.Uint64(cur.PC),
		Instruction: hexutil.Uint64(cur.Instruction.Word),
		Writeback:   hexutil.Uint64(cur.NextWriteback.Pack()),
		PCNext:      hexutil.Uint64(cur.PCNext),
	}

	if err := t.enc.Encode(&entry); err != nil {
		t.err = fmt.Errorf("failed to write trace entry: %w", err)
	}
}

// Err returns the first write error, if any.
func (t *Tracer) Err() error {
	return t.err
}

// ReadTrace parses a trace written by a Tracer.
func ReadTrace(r io.Reader) ([]TraceEntry, error) {
	var entries []TraceEntry

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var entry TraceEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse trace line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return entries, nil
}
