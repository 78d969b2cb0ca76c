// Package trace records rendered audio as a stream of CBOR records so that two
// runs can be compared sample for sample.
package trace

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/gopxl/beep"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2). Floats are
// written in the shortest form that keeps their exact value.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("trace: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("trace: CBOR decoder initialization failed: " + err.Error())
	}
}

// Record is one streamed chunk. Index counts chunks from zero.
type Record struct {
	Index uint64    `cbor:"1,keyasint"`
	X     []float64 `cbor:"2,keyasint"`
	Y     []float64 `cbor:"3,keyasint"`
}

// Tap passes a streamer through unchanged and writes every chunk it produces.
type Tap struct {
	s     beep.Streamer
	enc   *cbor.Encoder
	index uint64
	rec   Record
	err   error
}

var _ beep.Streamer = (*Tap)(nil)

func NewTap(s beep.Streamer, w io.Writer) *Tap {
	return &Tap{s: s, enc: encMode.NewEncoder(w)}
}

func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	if n == 0 || t.err != nil {
		return n, ok
	}

	t.rec.Index = t.index
	t.rec.X = t.rec.X[:0]
	t.rec.Y = t.rec.Y[:0]
	for _, smp := range samples[:n] {
		t.rec.X = append(t.rec.X, smp[0])
		t.rec.Y = append(t.rec.Y, smp[1])
	}
	if err := t.enc.Encode(&t.rec); err != nil {
		t.err = fmt.Errorf("failed to write trace record %d: %w", t.index, err)
	}
	t.index++
	return n, ok
}

// Err reports the first error of the wrapped streamer, then the first write error.
func (t *Tap) Err() error {
	if err := t.s.Err(); err != nil {
		return err
	}
	return t.err
}

// Chunks returns the number of records written so far.
func (t *Tap) Chunks() uint64 {
	return t.index
}

// ReadAll decodes every record of a trace.
func ReadAll(r io.Reader) ([]Record, error) {
	dec := decMode.NewDecoder(r)
	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("failed to read trace record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// Samples concatenates the chunks of a trace.
func Samples(records []Record) (xs, ys []float64) {
	for _, rec := range records {
		xs = append(xs, rec.X...)
		ys = append(ys, rec.Y...)
	}
	return xs, ys
}

// Equal reports whether two traces carry bit-identical samples, regardless
// of how they were split in chunks.
func Equal(a, b []Record) bool {
	ax, ay := Samples(a)
	bx, by := Samples(b)
	return sameBits(ax, bx) && sameBits(ay, by)
}

func sameBits(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}
