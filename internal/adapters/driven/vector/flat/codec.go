package flat

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
)

// Ensure Codec implements the interface.
var _ driven.IndexCodec = (*Codec)(nil)

// Precision defines the storage precision for vectors.
// Runtime operations always use float32; this only affects serialised size.
type Precision uint8

const (
	// PrecisionFloat32 stores vectors at full precision.
	PrecisionFloat32 Precision = 0
	// PrecisionFloat16 stores vectors at half precision (50% storage savings).
	PrecisionFloat16 Precision = 1
)

// ParsePrecision maps "float32" or "float16" to a Precision.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "", "float32":
		return PrecisionFloat32, nil
	case "float16":
		return PrecisionFloat16, nil
	default:
		return 0, fmt.Errorf("flat: unknown precision %q", s)
	}
}

const (
	formatName    = "policystore-flat-ip"
	formatVersion = 1
)

// ErrCorruptIndex indicates bytes that do not decode to a valid index.
var ErrCorruptIndex = errors.New("flat: corrupt index")

// envelope is the serialised form. Vectors are stored row-major in
// exactly one of F32 or F16.
type envelope struct {
	Format    string    `cbor:"1,keyasint"`
	Version   int       `cbor:"2,keyasint"`
	Dimension int       `cbor:"3,keyasint"`
	Count     int       `cbor:"4,keyasint"`
	Precision Precision `cbor:"5,keyasint"`
	F32       []float32 `cbor:"6,keyasint,omitempty"`
	F16       []uint16  `cbor:"7,keyasint,omitempty"`
}

// maxArrayElements is the largest array length the CBOR decoder accepts.
const maxArrayElements = 2147483647

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("flat: CBOR encoder initialization failed: " + err.Error())
	}
	// One array holds every value of the index; lift the default cap.
	decMode, err = cbor.DecOptions{MaxArrayElements: maxArrayElements}.DecMode()
	if err != nil {
		panic("flat: CBOR decoder initialization failed: " + err.Error())
	}
}

// Codec builds and serialises flat indexes.
type Codec struct {
	precision Precision
}

// NewCodec creates a codec that serialises at the given precision.
func NewCodec(precision Precision) *Codec {
	return &Codec{precision: precision}
}

// Build creates an index with one position per vector, in order.
// All vectors must share a dimension.
func (c *Codec) Build(vectors [][]float32) (driven.VectorIndex, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	idx, err := New(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	for pos, v := range vectors {
		if err := idx.Add(v); err != nil {
			return nil, fmt.Errorf("vector %d: %w", pos, err)
		}
	}
	return idx, nil
}

// Encode serialises an index produced by this package.
func (c *Codec) Encode(index driven.VectorIndex) ([]byte, error) {
	idx, ok := index.(*Index)
	if !ok {
		return nil, fmt.Errorf("flat: cannot encode %T", index)
	}

	env := envelope{
		Format:    formatName,
		Version:   formatVersion,
		Dimension: idx.dimension,
		Count:     len(idx.vectors),
		Precision: c.precision,
	}
	switch c.precision {
	case PrecisionFloat32:
		env.F32 = make([]float32, 0, env.Count*env.Dimension)
		for _, v := range idx.vectors {
			env.F32 = append(env.F32, v...)
		}
	case PrecisionFloat16:
		env.F16 = make([]uint16, 0, env.Count*env.Dimension)
		for _, v := range idx.vectors {
			for _, x := range v {
				env.F16 = append(env.F16, float16.Fromfloat32(x).Bits())
			}
		}
	default:
		return nil, fmt.Errorf("flat: unknown precision %d", c.precision)
	}

	return encMode.Marshal(env)
}

// Decode restores an index from bytes written by Encode at any precision.
func (c *Codec) Decode(data []byte) (driven.VectorIndex, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if env.Format != formatName {
		return nil, fmt.Errorf("%w: format %q", ErrCorruptIndex, env.Format)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, env.Version)
	}
	if env.Dimension <= 0 || env.Count < 0 {
		return nil, fmt.Errorf("%w: dimension %d, count %d", ErrCorruptIndex, env.Dimension, env.Count)
	}

	var values int
	switch env.Precision {
	case PrecisionFloat32:
		values = len(env.F32)
	case PrecisionFloat16:
		values = len(env.F16)
	default:
		return nil, fmt.Errorf("%w: precision %d", ErrCorruptIndex, env.Precision)
	}
	// Checked by division so Count*Dimension cannot overflow.
	if values%env.Dimension != 0 || env.Count != values/env.Dimension {
		return nil, fmt.Errorf("%w: %d values for %d vectors of dimension %d",
			ErrCorruptIndex, values, env.Count, env.Dimension)
	}

	idx := &Index{dimension: env.Dimension, vectors: make([][]float32, env.Count)}
	switch env.Precision {
	case PrecisionFloat32:
		for i := range idx.vectors {
			row := make([]float32, env.Dimension)
			copy(row, env.F32[i*env.Dimension:])
			idx.vectors[i] = row
		}
	case PrecisionFloat16:
		for i := range idx.vectors {
			row := make([]float32, env.Dimension)
			for j := range row {
				row[j] = float16.Frombits(env.F16[i*env.Dimension+j]).Float32()
			}
			idx.vectors[i] = row
		}
	}
	return idx, nil
}
