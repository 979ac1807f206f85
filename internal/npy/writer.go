package npy

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/x448/float16"

	"github.com/born-ml/gradtape/internal/tensor"
)

// Write encodes buf as a version 1.0, little-endian, C-order .npy stream.
// The dtype follows T: <f4 for float32, <f8 for float64.
func Write[T tensor.Float](w io.Writer, buf *tensor.Buffer[T]) error {
	return WriteDtype(w, buf, Dtype{Size: tensor.DataTypeOf[T]().Size(), Order: binary.LittleEndian})
}

// WriteDtype is Write with an explicit element encoding, for example
// Dtype{Size: 2, Order: binary.LittleEndian} for half precision.
func WriteDtype[T tensor.Float](w io.Writer, buf *tensor.Buffer[T], dtype Dtype) error {
	if dtype.Order == nil || (dtype.Size != 2 && dtype.Size != 4 && dtype.Size != 8) {
		return fmt.Errorf("%w: %d-byte float", ErrWrongDtype, dtype.Size)
	}
	header := encodeHeader(dtype, buf.Shape())

	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("npy: writing magic: %w", err)
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return fmt.Errorf("npy: writing version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return fmt.Errorf("npy: writing header length: %w", err)
	}
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("npy: writing header: %w", err)
	}

	if _, err := w.Write(encode(dtype, buf.Data())); err != nil {
		return fmt.Errorf("npy: writing data: %w", err)
	}
	return nil
}

// Save writes buf to the file at path. See Write.
func Save[T tensor.Float](path string, buf *tensor.Buffer[T]) (err error) {
	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, buf); err != nil {
		return err
	}
	return bw.Flush()
}

// encode converts values to raw file bytes.
func encode[T tensor.Float](d Dtype, values []T) []byte {
	raw := make([]byte, len(values)*d.Size)
	for i, v := range values {
		b := raw[i*d.Size:]
		switch d.Size {
		case 2:
			d.Order.PutUint16(b, float16.Fromfloat32(float32(v)).Bits())
		case 4:
			d.Order.PutUint32(b, math.Float32bits(float32(v)))
		case 8:
			d.Order.PutUint64(b, math.Float64bits(float64(v)))
		}
	}
	return raw
}

// encodeHeader renders the header dict padded with spaces so that the
// data starts on a 64-byte boundary, terminated by a newline.
func encodeHeader(d Dtype, shape tensor.Shape) string {
	dims := make([]string, len(shape))
	for i, dim := range shape {
		dims[i] = fmt.Sprint(dim)
	}
	tuple := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	tuple += ")"

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", d, tuple)
	preamble := len(magic) + 2 + 2
	pad := alignment - (preamble+len(dict)+1)%alignment
	if pad == alignment {
		pad = 0
	}
	return dict + strings.Repeat(" ", pad) + "\n"
}
