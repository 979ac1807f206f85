package npy

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/born-ml/gradtape/internal/tensor"
)

// rawFile assembles an .npy stream by hand.
func rawFile(major byte, dict string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString(magic)
	b.Write([]byte{major, 0})
	header := dict + "\n"
	if major == 1 {
		_ = binary.Write(&b, binary.LittleEndian, uint16(len(header)))
	} else {
		_ = binary.Write(&b, binary.LittleEndian, uint32(len(header)))
	}
	b.WriteString(header)
	b.Write(data)
	return b.Bytes()
}

func float64Bytes(order binary.ByteOrder, values ...float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		order.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	buf, err := tensor.New(tensor.Shape{2, 3}, []float64{1, -2, 3.5, 4, 5, 6e-3})
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, Write(&b, buf))
	assert.Zero(t, (b.Len()-len(buf.Data())*8)%alignment, "data must start on an aligned offset")

	got, err := Read[float64](bytes.NewReader(b.Bytes()), tensor.Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, buf.Data(), got.Data())
	assert.Equal(t, buf.Shape(), got.Shape())
}

func TestRoundTrip_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.npy")
	buf, err := tensor.New(tensor.Shape{4}, []float32{0.5, 1, 1.5, 2})
	require.NoError(t, err)
	require.NoError(t, Save(path, buf))

	got, err := Load[float32](path, nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4}, got.Shape())
	assert.Equal(t, buf.Data(), got.Data())

	// Widening on read.
	wide, err := Load[float64](path, tensor.Shape{4})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2}, wide.Data())
}

func TestRoundTrip_Scalar(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write(&b, tensor.Scalar(2.5)))

	h, err := ReadHeader(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, h.Shape)

	got, err := Read[float64](bytes.NewReader(b.Bytes()), tensor.Shape{})
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Item())
}

func TestWriteDtype(t *testing.T) {
	buf, err := tensor.New(tensor.Shape{3}, []float64{1, -0.5, 1024})
	require.NoError(t, err)

	for _, d := range []Dtype{
		{Size: 2, Order: binary.LittleEndian},
		{Size: 4, Order: binary.BigEndian},
		{Size: 8, Order: binary.BigEndian},
	} {
		t.Run(d.String(), func(t *testing.T) {
			var b bytes.Buffer
			require.NoError(t, WriteDtype(&b, buf, d))

			h, err := ReadHeader(bytes.NewReader(b.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, d, h.Dtype)

			got, err := Read[float64](bytes.NewReader(b.Bytes()), nil)
			require.NoError(t, err)
			assert.Equal(t, buf.Data(), got.Data())
		})
	}

	err = WriteDtype(&bytes.Buffer{}, buf, Dtype{Size: 3, Order: binary.LittleEndian})
	assert.ErrorIs(t, err, ErrWrongDtype)
}

func TestRead_Versions(t *testing.T) {
	dict := "{'descr': '<f8', 'fortran_order': False, 'shape': (2,), }"
	for _, major := range []byte{1, 2, 3} {
		got, err := Read[float64](bytes.NewReader(rawFile(major, dict, float64Bytes(binary.LittleEndian, 1, 2))), nil)
		require.NoError(t, err, "version %d", major)
		assert.Equal(t, []float64{1, 2}, got.Data())
	}

	_, err := Read[float64](bytes.NewReader(rawFile(4, dict, nil)), nil)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestRead_BigEndian(t *testing.T) {
	data := float64Bytes(binary.BigEndian, 1.25, -3)
	got, err := Read[float32](bytes.NewReader(rawFile(1, "{'descr': '>f8', 'fortran_order': False, 'shape': (2,)}", data)), nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.25, -3}, got.Data())
}

func TestRead_HalfPrecision(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint16(data, float16.Fromfloat32(0.5).Bits())
	binary.LittleEndian.PutUint16(data[2:], float16.Fromfloat32(-2).Bits())

	got, err := Read[float64](bytes.NewReader(rawFile(1, "{'descr': '<f2', 'fortran_order': False, 'shape': (2,)}", data)), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -2}, got.Data())
}

func TestRead_FortranOrder(t *testing.T) {
	// Column-major [[1, 2, 3], [4, 5, 6]].
	data := float64Bytes(binary.LittleEndian, 1, 4, 2, 5, 3, 6)
	got, err := Read[float64](bytes.NewReader(rawFile(1, "{'descr': '<f8', 'fortran_order': True, 'shape': (2, 3), }", data)), tensor.Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got.Data())
}

func TestRead_Errors(t *testing.T) {
	good := "{'descr': '<f8', 'fortran_order': False, 'shape': (2,), }"
	tests := []struct {
		name  string
		input []byte
		shape tensor.Shape
		want  error
	}{
		{"magic", []byte("\x93NUMPZ\x01\x00"), nil, ErrInvalidMagic},
		{"short", []byte("\x93NU"), nil, ErrInvalidMagic},
		{"shape", rawFile(1, good, float64Bytes(binary.LittleEndian, 1, 2)), tensor.Shape{3}, ErrWrongShape},
		{"int dtype", rawFile(1, "{'descr': '<i8', 'fortran_order': False, 'shape': (2,)}", nil), nil, ErrWrongDtype},
		{"complex dtype", rawFile(1, "{'descr': '<c16', 'fortran_order': False, 'shape': (2,)}", nil), nil, ErrWrongDtype},
		{"missing descr", rawFile(1, "{'fortran_order': False, 'shape': (2,)}", nil), nil, ErrHeader},
		{"missing order", rawFile(1, "{'descr': '<f8', 'shape': (2,)}", nil), nil, ErrHeader},
		{"missing shape", rawFile(1, "{'descr': '<f8', 'fortran_order': False}", nil), nil, ErrHeader},
		{"bad literal", rawFile(1, "{'descr': '<f8', 'fortran_order': None, 'shape': (2,)}", nil), nil, ErrHeader},
		{"zero dim", rawFile(1, "{'descr': '<f8', 'fortran_order': False, 'shape': (0,)}", nil), nil, ErrHeader},
		{"rank", rawFile(1, "{'descr': '<f8', 'fortran_order': False, 'shape': (1, 1, 1, 1, 1)}", nil), nil, ErrHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read[float64](bytes.NewReader(tt.input), tt.shape)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Truncated data is an I/O error, not a header error.
	_, err := Read[float64](bytes.NewReader(rawFile(1, good, float64Bytes(binary.LittleEndian, 1))), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHeader)
}

func TestEncodeHeader(t *testing.T) {
	h := encodeHeader(Dtype{Size: 8, Order: binary.LittleEndian}, tensor.Shape{3})
	assert.Contains(t, h, "'shape': (3,)")
	assert.Contains(t, h, "'descr': '<f8'")
	assert.Zero(t, (len(magic)+4+len(h))%alignment)
	assert.Equal(t, byte('\n'), h[len(h)-1])

	h = encodeHeader(Dtype{Size: 4, Order: binary.BigEndian}, tensor.Shape{2, 3})
	assert.Contains(t, h, "'shape': (2, 3)")
	assert.Contains(t, h, "'descr': '>f4'")
}
