package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/npy"
	"github.com/born-ml/gradtape/internal/tensor"
)

// ReadHeader reads and validates the manifest in dir.
func ReadHeader(dir string) (*Header, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName)) //nolint:gosec // G304: dir is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("read checkpoint: %s: %w", ManifestName, err)
	}
	if err := ValidateHeader(&h); err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return &h, nil
}

// Load restores params from dir in place.
//
// The checkpoint must hold exactly len(params) tensors with matching names
// and shapes, and every file must match its checksum. Nothing is written to
// params unless all tensors were read successfully.
func Load[T tensor.Float](dir string, params []*nn.Parameter[T]) (*Header, error) {
	h, err := ReadHeader(dir)
	if err != nil {
		return nil, err
	}
	if want := tensor.DataTypeOf[T]().String(); h.DType != want {
		return nil, fmt.Errorf("load checkpoint: %w: saved %s, loading %s", ErrWrongDtype, h.DType, want)
	}
	if len(h.Tensors) != len(params) {
		return nil, fmt.Errorf("load checkpoint: %w: checkpoint has %d, module has %d",
			ErrParameterCount, len(h.Tensors), len(params))
	}

	values := make([]*tensor.Buffer[T], len(params))
	for i, p := range params {
		meta := h.Tensors[i]
		if want := tensorName(i, p.Name()); meta.Name != want {
			return nil, &ValidationError{
				Type: "name_mismatch", Tensor: meta.Name, Err: ErrInvalidTensorName,
				Details: fmt.Sprintf("parameter %d is %q", i, want),
			}
		}
		// The verified bytes are the ones decoded.
		path := filepath.Join(dir, meta.File)
		raw, err := os.ReadFile(path) //nolint:gosec // G304: file name validated by ReadHeader
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if err := validateChecksum(raw, meta.Checksum); err != nil {
			return nil, fmt.Errorf("load checkpoint: %s: %w", path, err)
		}
		buf, err := npy.Read[T](bytes.NewReader(raw), p.Shape())
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %s: %w", path, err)
		}
		values[i] = buf
	}

	for i, p := range params {
		copy(p.Tensor().Data(), values[i].Data())
	}
	klog.V(2).InfoS("Loaded checkpoint", "dir", dir, "tensors", len(params), "model", h.ModelType)
	return h, nil
}
