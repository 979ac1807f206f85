package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/npy"
	"github.com/born-ml/gradtape/internal/tensor"
)

// SaveOptions configures Save.
type SaveOptions struct {
	ModelType  string
	Metadata   map[string]string
	Checkpoint *CheckpointMeta
}

// Save writes params to dir, creating it if needed, and returns the
// manifest it wrote. Existing tensor files with the same names are replaced.
func Save[T tensor.Float](dir string, params []*nn.Parameter[T], opts SaveOptions) (*Header, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}

	h := &Header{
		FormatVersion: FormatVersion,
		ModelType:     opts.ModelType,
		CreatedAt:     time.Now().UTC(),
		DType:         tensor.DataTypeOf[T]().String(),
		Tensors:       make([]TensorMeta, 0, len(params)),
		Metadata:      opts.Metadata,
		Checkpoint:    opts.Checkpoint,
	}
	for i, p := range params {
		name := tensorName(i, p.Name())
		if err := ValidateTensorName(name); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
		var raw bytes.Buffer
		if err := npy.Write(&raw, p.Tensor().Value()); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
		path := filepath.Join(dir, name+tensorExt)
		if err := os.WriteFile(path, raw.Bytes(), 0o600); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
		h.Tensors = append(h.Tensors, TensorMeta{
			Name:     name,
			Shape:    p.Shape().Clone(),
			File:     name + tensorExt,
			Checksum: checksum(raw.Bytes()),
		})
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0o600); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}

	klog.V(2).InfoS("Saved checkpoint", "dir", dir, "tensors", len(h.Tensors), "dtype", h.DType)
	return h, nil
}
