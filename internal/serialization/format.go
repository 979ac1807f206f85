package serialization

import (
	"fmt"
	"time"
)

// Format constants.
const (
	FormatVersion = 1
	ManifestName  = "manifest.json"
	tensorExt     = ".npy"
)

// Header is the manifest stored next to the tensor files.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ModelType     string            `json:"model_type,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	DType         string            `json:"dtype"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta contains training state at the time of saving.
type CheckpointMeta struct {
	Step            int64          `json:"step"`
	Loss            float64        `json:"loss"`
	OptimizerType   string         `json:"optimizer_type,omitempty"`
	OptimizerConfig map[string]any `json:"optimizer_config,omitempty"`
}

// TensorMeta describes one parameter file.
type TensorMeta struct {
	Name     string `json:"name"`     // e.g. "003.gamma"
	Shape    []int  `json:"shape"`    // parameter shape
	File     string `json:"file"`     // file name relative to the checkpoint directory
	Checksum string `json:"checksum"` // hex SHA-256 of the file
}

// tensorName gives the i-th parameter a name unique within the checkpoint.
func tensorName(i int, param string) string {
	return fmt.Sprintf("%03d.%s", i, param)
}
