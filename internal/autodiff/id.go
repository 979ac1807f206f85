package autodiff

import (
	"strconv"
	"sync/atomic"
)

// ID identifies a tensor's gradient slot or a stored derivative on a tape.
// IDs are unique for the lifetime of the process.
type ID uint64

var lastID atomic.Uint64

// NextID allocates a fresh identifier. It is safe for concurrent use, so
// independent computation chains may run on separate goroutines.
func NextID() ID {
	return ID(lastID.Add(1))
}

// String returns the decimal form of the identifier.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
