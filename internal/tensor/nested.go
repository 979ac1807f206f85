package tensor

import "fmt"

// FromNested creates a Buffer from nested Go slices whose structure must
// match shape exactly. Accepted values are T (rank 0), []T, [][]T, [][][]T
// and [][][][]T.
//
// Example:
//
//	b, err := tensor.FromNested[float32](tensor.Shape{2, 3}, [][]float32{
//	    {1, 2, 3},
//	    {4, 5, 6},
//	})
func FromNested[T Float](shape Shape, values any) (*Buffer[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := checkNested[T](shape, values); err != nil {
		return nil, err
	}

	b := Zeros[T](shape)
	err := shape.Visit(func(offset int, coords []int) error {
		b.data[offset] = nestedAt[T](values, coords)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// checkNested verifies every nested length against shape before any
// element is read.
func checkNested[T Float](shape Shape, values any) error {
	switch v := values.(type) {
	case T:
		if len(shape) != 0 {
			return nestedRankError(shape, 0)
		}
	case []T:
		if len(shape) != 1 {
			return nestedRankError(shape, 1)
		}
		return checkLen(shape, 0, len(v))
	case [][]T:
		if len(shape) != 2 {
			return nestedRankError(shape, 2)
		}
		if err := checkLen(shape, 0, len(v)); err != nil {
			return err
		}
		for _, row := range v {
			if err := checkLen(shape, 1, len(row)); err != nil {
				return err
			}
		}
	case [][][]T:
		if len(shape) != 3 {
			return nestedRankError(shape, 3)
		}
		if err := checkLen(shape, 0, len(v)); err != nil {
			return err
		}
		for _, plane := range v {
			if err := checkNested[T](shape[1:], plane); err != nil {
				return err
			}
		}
	case [][][][]T:
		if len(shape) != 4 {
			return nestedRankError(shape, 4)
		}
		if err := checkLen(shape, 0, len(v)); err != nil {
			return err
		}
		for _, cube := range v {
			if err := checkNested[T](shape[1:], cube); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unsupported nested value %T", ErrInvalidShape, values)
	}
	return nil
}

func checkLen(shape Shape, axis, got int) error {
	if shape[axis] != got {
		return fmt.Errorf("%w: axis %d of %v has %d elements", ErrShapeMismatch, axis, shape, got)
	}
	return nil
}

func nestedRankError(shape Shape, got int) error {
	return fmt.Errorf("%w: shape %v has rank %d but nested value has rank %d",
		ErrShapeMismatch, shape, len(shape), got)
}

// nestedAt reads the element at coords. The structure has already been
// validated by checkNested.
func nestedAt[T Float](values any, coords []int) T {
	switch v := values.(type) {
	case T:
		return v
	case []T:
		return v[coords[0]]
	case [][]T:
		return v[coords[0]][coords[1]]
	case [][][]T:
		return v[coords[0]][coords[1]][coords[2]]
	case [][][][]T:
		return v[coords[0]][coords[1]][coords[2]][coords[3]]
	}
	panic(fmt.Sprintf("nestedAt: unsupported nested value %T", values))
}
