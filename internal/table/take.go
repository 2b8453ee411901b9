package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/series"
)

// takeArray copies the slots at indices into a fresh array, preserving nulls.
func takeArray(arr arrow.Array, indices []int, mem memory.Allocator) (arrow.Array, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= arr.Len() {
			return nil, fmt.Errorf("index %d out of bounds for length %d", idx, arr.Len())
		}
	}

	switch typed := arr.(type) {
	case *array.String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		return gather(b, typed, indices, typed.Value), nil
	case *array.Int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		return gather(b, typed, indices, typed.Value), nil
	case *array.Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		return gather(b, typed, indices, typed.Value), nil
	case *array.Boolean:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		return gather(b, typed, indices, typed.Value), nil
	case *array.Date32:
		b := array.NewDate32Builder(mem)
		defer b.Release()
		return gather(b, typed, indices, typed.Value), nil
	case *array.Timestamp:
		b := array.NewTimestampBuilder(mem, series.TimestampType)
		defer b.Release()
		return gather(b, typed, indices, typed.Value), nil
	default:
		return nil, fmt.Errorf("unsupported array type: %s", arr.DataType())
	}
}

type typedBuilder[V any] interface {
	Append(v V)
	AppendNull()
	Reserve(n int)
	NewArray() arrow.Array
}

func gather[V any](b typedBuilder[V], src arrow.Array, indices []int, value func(int) V) arrow.Array {
	b.Reserve(len(indices))
	for _, idx := range indices {
		if src.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(value(idx))
	}
	return b.NewArray()
}
