// Package series provides typed, Arrow-backed columns for sales tables.
package series

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

const (
	// DateLayout is the rendering of date32 values.
	DateLayout = "2006-01-02"
	// TimestampLayout is the rendering of timestamp values.
	TimestampLayout = "2006-01-02 15:04:05"
)

// TimestampType is the Arrow type used for order timestamps.
var TimestampType = &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}

// Column is the type-erased view of a Series.
type Column interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
	Rename(name string) Column
}

// Series represents a typed data column with Apache Arrow backend
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values. Supported element types
// are string, int64, float64, bool, arrow.Date32 and time.Time.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series where valid[i] == false marks row i as null.
// A nil valid slice means every value is present.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if valid != nil && len(valid) != len(values) {
		panic(fmt.Sprintf("series %s: %d values but %d validity flags", name, len(values), len(valid)))
	}

	var arr arrow.Array

	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []arrow.Date32:
		builder := array.NewDate32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []time.Time:
		builder := array.NewTimestampBuilder(mem, TimestampType)
		defer builder.Release()
		for i, t := range v {
			if valid != nil && !valid[i] {
				builder.AppendNull()
				continue
			}
			builder.Append(arrow.Timestamp(t.Unix()))
		}
		arr = builder.NewArray()
	default:
		panic(fmt.Sprintf("unsupported type: %T", values))
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}
}

// FromArray wraps an existing Arrow array, retaining a reference to it.
func FromArray(name string, arr arrow.Array) (Column, error) {
	switch arr.(type) {
	case *array.String:
		return wrap[string](name, arr), nil
	case *array.Int64:
		return wrap[int64](name, arr), nil
	case *array.Float64:
		return wrap[float64](name, arr), nil
	case *array.Boolean:
		return wrap[bool](name, arr), nil
	case *array.Date32:
		return wrap[arrow.Date32](name, arr), nil
	case *array.Timestamp:
		return wrap[time.Time](name, arr), nil
	default:
		return nil, fmt.Errorf("unsupported array type: %s", arr.DataType())
	}
}

func wrap[T any](name string, arr arrow.Array) *Series[T] {
	arr.Retain()
	return &Series[T]{name: name, array: arr}
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Rename returns a series sharing the same data under a new name.
func (s *Series[T]) Rename(name string) Column {
	return wrap[T](name, s.array)
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice. Null slots hold the zero value.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	case *array.Date32:
		if v, ok := any(&result).(*arrow.Date32); ok {
			*v = arr.Value(index)
		}
	case *array.Timestamp:
		if v, ok := any(&result).(*time.Time); ok {
			*v = arr.Value(index).ToTime(arrow.Second).UTC()
		}
	}

	return result
}

// GetAsString renders the value at index for reports. Nulls render empty.
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}
	return FormatValue(s.array, index)
}

// FormatValue renders one non-null Arrow slot as text.
func FormatValue(arr arrow.Array, index int) string {
	switch typed := arr.(type) {
	case *array.String:
		return typed.Value(index)
	case *array.Int64:
		return strconv.FormatInt(typed.Value(index), 10)
	case *array.Float64:
		return strconv.FormatFloat(typed.Value(index), 'f', -1, 64)
	case *array.Boolean:
		return strconv.FormatBool(typed.Value(index))
	case *array.Date32:
		return typed.Value(index).ToTime().Format(DateLayout)
	case *array.Timestamp:
		return typed.Value(index).ToTime(arrow.Second).UTC().Format(TimestampLayout)
	default:
		return ""
	}
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// NullN returns the number of null slots
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
