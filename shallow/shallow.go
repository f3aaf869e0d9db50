// Package shallow provides the reflection primitives behind store
// transitions: top-level overlay merging, defensive cloning, and the
// shallow equality used to suppress no-op notifications.
package shallow

import "reflect"

// IsComposable reports whether value can participate in a top-level overlay.
// Structs and maps (directly or behind pointers) are composable; primitives,
// slices, and arrays are atomic and always replaced wholesale.
func IsComposable(value any) bool {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	default:
		return false
	}
}

// Merge overlays update onto current one level deep and returns the result.
// For structs, zero-valued exported fields of update are treated as absent
// and keep the current value; unexported fields carry over from current
// unchanged, since an update cannot address them. For maps, every key
// present in update wins. The overlay never recurses: a populated nested
// value replaces the current one wholesale. Non-composable values yield
// update unchanged.
func Merge[T any](current, update T) T {
	merged := mergeValue(reflect.ValueOf(current), reflect.ValueOf(update))
	if !merged.IsValid() {
		var zero T
		return zero
	}
	zeroType := reflect.TypeOf((*T)(nil)).Elem()
	if merged.Type() != zeroType {
		result := reflect.New(zeroType).Elem()
		result.Set(merged.Convert(zeroType))
		return result.Interface().(T)
	}
	return merged.Interface().(T)
}

func mergeValue(current, update reflect.Value) reflect.Value {
	if !update.IsValid() {
		return cloneValue(current)
	}
	if !current.IsValid() {
		return cloneValue(update)
	}

	switch update.Kind() {
	case reflect.Pointer:
		if update.IsNil() {
			return cloneValue(current)
		}
		if current.Kind() != reflect.Pointer || current.IsNil() {
			return cloneValue(update)
		}
		merged := mergeValue(current.Elem(), update.Elem())
		result := reflect.New(update.Type().Elem())
		result.Elem().Set(merged)
		return result
	case reflect.Interface:
		if update.IsNil() {
			return cloneValue(current)
		}
		var currentElem reflect.Value
		if current.Kind() == reflect.Interface && !current.IsNil() {
			currentElem = current.Elem()
		}
		merged := mergeValue(currentElem, update.Elem())
		return merged.Convert(update.Type())
	case reflect.Struct:
		if current.Kind() != reflect.Struct || current.Type() != update.Type() {
			return cloneValue(update)
		}
		result := reflect.New(update.Type()).Elem()
		// Whole-value copy first so unexported fields survive the overlay.
		result.Set(current)
		for i := 0; i < update.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			updateField := update.Field(i)
			if updateField.IsZero() {
				field.Set(cloneValue(current.Field(i)))
				continue
			}
			field.Set(cloneValue(updateField))
		}
		return result
	case reflect.Map:
		if update.IsNil() {
			return cloneValue(current)
		}
		result := reflect.MakeMapWithSize(update.Type(), update.Len())
		if current.Kind() == reflect.Map && !current.IsNil() {
			iter := current.MapRange()
			for iter.Next() {
				result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := update.MapRange()
		for iter.Next() {
			result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return result
	default:
		return cloneValue(update)
	}
}

// Clone returns a deep copy of value so callers can hold snapshots without
// sharing mutable references with the store cell.
func Clone[T any](value T) T {
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		var zero T
		return zero
	}
	return cloned.Interface().(T)
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return reflect.ValueOf(v.Interface())
	}
}

// Equal reports whether a and b are shallow-equal: struct fields, map
// entries, and slice elements are compared one level deep by identity,
// reference types by pointer. The store uses this check to decide whether a
// transition changed anything.
func Equal[T any](a, b T) bool {
	return equalValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func equalValue(av, bv reflect.Value) bool {
	if !av.IsValid() || !bv.IsValid() {
		return av.IsValid() == bv.IsValid()
	}
	if av.Type() != bv.Type() {
		return false
	}

	switch av.Kind() {
	case reflect.Pointer:
		if av.IsNil() || bv.IsNil() {
			return av.IsNil() && bv.IsNil()
		}
		if av.UnsafePointer() == bv.UnsafePointer() {
			return true
		}
		return equalValue(av.Elem(), bv.Elem())
	case reflect.Interface:
		if av.IsNil() || bv.IsNil() {
			return av.IsNil() && bv.IsNil()
		}
		return equalValue(av.Elem(), bv.Elem())
	case reflect.Struct:
		for i := 0; i < av.NumField(); i++ {
			if !av.Field(i).CanInterface() {
				continue
			}
			if !slotEqual(av.Field(i), bv.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if av.IsNil() != bv.IsNil() {
			return false
		}
		if av.Len() != bv.Len() {
			return false
		}
		iter := av.MapRange()
		for iter.Next() {
			other := bv.MapIndex(iter.Key())
			if !other.IsValid() || !slotEqual(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if av.IsNil() != bv.IsNil() {
			return false
		}
		fallthrough
	case reflect.Array:
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !slotEqual(av.Index(i), bv.Index(i)) {
				return false
			}
		}
		return true
	default:
		return slotEqual(av, bv)
	}
}

// slotEqual compares a single slot by identity: reference kinds compare
// pointers, everything else compares by value.
func slotEqual(v, w reflect.Value) bool {
	if !v.IsValid() || !w.IsValid() {
		return v.IsValid() == w.IsValid()
	}
	if v.Type() != w.Type() {
		return false
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() != w.IsNil() {
			return false
		}
		if v.IsNil() {
			return true
		}
		return v.UnsafePointer() == w.UnsafePointer() && v.Len() == w.Len()
	case reflect.Map, reflect.Chan, reflect.Func:
		if v.IsNil() != w.IsNil() {
			return false
		}
		if v.IsNil() {
			return true
		}
		return v.UnsafePointer() == w.UnsafePointer()
	case reflect.Pointer, reflect.UnsafePointer:
		return v.UnsafePointer() == w.UnsafePointer()
	case reflect.Interface:
		if v.IsNil() || w.IsNil() {
			return v.IsNil() && w.IsNil()
		}
		return slotEqual(v.Elem(), w.Elem())
	default:
		if v.Comparable() {
			return v.Equal(w)
		}
		if !v.CanInterface() || !w.CanInterface() {
			return false
		}
		return reflect.DeepEqual(v.Interface(), w.Interface())
	}
}
