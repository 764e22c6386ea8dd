// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"reflect"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// sliceVariant returns the elements of an array variant selected by
// rangeText. A range reaching past the end is clipped; a range that
// starts past the end selects no data.
func sliceVariant(value ua.Variant, rangeText string) (ua.Variant, ua.StatusCode) {
	indexRange, err := ua.ParseIndexRange(rangeText)
	if err != nil {
		return ua.Variant{}, ua.StatusBadIndexRangeInvalid
	}
	if !value.Array {
		return ua.Variant{}, ua.StatusBadIndexRangeNoData
	}
	elements := reflect.ValueOf(value.Value)
	if indexRange.First >= elements.Len() {
		return ua.Variant{}, ua.StatusBadIndexRangeNoData
	}
	last := min(indexRange.Last, elements.Len()-1)
	selected := reflect.MakeSlice(elements.Type(), last-indexRange.First+1, last-indexRange.First+1)
	reflect.Copy(selected, elements.Slice(indexRange.First, last+1))
	return ua.Variant{Type: value.Type, Array: true, Value: selected.Interface()}, ua.StatusGood
}

// spliceVariant overwrites the elements of current selected by
// rangeText with the elements of incoming, returning a new array.
func spliceVariant(current, incoming ua.Variant, rangeText string) (ua.Variant, ua.StatusCode) {
	indexRange, err := ua.ParseIndexRange(rangeText)
	if err != nil {
		return ua.Variant{}, ua.StatusBadIndexRangeInvalid
	}
	if !current.Array || !incoming.Array || current.Type != incoming.Type {
		return ua.Variant{}, ua.StatusBadTypeMismatch
	}
	target := reflect.ValueOf(current.Value)
	source := reflect.ValueOf(incoming.Value)
	if indexRange.Last >= target.Len() || source.Len() != indexRange.Count() {
		return ua.Variant{}, ua.StatusBadIndexRangeInvalid
	}
	merged := reflect.MakeSlice(target.Type(), target.Len(), target.Len())
	reflect.Copy(merged, target)
	reflect.Copy(merged.Slice(indexRange.First, indexRange.Last+1), source)
	return ua.Variant{Type: current.Type, Array: true, Value: merged.Interface()}, ua.StatusGood
}
