/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"math"
	"reflect"

	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

// Get returns the value stored under key. Set tables yield the value, or def
// when the key is absent. Bag tables always yield a []any holding every
// value under key, possibly empty, and ignore def.
//
// Get never fails: an unregistered alias or a backend read error yields def.
func (s *Store) Get(ctx context.Context, alias storagemodels.Alias, key string, def any) any {
	rec, ok := s.registry.Lookup(alias)
	if !ok {
		return def
	}

	objs, err := rec.Table.Lookup(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "lookup failed, returning default", "alias", alias, "key", key, "error", err)
		return def
	}

	if rec.EntryType.IsBag() {
		values := make([]any, len(objs))
		for i, obj := range objs {
			values[i] = obj.Value
		}
		return values
	}
	if len(objs) == 0 {
		return def
	}
	return objs[0].Value
}

// Put stores value under key: set tables overwrite, bag tables append.
func (s *Store) Put(ctx context.Context, alias storagemodels.Alias, key string, value any) (storagemodels.Alias, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return alias, err
	}
	if err := rec.Table.Insert(ctx, storagemodels.Object{Key: key, Value: value}); err != nil {
		return alias, err
	}
	return alias, nil
}

// Delete removes every value under key. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, alias storagemodels.Alias, key string) (storagemodels.Alias, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return alias, err
	}
	if err := rec.Table.Delete(ctx, key); err != nil {
		return alias, err
	}
	return alias, nil
}

// HasKey reports whether key is present. It is false for unregistered
// aliases.
func (s *Store) HasKey(ctx context.Context, alias storagemodels.Alias, key string) bool {
	rec, ok := s.registry.Lookup(alias)
	if !ok {
		return false
	}
	member, err := rec.Table.Member(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "member check failed", "alias", alias, "key", key, "error", err)
		return false
	}
	return member
}

// Size returns the number of stored objects, 0 for unregistered aliases.
func (s *Store) Size(ctx context.Context, alias storagemodels.Alias) int {
	rec, ok := s.registry.Lookup(alias)
	if !ok {
		return 0
	}
	n, err := rec.Table.Size(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "size failed", "alias", alias, "error", err)
		return 0
	}
	return n
}

// Empty reports whether the table holds no objects or is not registered.
func (s *Store) Empty(ctx context.Context, alias storagemodels.Alias) bool {
	return s.Size(ctx, alias) == 0
}

type incrOptions struct {
	step    any
	initial any
}

// IncrOption is a functional option for Incr
type IncrOption func(*incrOptions)

// WithStep sets the increment, 1 by default. Any Go numeric value works.
func WithStep(step any) IncrOption {
	return func(o *incrOptions) {
		o.step = step
	}
}

// WithInitial sets the value assumed for an absent key, 0 by default.
func WithInitial(initial any) IncrOption {
	return func(o *incrOptions) {
		o.initial = initial
	}
}

// Incr adds the step to the number stored under key. A key holding a
// non-numeric value is left untouched and Incr still succeeds, so chained
// increments never abort on a type mismatch.
func (s *Store) Incr(ctx context.Context, alias storagemodels.Alias, key string, opts ...IncrOption) (storagemodels.Alias, error) {
	o := incrOptions{step: 1, initial: 0}
	for _, opt := range opts {
		opt(&o)
	}
	if !isNumber(reflect.ValueOf(o.step)) {
		return alias, errors.NewValidationError("step", "must be numeric")
	}
	if _, err := s.resolve(alias); err != nil {
		return alias, err
	}

	current := s.Get(ctx, alias, key, o.initial)
	sum, ok := addNumbers(current, o.step)
	if !ok {
		return alias, nil
	}
	return s.Put(ctx, alias, key, sum)
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || isFloat(v)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	}
	return v.Float()
}

func toUint(v reflect.Value) uint64 {
	if isUint(v) {
		return v.Uint()
	}
	return uint64(v.Int())
}

// addNumbers returns current+step. Integer values keep their type when the
// step is integral; a float on either side gives float arithmetic, keeping
// the stored float type or falling back to float64. A sum that does not fit
// the stored integer type reports false, like a non-numeric value.
func addNumbers(current, step any) (any, bool) {
	cv, sv := reflect.ValueOf(current), reflect.ValueOf(step)
	if !isNumber(cv) || !isNumber(sv) {
		return nil, false
	}

	out := reflect.New(cv.Type()).Elem()
	switch {
	case isFloat(cv):
		out.SetFloat(cv.Float() + toFloat(sv))
	case isFloat(sv):
		return toFloat(cv) + sv.Float(), true
	case isInt(cv):
		sum, ok := addInt(cv.Int(), sv)
		if !ok || out.OverflowInt(sum) {
			return nil, false
		}
		out.SetInt(sum)
	default:
		sum, ok := addUint(cv.Uint(), sv)
		if !ok || out.OverflowUint(sum) {
			return nil, false
		}
		out.SetUint(sum)
	}
	return out.Interface(), true
}

func addInt(n int64, step reflect.Value) (int64, bool) {
	if isUint(step) {
		d := step.Uint()
		if d > math.MaxInt64 || n > math.MaxInt64-int64(d) {
			return 0, false
		}
		return n + int64(d), true
	}
	d := step.Int()
	if (d > 0 && n > math.MaxInt64-d) || (d < 0 && n < math.MinInt64-d) {
		return 0, false
	}
	return n + d, true
}

func addUint(n uint64, step reflect.Value) (uint64, bool) {
	if isInt(step) && step.Int() < 0 {
		d := uint64(-(step.Int() + 1)) + 1
		if d > n {
			return 0, false
		}
		return n - d, true
	}
	d := toUint(step)
	if n > math.MaxUint64-d {
		return 0, false
	}
	return n + d, true
}
