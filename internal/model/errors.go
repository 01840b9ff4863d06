package model

import (
	"fmt"
	"sort"
)

// NoCapacityError indicates that no candidate shard can accept a new
// schema: every candidate is full, or there are no candidates.
type NoCapacityError struct {
	Candidates int
}

func (e *NoCapacityError) Error() string {
	if e.Candidates == 0 {
		return "no shard candidates available"
	}
	return fmt.Sprintf("all %d shard candidates are full", e.Candidates)
}

// MissingTenantsError indicates that requested tenant ids were not found
// in the directory. It is fatal only when the loader is configured to
// fail on missing tenants; otherwise the missing set is logged and the
// partial batch proceeds.
type MissingTenantsError struct {
	IDs []int64
}

func (e *MissingTenantsError) Error() string {
	ids := make([]int64, len(e.IDs))
	copy(ids, e.IDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return fmt.Sprintf("tenants not found in directory: %v", ids)
}

// PoolUnavailableError indicates that leasing a connection for one shard
// failed. It is scoped to the affected group; the caller may retry, this
// package does not.
type PoolUnavailableError struct {
	ShardID int64
	Err     error
}

func (e *PoolUnavailableError) Error() string {
	return fmt.Sprintf("connection pool unavailable for shard %d: %v", e.ShardID, e.Err)
}

func (e *PoolUnavailableError) Unwrap() error {
	return e.Err
}

// MalformedAttributeNameError indicates a dynamic attribute name without
// a namespace separator was parsed strictly.
type MalformedAttributeNameError struct {
	Name string
}

func (e *MalformedAttributeNameError) Error() string {
	return fmt.Sprintf("attribute name %q has no namespace separator %q", e.Name, AttributeSeparator)
}

// StoreError wraps an underlying I/O or query failure from a data source,
// naming the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
