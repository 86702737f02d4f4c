package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, mongo) inside this directory.

// ErrNotFound is returned when a lookup by identifier matches no record.
var ErrNotFound = errors.New("record not found")
