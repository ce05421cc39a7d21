package domain

import "errors"

// ErrEmptyInput is returned when the text to convert is blank after sanitization.
var ErrEmptyInput = errors.New("input is empty")

// ErrUpstream is returned when the generative API answers with a non-success status.
var ErrUpstream = errors.New("upstream request failed")

// ErrEmptyAnswer is returned when the generative API succeeds without an answer.
var ErrEmptyAnswer = errors.New("upstream returned an empty answer")

// ErrCacheMiss is returned by caches when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ErrLockAcquire is returned when a distributed lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")
