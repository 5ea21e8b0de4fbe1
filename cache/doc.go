// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cache holds the public candidate standings between votes.
// Redis is used when configured; otherwise an in-process TTL cache.
// Every successful vote and candidate edit invalidates the entry.
package cache
