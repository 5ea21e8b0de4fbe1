// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package storage keeps uploaded images (payment proofs, candidate photos)
// on local disk. Type is decided by content sniffing, never by the
// client-supplied name or header.
package storage
