// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package logger wires zap cores (JSON log file, error-only file, console)
// behind log/slog. Application code logs with slog key/value pairs.
package logger
