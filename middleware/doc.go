// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets an id (incoming X-Request-ID or a fresh UUID) that is
echoed back and logged with method, path, status and duration_ms.

# Sessions

Session tokens are read from "Authorization: Bearer <token>" or the
session cookie:

	middleware.WithSession(secret, h)  // attaches the caller when present
	middleware.RequireUser(secret, h)  // 401 when anonymous
	middleware.RequireAdmin(secret, h) // 401 anonymous, 403 non-admin

Handlers read the caller with CurrentUser:

	user, ok := middleware.CurrentUser(r)

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
