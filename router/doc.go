// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the voucher-vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, standings, store)

Every route is wrapped in middleware.WithLogging. Public routes attach the
session when present, voter routes use RequireUser and admin routes use
RequireAdmin.

# Endpoints

Health:

	GET /health

Accounts:

	POST /auth/register
	POST /auth/login
	GET  /auth/session
	POST /auth/logout

Public:

	GET /packages
	GET /candidates        - Standings (?search=, ?sort=name)
	GET /candidates/{id}
	GET /uploads/...       - Stored images

Voter (session required):

	POST /transactions      - Buy a package (multipart)
	GET  /transactions/mine
	GET  /vouchers/mine
	POST /vouchers/check
	POST /votes             - Spend a voucher

Admin:

	GET    /admin/transactions
	POST   /admin/transactions/{id}/verify
	POST   /admin/transactions/{id}/reject
	GET    /admin/transactions/{id}/check-voucher
	GET    /admin/vouchers
	POST   /admin/vouchers
	DELETE /admin/vouchers/{id}
	GET    /admin/candidates
	POST   /admin/candidates
	GET    /admin/candidates/{id}
	PUT    /admin/candidates/{id}
	DELETE /admin/candidates/{id}
	POST   /admin/uploads
	GET    /admin/votes
	GET    /admin/tally
	POST   /admin/tally/reconcile
	GET    /admin/users
*/
package router
