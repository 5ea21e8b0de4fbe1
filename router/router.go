// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/voucher-vote/cache"
	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/handlers"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/storage"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, standings cache.Standings, store *storage.Store) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	transactionHandler := handlers.NewTransactionHandler(db, cfg, store)
	voucherHandler := handlers.NewVoucherHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg, standings)
	candidateHandler := handlers.NewCandidateHandler(db, cfg, standings, store)

	secret := cfg.SessionSecret
	public := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithSession(secret, h))
	}
	user := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireUser(secret, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(secret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Accounts
	mux.HandleFunc("POST /auth/register", public(userHandler.Register))
	mux.HandleFunc("POST /auth/login", public(userHandler.Login))
	mux.HandleFunc("GET /auth/session", public(userHandler.Session))
	mux.HandleFunc("POST /auth/logout", public(userHandler.Logout))

	// Catalog and standings (public)
	mux.HandleFunc("GET /packages", public(handlers.ListPackages))
	mux.HandleFunc("GET /candidates", public(candidateHandler.ListCandidates))
	mux.HandleFunc("GET /candidates/{id}", public(candidateHandler.GetCandidate))

	// Voter operations
	mux.HandleFunc("POST /transactions", user(transactionHandler.CreateTransaction))
	mux.HandleFunc("GET /transactions/mine", user(transactionHandler.ListMyTransactions))
	mux.HandleFunc("GET /vouchers/mine", user(voucherHandler.ListMyVouchers))
	mux.HandleFunc("POST /vouchers/check", user(voucherHandler.CheckVoucher))
	mux.HandleFunc("POST /votes", user(voteHandler.CastVote))

	// Admin: purchases
	mux.HandleFunc("GET /admin/transactions", admin(transactionHandler.AdminListTransactions))
	mux.HandleFunc("POST /admin/transactions/{id}/verify", admin(transactionHandler.VerifyTransaction))
	mux.HandleFunc("POST /admin/transactions/{id}/reject", admin(transactionHandler.RejectTransaction))
	mux.HandleFunc("GET /admin/transactions/{id}/check-voucher", admin(transactionHandler.CheckTransactionVoucher))

	// Admin: vouchers
	mux.HandleFunc("GET /admin/vouchers", admin(voucherHandler.AdminListVouchers))
	mux.HandleFunc("POST /admin/vouchers", admin(voucherHandler.IssueVoucher))
	mux.HandleFunc("DELETE /admin/vouchers/{id}", admin(voucherHandler.DeleteVoucher))

	// Admin: candidates
	mux.HandleFunc("GET /admin/candidates", admin(candidateHandler.AdminListCandidates))
	mux.HandleFunc("POST /admin/candidates", admin(candidateHandler.CreateCandidate))
	mux.HandleFunc("GET /admin/candidates/{id}", admin(candidateHandler.AdminGetCandidate))
	mux.HandleFunc("PUT /admin/candidates/{id}", admin(candidateHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /admin/candidates/{id}", admin(candidateHandler.DeleteCandidate))
	mux.HandleFunc("POST /admin/uploads", admin(candidateHandler.UploadPhoto))

	// Admin: ledger
	mux.HandleFunc("GET /admin/votes", admin(voteHandler.ListVotes))
	mux.HandleFunc("GET /admin/tally", admin(voteHandler.GetTally))
	mux.HandleFunc("POST /admin/tally/reconcile", admin(voteHandler.Reconcile))
	mux.HandleFunc("GET /admin/users", admin(userHandler.ListUsers))

	// Uploaded images
	mux.Handle("GET "+storage.URLPrefix, http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(store.Dir()))))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("voucher-vote API v1"))
	})

	return mux
}
