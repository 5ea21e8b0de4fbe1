// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/models"
)

// ListPackages handles GET /packages
func ListPackages(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.PackageListResponse{Packages: models.Packages()})
}
