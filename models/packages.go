// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "github.com/dustin/go-humanize"

// VotePackage is a purchasable bundle of votes.
// Amount is in rupiah with no fractional unit.
type VotePackage struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	VoteAmount int      `json:"vote_amount"`
	Amount     int64    `json:"amount"`
	PriceLabel string   `json:"price_label"`
	Popular    bool     `json:"popular"`
	Features   []string `json:"features"`
}

var packages = []VotePackage{
	{
		ID:         "bronze",
		Title:      "Bronze Package",
		VoteAmount: 1,
		Amount:     10000,
		Features:   []string{"1 vote for your favourite candidate", "Standard support"},
	},
	{
		ID:         "silver",
		Title:      "Silver Package",
		VoteAmount: 5,
		Amount:     25000,
		Features:   []string{"5 votes for your favourite candidate", "50% off the single-vote price"},
	},
	{
		ID:         "gold",
		Title:      "Gold Package",
		VoteAmount: 10,
		Amount:     40000,
		Popular:    true,
		Features:   []string{"10 votes for your favourite candidate", "60% off the single-vote price", "Priority support"},
	},
	{
		ID:         "platinum",
		Title:      "Platinum Package",
		VoteAmount: 25,
		Amount:     90000,
		Features:   []string{"25 votes for your favourite candidate", "64% off the single-vote price", "Priority support"},
	},
}

// Packages returns the vote package catalog in display order.
func Packages() []VotePackage {
	out := make([]VotePackage, len(packages))
	for i, p := range packages {
		p.PriceLabel = FormatRupiah(p.Amount)
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// FindPackage looks up a catalog entry by ID
func FindPackage(id string) (VotePackage, bool) {
	for _, p := range Packages() {
		if p.ID == id {
			return p, true
		}
	}
	return VotePackage{}, false
}

// FormatRupiah renders an amount with dot thousands separators, e.g. "Rp 25.000"
func FormatRupiah(amount int64) string {
	return "Rp " + humanize.FormatInteger("#.###,", int(amount))
}
