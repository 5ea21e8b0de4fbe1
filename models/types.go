package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// User roles
const (
	RoleVoter = "VOTER"
	RoleAdmin = "ADMIN"
)

// Transaction status constants
const (
	TransactionPending  = "PENDING"
	TransactionVerified = "VERIFIED"
	TransactionRejected = "REJECTED"
)

// Voucher status constants
const (
	VoucherUnused = "UNUSED"
	VoucherUsed   = "USED"
)

// FlexibleID accepts either a JSON number or a numeric string.
// An empty string or null decodes to zero.
type FlexibleID int64

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*id = FlexibleID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n)
	return nil
}

// Request types

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CastVoteRequest struct {
	CandidateID FlexibleID `json:"candidate_id"`
	VoucherCode string     `json:"voucher_code"`
}

type IssueVoucherRequest struct {
	TransactionID FlexibleID `json:"transaction_id"`
	UserID        FlexibleID `json:"user_id"`
}

type CheckVoucherRequest struct {
	Code string `json:"code"`
}

// Used for both create and update. Nil pointers leave the field untouched on update.
type CandidateRequest struct {
	Name        string  `json:"name"`
	PhotoURL    *string `json:"photo_url"`
	Description *string `json:"description"`
}

// Response types

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      SessionUser `json:"user"`
}

type SessionResponse struct {
	Session *Session `json:"session"`
}

type Session struct {
	User SessionUser `json:"user"`
}

type CastVoteResponse struct {
	Message    string `json:"message"`
	VoteAmount int    `json:"vote_amount"`
	VoteID     int64  `json:"vote_id"`
}

type IssueVoucherResponse struct {
	Message string  `json:"message"`
	Voucher Voucher `json:"voucher"`
}

type CheckVoucherResponse struct {
	Message string  `json:"message"`
	Voucher Voucher `json:"voucher"`
}

type TransactionActionResponse struct {
	Message     string      `json:"message"`
	Transaction Transaction `json:"transaction"`
	Voucher     *Voucher    `json:"voucher,omitempty"`
}

type CheckTransactionVoucherResponse struct {
	HasVoucher bool             `json:"has_voucher"`
	Vouchers   []VoucherSummary `json:"vouchers"`
}

type TransactionListResponse struct {
	Transactions []TransactionWithRelations `json:"transactions"`
	Total        int                        `json:"total"`
	Page         int                        `json:"page"`
	Limit        int                        `json:"limit"`
}

type CandidateListResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type VoucherListResponse struct {
	Vouchers []Voucher `json:"vouchers"`
}

type VoteListResponse struct {
	Votes []Vote `json:"votes"`
}

type UserListResponse struct {
	Users []User `json:"users"`
}

type PackageListResponse struct {
	Packages []VotePackage `json:"packages"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TallyResponse struct {
	TotalVotes int64 `json:"total_votes"`
}

type ReconcileResponse struct {
	TotalVotes int64             `json:"total_votes"`
	Corrected  []TallyCorrection `json:"corrected"`
}

// Domain types

// SessionUser is the authenticated caller attached to a request.
type SessionUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func (u SessionUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Candidate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PhotoURL    *string   `json:"photo_url"`
	Description *string   `json:"description"`
	VoteCount   int64     `json:"vote_count"`
	Percentage  float64   `json:"percentage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Transaction struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	PhoneNumber       string    `json:"phone_number"`
	Amount            int64     `json:"amount"`
	VotePackageAmount int       `json:"vote_package_amount"`
	PaymentProofURL   string    `json:"payment_proof_url"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type VoucherSummary struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	VoteAmount int    `json:"vote_amount,omitempty"`
	Status     string `json:"status,omitempty"`
}

type TransactionWithRelations struct {
	Transaction
	User     UserSummary      `json:"user"`
	Vouchers []VoucherSummary `json:"vouchers"`
}

type Voucher struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	VoteAmount    int        `json:"vote_amount"`
	UserID        int64      `json:"user_id"`
	TransactionID int64      `json:"transaction_id"`
	Status        string     `json:"status"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Vote struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CandidateID int64     `json:"candidate_id"`
	VoucherID   int64     `json:"voucher_id"`
	VoteAmount  int       `json:"vote_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type TallyCorrection struct {
	CandidateID int64 `json:"candidate_id"`
	Before      int64 `json:"before"`
	After       int64 `json:"after"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
