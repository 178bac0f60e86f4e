package models

import "time"

// We use 'db' tags for sqlx to automatically map
// the database column names (snake_case) to our Go fields (CamelCase).
// All monetary values are integer cents.

// User represents a user's authentication details.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Profile holds the public and compliance details of a campaign owner.
// TaxID and Phone must both be present before a withdrawal is allowed.
type Profile struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	DisplayName       string    `db:"display_name" json:"display_name"`
	Phone             *string   `db:"phone" json:"phone,omitempty"`
	TaxID             *string   `db:"tax_id" json:"tax_id,omitempty"`
	WidgetSecretToken string    `db:"widget_secret_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// BankAccount is the destination for withdrawals. One per user.
type BankAccount struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	HolderName    string    `db:"holder_name" json:"holder_name"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Campaign is a fundraising campaign. CapturedCents and DonorCount are
// mutated only by the payment confirmation pipeline; Status holds the
// stored status, which read paths must pass through status.Resolve.
type Campaign struct {
	ID            int64      `db:"id" json:"id"`
	OwnerID       int64      `db:"owner_id" json:"owner_id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	CoverURL      *string    `db:"cover_url" json:"cover_url,omitempty"`
	TargetCents   int64      `db:"target_cents" json:"target_cents"`
	CapturedCents int64      `db:"captured_cents" json:"captured_cents"`
	DonorCount    int64      `db:"donor_count" json:"donor_count"`
	Status        string     `db:"status" json:"status"`
	EndsAt        *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// PaymentIntent records the metadata declared when a payment is created at
// the gateway, keyed by our order id. The confirmation pipeline reads the
// donor details and the base/tip/fee split back from here because the
// gateway status API does not echo creation-time metadata.
type PaymentIntent struct {
	OrderID     string    `db:"order_id" json:"order_id"`
	CampaignID  int64     `db:"campaign_id" json:"campaign_id"`
	DonorName   string    `db:"donor_name" json:"donor_name"`
	DonorEmail  string    `db:"donor_email" json:"donor_email"`
	DonorUserID *int64    `db:"donor_user_id" json:"donor_user_id,omitempty"`
	BaseCents   int64     `db:"base_cents" json:"base_cents"`
	TipCents    int64     `db:"tip_cents" json:"tip_cents"`
	FeeCents    *int64    `db:"fee_cents" json:"fee_cents,omitempty"`
	TotalCents  int64     `db:"total_cents" json:"total_cents"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Donation is one immutable ledger entry for a captured payment.
// GatewayTxID is the idempotency key: the donations table carries a unique
// constraint on it, so at most one row can exist per gateway payment.
type Donation struct {
	ID          int64     `db:"id" json:"id"`
	CampaignID  int64     `db:"campaign_id" json:"campaign_id"`
	GatewayTxID string    `db:"gateway_tx_id" json:"gateway_tx_id"`
	OrderID     string    `db:"order_id" json:"order_id"`
	DonorName   string    `db:"donor_name" json:"donor_name"`
	DonorEmail  string    `db:"donor_email" json:"donor_email"`
	DonorUserID *int64    `db:"donor_user_id" json:"donor_user_id,omitempty"`
	BaseCents   int64     `db:"base_cents" json:"base_cents"`
	TipCents    int64     `db:"tip_cents" json:"tip_cents"`
	FeeCents    int64     `db:"fee_cents" json:"fee_cents"`
	TotalCents  int64     `db:"total_cents" json:"total_cents"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Donation statuses.
const (
	DonationCompleted = "completed"
	DonationRefunded  = "refunded"
	DonationPending   = "pending"
)

// Withdrawal is a request to move captured funds to the owner's bank
// account. Pending and completed withdrawals both count against the
// campaign's available balance.
type Withdrawal struct {
	ID          int64     `db:"id" json:"id"`
	CampaignID  int64     `db:"campaign_id" json:"campaign_id"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Withdrawal statuses. Transitions out of pending are performed by the
// back-office, not by this service.
const (
	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
	WithdrawalRejected  = "rejected"
)

// SecurityCode is a single-use verification code scoped to a user and an
// action type. Consumed codes are kept, never deleted.
type SecurityCode struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Action     string     `db:"action" json:"action"`
	Code       string     `db:"code" json:"-"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
