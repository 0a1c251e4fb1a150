package onboarding

import (
	"context"
	"time"
)

// Proof kinds stored alongside the payment screenshot reference.
const (
	ProofPhoto    = "photo"
	ProofDocument = "document"
)

// Record is the fully collected submission written to the users table.
type Record struct {
	UserID           int64
	Username         string
	Email            string
	Secret           string
	Age              *int
	Experience       *string
	Capital          *string
	PaymentProof     string
	PaymentProofKind string
	SubmissionID     string
	SubmittedAt      time.Time
}

// RecordStore persists completed submissions. UpsertUser must insert or replace the
// row for rec.UserID in one atomic operation.
type RecordStore interface {
	UpsertUser(ctx context.Context, rec Record) error
}
