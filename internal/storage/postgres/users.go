package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/signupbot/core/logger"
	"github.com/m3rciful/signupbot/internal/onboarding"
)

const upsertUserQuery = `
INSERT INTO users (
    user_id, username, email, secret, age, experience, capital,
    payment_proof, payment_proof_kind, submission_id, created_at, updated_at
) VALUES (
    :user_id, :username, :email, :secret, :age, :experience, :capital,
    :payment_proof, :payment_proof_kind, :submission_id, :submitted_at, :submitted_at
)
ON CONFLICT (user_id) DO UPDATE SET
    username           = EXCLUDED.username,
    email              = EXCLUDED.email,
    secret             = EXCLUDED.secret,
    age                = EXCLUDED.age,
    experience         = EXCLUDED.experience,
    capital            = EXCLUDED.capital,
    payment_proof      = EXCLUDED.payment_proof,
    payment_proof_kind = EXCLUDED.payment_proof_kind,
    submission_id      = EXCLUDED.submission_id,
    updated_at         = EXCLUDED.updated_at`

const selectUserQuery = `
SELECT user_id, username, email, secret, age, experience, capital,
       payment_proof, payment_proof_kind, submission_id, updated_at AS submitted_at
FROM users
WHERE user_id = $1`

const countUsersQuery = `SELECT COUNT(*) FROM users`

// Options controls how records are written.
type Options struct {
	HashSecret bool
	Hash       HashParams
}

// UserRepository implements onboarding.RecordStore on top of a shared sqlx pool.
type UserRepository struct {
	db   *sqlx.DB
	opts Options
}

// NewUserRepository wraps db. The pool is shared; the repository never closes it.
func NewUserRepository(db *sqlx.DB, opts Options) *UserRepository {
	return &UserRepository{db: db, opts: opts}
}

type userRow struct {
	UserID           int64     `db:"user_id"`
	Username         *string   `db:"username"`
	Email            string    `db:"email"`
	Secret           string    `db:"secret"`
	Age              *int      `db:"age"`
	Experience       *string   `db:"experience"`
	Capital          *string   `db:"capital"`
	PaymentProof     string    `db:"payment_proof"`
	PaymentProofKind string    `db:"payment_proof_kind"`
	SubmissionID     string    `db:"submission_id"`
	SubmittedAt      time.Time `db:"submitted_at"`
}

func rowFromRecord(rec onboarding.Record) userRow {
	row := userRow{
		UserID:           rec.UserID,
		Email:            rec.Email,
		Secret:           rec.Secret,
		Age:              rec.Age,
		Experience:       rec.Experience,
		Capital:          rec.Capital,
		PaymentProof:     rec.PaymentProof,
		PaymentProofKind: rec.PaymentProofKind,
		SubmissionID:     rec.SubmissionID,
		SubmittedAt:      rec.SubmittedAt.UTC(),
	}
	if rec.Username != "" {
		u := rec.Username
		row.Username = &u
	}
	if row.PaymentProofKind == "" {
		row.PaymentProofKind = onboarding.ProofPhoto
	}
	if row.SubmittedAt.IsZero() {
		row.SubmittedAt = time.Now().UTC()
	}
	return row
}

func (r userRow) record() onboarding.Record {
	rec := onboarding.Record{
		UserID:           r.UserID,
		Email:            r.Email,
		Secret:           r.Secret,
		Age:              r.Age,
		Experience:       r.Experience,
		Capital:          r.Capital,
		PaymentProof:     r.PaymentProof,
		PaymentProofKind: r.PaymentProofKind,
		SubmissionID:     r.SubmissionID,
		SubmittedAt:      r.SubmittedAt,
	}
	if r.Username != nil {
		rec.Username = *r.Username
	}
	return rec
}

// UpsertUser inserts the record or replaces every stored field of an existing row
// with the same user id. created_at keeps its first value.
func (r *UserRepository) UpsertUser(ctx context.Context, rec onboarding.Record) error {
	if rec.UserID == 0 {
		return fmt.Errorf("postgres: upsert user: empty user id")
	}
	row := rowFromRecord(rec)
	if r.opts.HashSecret {
		hashed, err := HashSecret(rec.Secret, r.opts.Hash)
		if err != nil {
			return err
		}
		row.Secret = hashed
	}

	start := time.Now()
	res, err := r.db.NamedExecContext(ctx, upsertUserQuery, row)
	if err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelError, "",
			slog.String("event", "users.upsert"),
			slog.String("status", "fail"),
			slog.Int64("user_id", rec.UserID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("postgres: upsert user %d: %w", rec.UserID, err)
	}
	attrs := []slog.Attr{
		slog.String("event", "users.upsert"),
		slog.String("status", "ok"),
		slog.Int64("user_id", rec.UserID),
		slog.String("submission_id", rec.SubmissionID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if n, err := res.RowsAffected(); err == nil {
		attrs = append(attrs, slog.Int64("rows", n))
	}
	logger.DB.LogAttrs(ctx, slog.LevelDebug, "", attrs...)
	return nil
}

// GetUser loads the stored record for userID.
func (r *UserRepository) GetUser(ctx context.Context, userID int64) (onboarding.Record, bool, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, selectUserQuery, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return onboarding.Record{}, false, nil
	}
	if err != nil {
		return onboarding.Record{}, false, fmt.Errorf("postgres: get user %d: %w", userID, err)
	}
	return row.record(), true, nil
}

// CountUsers returns the number of registered users.
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, countUsersQuery); err != nil {
		return 0, fmt.Errorf("postgres: count users: %w", err)
	}
	return n, nil
}

// Ping checks that the database answers.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
