// Package otp implements the one-time-code issuance and verification
// engine that gates signup, password reset and login flows.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"mindmate/mood-api/internal/mail"
	"mindmate/mood-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Purposes partition codes by the workflow they authorize. A code issued
// for one purpose never validates for another.
const (
	PurposeSignup = "signup"
	PurposeReset  = "reset"
	PurposeLogin  = "login"
)

const (
	codeDigits = 6
	codeTTL    = 10 * time.Minute

	sendTimeout = 15 * time.Second
)

var (
	// ErrInvalidCode covers wrong, unknown and already-used codes alike so
	// callers can't tell which one it was.
	ErrInvalidCode = errors.New("invalid OTP")

	ErrExpired      = errors.New("OTP expired")
	ErrEmailMissing = errors.New("email is required")
	ErrBadPurpose   = errors.New("unknown OTP purpose")
)

// Engine owns all reads and writes of one-time-code rows. No other code
// path touches them.
type Engine struct {
	db     *gorm.DB
	mailer mail.Mailer

	// now is swappable so tests can move time forward
	now func() time.Time
}

func NewEngine(db *gorm.DB, mailer mail.Mailer) *Engine {
	return &Engine{
		db:     db,
		mailer: mailer,
		now:    time.Now,
	}
}

func validPurpose(p string) bool {
	return p == PurposeSignup || p == PurposeReset || p == PurposeLogin
}

// generateCode returns a uniformly random zero-padded code over the full
// [0, 10^codeDigits) range, leading zeroes included.
func generateCode() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(codeDigits), nil)

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

// Issue invalidates every outstanding code for (email, purpose), persists a
// fresh one valid for ten minutes and mails it out. The code itself is
// never returned or logged.
//
// The row is written before the mail goes out on purpose: an undelivered
// code is recoverable by reissuing, a delivered but unpersisted one is not.
func (e *Engine) Issue(ctx context.Context, email, purpose string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrEmailMissing
	}

	if !validPurpose(purpose) {
		return ErrBadPurpose
	}

	// Don't persist a code that can never be delivered
	if err := e.mailer.Configured(); err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code, %w", err)
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.OneTimeCode{}).
			Where("email = ? AND purpose = ? AND used = ?", email, purpose, false).
			Update("used", true).
			Error; err != nil {
			return err
		}

		return tx.Create(&model.OneTimeCode{
			Email:     email,
			Code:      code,
			Purpose:   purpose,
			ExpiresAt: e.now().Add(codeTTL),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store code, %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err = e.mailer.Send(sendCtx, email, "Your OTP Code",
		fmt.Sprintf("Your OTP code is: %s. It will expire in 10 minutes.", code))
	if err != nil {
		zap.L().Error("Failed to send OTP mail", zap.String("email", email), zap.String("purpose", purpose), zap.Error(err))
		return err
	}

	return nil
}

// Verify consumes a matching unconsumed code. The consume is a single
// conditional update, so two concurrent calls with the same code admit at
// most one winner. An expired code is consumed too, a second submission of
// it fails with ErrInvalidCode instead of ErrExpired.
func (e *Engine) Verify(ctx context.Context, email, code, purpose string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return ErrInvalidCode
	}

	if !validPurpose(purpose) {
		return ErrBadPurpose
	}

	var record model.OneTimeCode

	err := e.db.WithContext(ctx).
		Where("email = ? AND code = ? AND purpose = ? AND used = ?", email, code, purpose, false).
		First(&record).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}

		return fmt.Errorf("failed to look up code, %w", err)
	}

	r := e.db.WithContext(ctx).
		Model(&model.OneTimeCode{}).
		Where("id = ? AND used = ?", record.ID, false).
		Update("used", true)
	if r.Error != nil {
		return fmt.Errorf("failed to consume code, %w", r.Error)
	}

	// Someone else consumed it between the lookup and the update
	if r.RowsAffected == 0 {
		return ErrInvalidCode
	}

	if e.now().After(record.ExpiresAt) {
		return ErrExpired
	}

	return nil
}
