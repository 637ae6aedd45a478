// Package service contains background jobs that run next to the API
package service

import (
	"time"

	"mindmate/mood-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OtpCleanup periodically deletes one-time codes that can never validate
// again. Consumed and expired rows are kept around for a grace period for
// auditing, then pruned.
func OtpCleanup(t time.Duration, retain time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("OTP cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			cutoff := time.Now().Add(-retain)

			r := db.
				Where("expires_at < ? AND (used = ? OR expires_at < ?)", time.Now(), true, cutoff).
				Delete(&model.OneTimeCode{})
			if r.Error != nil {
				zap.L().Error("Failed to cleanup OTP rows", zap.Error(r.Error))
				continue
			}

			if r.RowsAffected > 0 {
				zap.L().Debug("Cleaned up dead OTP rows", zap.Int64("rows", r.RowsAffected))
			}
		}
	}()
}
