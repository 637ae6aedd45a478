package internal

import (
	"mindmate/mood-api/internal/auth"
	"mindmate/mood-api/internal/chat"
	"mindmate/mood-api/internal/otp"
	"mindmate/mood-api/internal/storage"
	"mindmate/mood-api/pkg/security"

	"gorm.io/gorm"
)

// Deps carries the constructed dependencies handlers work with. Everything
// that talks to the network sits behind an interface so tests can swap in
// doubles.
type Deps struct {
	DB      *gorm.DB
	Argon   *security.ArgonHash
	OTP     *otp.Engine
	Auth    *auth.Service
	Chat    chat.Client
	Avatars storage.Store
}
