// Package auth coordinates the account lifecycle: two-phase signup,
// login, password reset and the GitHub OAuth path. All account mutation
// gated on OTP proof happens here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mindmate/mood-api/internal/model"
	"mindmate/mood-api/internal/oauth"
	"mindmate/mood-api/internal/otp"
	"mindmate/mood-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoVerifiedEmail means the OAuth provider returned no usable
	// address, so there is nothing to key the account on.
	ErrNoVerifiedEmail = errors.New("no verified email on the GitHub account")
)

type Service struct {
	db     *gorm.DB
	engine *otp.Engine
	argon  *security.ArgonHash
	github oauth.Bridge

	jwtSecret []byte
}

func NewService(db *gorm.DB, engine *otp.Engine, argon *security.ArgonHash, github oauth.Bridge, jwtSecret []byte) *Service {
	return &Service{
		db:        db,
		engine:    engine,
		argon:     argon,
		github:    github,
		jwtSecret: jwtSecret,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *Service) emailTaken(ctx context.Context, email string) (bool, error) {
	var found bool

	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Select("count(*) > 0").
		Where("email = ?", email).
		Find(&found)
	if r.Error != nil {
		return false, fmt.Errorf("failed to check if user is registered, %w", r.Error)
	}

	return found, nil
}

// RequestSignup starts phase one of the two-phase signup: a code goes out
// but no account row is written. The account only comes into existence in
// CompleteSignup, once email ownership is proven.
func (s *Service) RequestSignup(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return err
	}

	if taken {
		return ErrUserExists
	}

	return s.engine.Issue(ctx, email, otp.PurposeSignup)
}

// CompleteSignup consumes the signup code, creates the verified account
// and returns a session token for it.
func (s *Service) CompleteSignup(ctx context.Context, email, password, name, code string) (string, *model.User, error) {
	email = normalizeEmail(email)

	if err := s.engine.Verify(ctx, email, code, otp.PurposeSignup); err != nil {
		return "", nil, err
	}

	// The account could have been created between request and complete,
	// reject instead of overwriting it
	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if taken {
		return "", nil, ErrUserExists
	}

	hash, err := s.argon.GenerateFromPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	user := &model.User{
		ID:           userID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Provider:     model.ProviderLocal,
		Verified:     true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return "", nil, fmt.Errorf("failed to create user, %w", err)
	}

	token, err := MakeToken(user.ID, s.jwtSecret, TokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token, %w", err)
	}

	return token, user, nil
}

// Login authenticates a local account. Unknown email and wrong password
// produce the same error so accounts can't be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = normalizeEmail(email)

	var user model.User

	err := s.db.WithContext(ctx).
		Where("email = ? AND provider = ?", email, model.ProviderLocal).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}

		return "", nil, fmt.Errorf("failed to look up user, %w", err)
	}

	ok, err := s.argon.VerifyPasswd(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := MakeToken(user.ID, s.jwtSecret, TokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token, %w", err)
	}

	return token, &user, nil
}

// RequestPasswordReset mails a reset code to an existing local account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	var user model.User

	err := s.db.WithContext(ctx).
		Where("email = ? AND provider = ?", email, model.ProviderLocal).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("failed to look up user, %w", err)
	}

	return s.engine.Issue(ctx, email, otp.PurposeReset)
}

// ResetPassword consumes a reset code and overwrites the password hash.
// No session is issued, the user logs in again with the new password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)

	if err := s.engine.Verify(ctx, email, code, otp.PurposeReset); err != nil {
		return err
	}

	var user model.User

	err := s.db.WithContext(ctx).
		Where("email = ? AND provider = ?", email, model.ProviderLocal).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("failed to look up user, %w", err)
	}

	hash, err := s.argon.GenerateFromPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("password_hash", hash).
		Error
	if err != nil {
		return fmt.Errorf("failed to update password, %w", err)
	}

	return nil
}

// UpdatePassword changes the password of an authenticated local account
// after re-checking the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID, current, newPassword string) error {
	var user model.User

	err := s.db.WithContext(ctx).
		Where("id = ? AND provider = ?", userID, model.ProviderLocal).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("failed to look up user, %w", err)
	}

	ok, err := s.argon.VerifyPasswd(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.argon.GenerateFromPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("password_hash", hash).
		Error
	if err != nil {
		return fmt.Errorf("failed to update password, %w", err)
	}

	return nil
}

// GithubLogin exchanges the authorization code, fetches the profile and
// upserts the matching account. OAuth identity proof substitutes for OTP
// proof, so the account is created verified and no code is ever issued.
func (s *Service) GithubLogin(ctx context.Context, code, codeVerifier string) (string, *model.User, error) {
	accessToken, err := s.github.Exchange(ctx, code, codeVerifier)
	if err != nil {
		return "", nil, err
	}

	profile, err := s.github.FetchProfile(ctx, accessToken)
	if err != nil {
		return "", nil, err
	}

	var user model.User

	err = s.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", model.ProviderGithub, profile.ID).
		First(&user).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("failed to look up user, %w", err)
		}

		// GitHub omits the email for users who keep every address
		// private or unverified. An empty email can't go into the
		// unique not-null column, reject before the store does.
		if profile.Email == "" {
			return "", nil, ErrNoVerifiedEmail
		}

		taken, err := s.emailTaken(ctx, normalizeEmail(profile.Email))
		if err != nil {
			return "", nil, err
		}

		if taken {
			return "", nil, ErrUserExists
		}

		userID, err := gonanoid.Generate(idCharset, 16)
		if err != nil {
			return "", nil, fmt.Errorf("failed to generate user ID, %w", err)
		}

		user = model.User{
			ID:         userID,
			Email:      normalizeEmail(profile.Email),
			Name:       profile.Username,
			Avatar:     profile.Avatar,
			Provider:   model.ProviderGithub,
			ProviderID: profile.ID,
			Verified:   true,
		}

		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return "", nil, fmt.Errorf("failed to create user, %w", err)
		}

		zap.L().Info("Created user from GitHub login", zap.String("userID", user.ID))
	}

	token, err := MakeToken(user.ID, s.jwtSecret, TokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token, %w", err)
	}

	return token, &user, nil
}
