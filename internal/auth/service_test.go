package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"mindmate/mood-api/internal/model"
	"mindmate/mood-api/internal/oauth"
	"mindmate/mood-api/internal/otp"
	"mindmate/mood-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	dbSeq      int64
	testSecret = []byte("test-jwt-secret")
	codeRe     = regexp.MustCompile(`\d{6}`)
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:authtest%d?mode=memory&cache=shared&_busy_timeout=5000",
		atomic.AddInt64(&dbSeq, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.OneTimeCode{}))

	return db
}

type fakeMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (f *fakeMailer) Configured() error { return nil }

func (f *fakeMailer) Send(_ context.Context, _, _, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.bodies)

	code := codeRe.FindString(f.bodies[len(f.bodies)-1])
	require.NotEmpty(t, code)

	return code
}

type fakeBridge struct {
	profile     oauth.Profile
	exchangeErr error
	exchanges   int
}

func (f *fakeBridge) Configured() error { return nil }

func (f *fakeBridge) Exchange(_ context.Context, code, _ string) (string, error) {
	f.exchanges++
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "gho_" + code, nil
}

func (f *fakeBridge) FetchProfile(_ context.Context, _ string) (*oauth.Profile, error) {
	p := f.profile
	return &p, nil
}

func newTestService(t *testing.T) (*Service, *fakeMailer, *fakeBridge, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	m := &fakeMailer{}
	b := &fakeBridge{}
	engine := otp.NewEngine(db, m)

	return NewService(db, engine, security.New(), b, testSecret), m, b, db
}

func TestSignupDefersAccountCreation(t *testing.T) {
	s, m, _, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "a@x.com"))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Where("email = ?", "a@x.com").Count(&count).Error)
	assert.Zero(t, count, "no account may exist before OTP verification")

	_, _, err := s.CompleteSignup(ctx, "a@x.com", "pw123456", "Uzma", "000000x")
	assert.ErrorIs(t, err, otp.ErrInvalidCode)

	token, user, err := s.CompleteSignup(ctx, "a@x.com", "pw123456", "Uzma", m.lastCode(t))
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, model.ProviderLocal, user.Provider)
	assert.True(t, user.Verified)

	userID, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestRequestSignupRejectsExistingUser(t *testing.T) {
	s, m, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "a@x.com"))
	_, _, err := s.CompleteSignup(ctx, "a@x.com", "pw123456", "Uzma", m.lastCode(t))
	require.NoError(t, err)

	assert.ErrorIs(t, s.RequestSignup(ctx, "a@x.com"), ErrUserExists)
}

func TestCompleteSignupRechecksConflict(t *testing.T) {
	s, m, _, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "a@x.com"))
	code := m.lastCode(t)

	// Simulate the account appearing between request and complete
	require.NoError(t, db.Create(&model.User{
		ID:       "someoneelse12345",
		Email:    "a@x.com",
		Provider: model.ProviderLocal,
		Verified: true,
	}).Error)

	_, _, err := s.CompleteSignup(ctx, "a@x.com", "pw123456", "Uzma", code)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginFullFlow(t *testing.T) {
	s, m, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "u@test.com"))
	_, _, err := s.CompleteSignup(ctx, "u@test.com", "pw123456", "Uzma", m.lastCode(t))
	require.NoError(t, err)

	token, user, err := s.Login(ctx, "u@test.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "u@test.com", user.Email)
	assert.NotEmpty(t, token)
}

func TestLoginUniformInvalidCredentials(t *testing.T) {
	s, m, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "a@x.com"))
	_, _, err := s.CompleteSignup(ctx, "a@x.com", "pw123456", "", m.lastCode(t))
	require.NoError(t, err)

	// Unknown account and wrong password are indistinguishable
	_, _, err = s.Login(ctx, "nobody@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordResetFlow(t *testing.T) {
	s, m, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "u@test.com"))
	_, _, err := s.CompleteSignup(ctx, "u@test.com", "pw123456", "Uzma", m.lastCode(t))
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(ctx, "u@test.com"))
	code := m.lastCode(t)

	assert.ErrorIs(t, s.ResetPassword(ctx, "u@test.com", "999999x", "newpw1234"), otp.ErrInvalidCode)
	require.NoError(t, s.ResetPassword(ctx, "u@test.com", code, "newpw1234"))

	_, _, err = s.Login(ctx, "u@test.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "u@test.com", "newpw1234")
	assert.NoError(t, err)
}

func TestPasswordResetUnknownAccount(t *testing.T) {
	s, _, _, _ := newTestService(t)

	assert.ErrorIs(t, s.RequestPasswordReset(context.Background(), "nobody@x.com"), ErrUserNotFound)
}

func TestResetCodeRejectedForSignup(t *testing.T) {
	s, m, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "u@test.com"))
	_, _, err := s.CompleteSignup(ctx, "u@test.com", "pw123456", "Uzma", m.lastCode(t))
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(ctx, "u@test.com"))
	resetCode := m.lastCode(t)

	// A reset code must not complete a signup for another address
	_, _, err = s.CompleteSignup(ctx, "other@x.com", "pw123456", "", resetCode)
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
}

func TestUpdatePassword(t *testing.T) {
	s, m, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "u@test.com"))
	_, user, err := s.CompleteSignup(ctx, "u@test.com", "pw123456", "Uzma", m.lastCode(t))
	require.NoError(t, err)

	assert.ErrorIs(t, s.UpdatePassword(ctx, user.ID, "wrong-password", "newpw1234"), ErrInvalidCredentials)
	require.NoError(t, s.UpdatePassword(ctx, user.ID, "pw123456", "newpw1234"))

	_, _, err = s.Login(ctx, "u@test.com", "newpw1234")
	assert.NoError(t, err)
}

func TestGithubLoginUpsert(t *testing.T) {
	s, _, b, db := newTestService(t)
	ctx := context.Background()

	b.profile = oauth.Profile{
		ID:       "12345",
		Username: "octocat",
		Avatar:   "https://example.com/a.png",
		Email:    "Octo@Github.com",
	}

	token, user, err := s.GithubLogin(ctx, "authcode", "")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.NotEmpty(t, token)
	assert.Equal(t, model.ProviderGithub, user.Provider)
	assert.Equal(t, "12345", user.ProviderID)
	assert.Equal(t, "octo@github.com", user.Email)
	assert.True(t, user.Verified, "OAuth accounts are verified without any OTP")
	assert.Empty(t, user.PasswordHash)

	// Second login finds the same account instead of creating another
	_, again, err := s.GithubLogin(ctx, "authcode2", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGithubLoginRequiresEmail(t *testing.T) {
	s, _, b, db := newTestService(t)
	ctx := context.Background()

	// All addresses private or unverified, the profile comes back blank
	b.profile = oauth.Profile{ID: "12345", Username: "octocat"}

	_, _, err := s.GithubLogin(ctx, "authcode", "")
	assert.ErrorIs(t, err, ErrNoVerifiedEmail)

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGithubLoginRejectsTakenEmail(t *testing.T) {
	s, m, b, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RequestSignup(ctx, "u@test.com"))
	_, _, err := s.CompleteSignup(ctx, "u@test.com", "pw123456", "Uzma", m.lastCode(t))
	require.NoError(t, err)

	b.profile = oauth.Profile{ID: "12345", Username: "octocat", Email: "u@test.com"}

	_, _, err = s.GithubLogin(ctx, "authcode", "")
	assert.ErrorIs(t, err, ErrUserExists)

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGithubLoginExchangeFailure(t *testing.T) {
	s, _, b, _ := newTestService(t)
	b.exchangeErr = oauth.ErrExchange

	_, _, err := s.GithubLogin(context.Background(), "bad", "")
	assert.True(t, errors.Is(err, oauth.ErrExchange))
}
