// Package api contains all endpoints available
package api

import (
	"fmt"
	"strings"
	"time"

	"mindmate/mood-api/db"
	"mindmate/mood-api/internal"
	"mindmate/mood-api/internal/auth"
	"mindmate/mood-api/internal/chat"
	"mindmate/mood-api/internal/mail"
	"mindmate/mood-api/internal/oauth"
	"mindmate/mood-api/internal/otp"
	"mindmate/mood-api/internal/service"
	"mindmate/mood-api/internal/storage"
	"mindmate/mood-api/middleware"
	"mindmate/mood-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	Deps   *internal.Deps
	Router *gin.Engine
}

func NewRouter() (*API, error) {
	d := &internal.Deps{}

	gdb, err := db.New()
	if err != nil {
		return nil, err
	}
	d.DB = gdb

	makeLogger()

	d.Argon = security.New()

	mailer := mail.NewSMTP(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		viper.GetString("mail.username"),
		viper.GetString("mail.password"),
		viper.GetString("mail.sender"),
	)

	github := oauth.NewGithub(
		viper.GetString("github.client_id"),
		viper.GetString("github.client_secret"),
	)

	d.OTP = otp.NewEngine(gdb, mailer)
	d.Auth = auth.NewService(gdb, d.OTP, d.Argon, github, []byte(viper.GetString("jwt.secret")))
	d.Chat = chat.NewOpenAI(viper.GetString("ai.api_key"), viper.GetString("ai.model"))

	if viper.GetString("avatars.type") == "s3" {
		d.Avatars, err = storage.NewS3()
	} else {
		d.Avatars, err = storage.NewLocal(viper.GetString("avatars.dir"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize avatar storage, %w", err)
	}

	a := NewWithDeps(d)

	// Prune dead OTP rows daily, keep them a week for auditing
	service.OtpCleanup(time.Hour*24, time.Hour*24*7, gdb)

	return a, nil
}

// NewWithDeps wires the routes around an existing dependency set. Tests
// use it to mount the router on doubles.
func NewWithDeps(d *internal.Deps) *API {
	a := &API{Deps: d}

	router := gin.New()
	a.Router = router

	origins := strings.Split(viper.GetString("host.cors"), ",")

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	rateLimit := viper.GetInt("security.rate_limit")
	otpRateLimit := viper.GetInt("security.otp_rate_limit")

	jwt := middleware.NewJWTMiddleware(d.DB)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})
	otpLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: otpRateLimit,
		Burst:             otpRateLimit * 2,
	})

	if viper.GetString("avatars.type") == "local" {
		router.Static("/uploads/avatars", viper.GetString("avatars.dir"))
	}

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, a.Validate)
	}

	au := m.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/auth/signup		-> Starts a signup, sends an OTP
		au.POST("/signup", a.Signup)

		// POST /api/auth/complete-signup	-> Verifies the OTP and creates the account
		au.POST("/complete-signup", a.CompleteSignup)

		// POST /api/auth/login			-> Logs in a user and returns a JWT token
		au.POST("/login", a.Login)

		// POST /api/auth/github		-> Logs in via a GitHub authorization code
		au.POST("/github", a.GithubLogin)

		// POST /api/auth/request-password-reset -> Sends a reset OTP
		au.POST("/request-password-reset", a.RequestPasswordReset)

		// POST /api/auth/reset-password	-> Verifies the reset OTP and sets a new password
		au.POST("/reset-password", a.ResetPassword)

		// PUT /api/auth/update-password	-> Changes the password of a logged in user
		au.PUT("/update-password", jwt, a.UpdatePassword)

		// POST /api/auth/otp/send		-> Issues a fresh OTP
		au.POST("/otp/send", otpLimiter, a.OtpSend)

		// POST /api/auth/otp/verify		-> Verifies an OTP without side effects
		au.POST("/otp/verify", a.OtpVerify)
	}

	mo := m.Group("/moods", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/moods		-> Adds a mood entry
		mo.POST("", a.MoodAdd)

		// GET /api/moods		-> Returns the caller's mood history
		mo.GET("", a.MoodFetch)

		// GET /api/moods/analytics	-> Returns aggregated mood stats
		mo.GET("/analytics", cachePerUser(15), a.MoodAnalytics)
	}

	u := m.Group("/users", jwt)
	{
		// POST /api/users/upload-avatar -> Uploads a profile picture
		u.POST("/upload-avatar", middleware.BodySizeLimiter(5<<20), a.UploadAvatar)
	}

	ai := m.Group("/ai", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/ai/chat		-> Talks to the support assistant
		ai.POST("/chat", a.Chat)
	}

	return a
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

// cachePerUser keys cached responses on the caller, not just the URI, so
// one user's analytics never leak to another
func cachePerUser(sec int) gin.HandlerFunc {
	return cache.Cache(store, time.Second*time.Duration(sec),
		cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
			return true, cache.Strategy{
				CacheKey: c.GetString("userID") + ":" + c.Request.RequestURI,
			}
		}),
	)
}
