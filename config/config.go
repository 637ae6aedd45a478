// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath      = pflag.String("config", ".", "Directory searched for config.toml")
	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers  = []string{"sqlite", "postgres"}
	validAvatarType = []string{"local", "s3"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
//
// Mail credentials are deliberately not validated here. Their absence is
// reported by the OTP engine at send time so operators see a precise
// "email configuration is missing" error instead of a boot failure.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.sender", "mail_sender_address")

	v.BindEnv("github.client_id", "github_client_id")
	v.BindEnv("github.client_secret", "github_client_secret")

	v.BindEnv("ai.api_key", "ai_api_key")
	v.BindEnv("ai.model", "ai_model")

	v.BindEnv("security.rate_limit", "security_rate_limit")
	v.BindEnv("security.otp_rate_limit", "security_otp_rate_limit")

	v.BindEnv("avatars.type", "avatars_type")
	v.BindEnv("avatars.dir", "avatars_dir")

	v.BindEnv("aws.access_key_id", "aws_access_key_id")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.public_url", "aws_public_url")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", "http://localhost:19006")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)

	v.SetDefault("ai.model", "gpt-4o-mini")

	v.SetDefault("security.rate_limit", 20)
	v.SetDefault("security.otp_rate_limit", 1)

	v.SetDefault("avatars.type", "local")
	v.SetDefault("avatars.dir", "uploads/avatars")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	switch v.GetString("avatars.type") {
	case "s3":
		{
			if v.GetString("aws.access_key_id") == "" {
				return errors.New("access key id can't be empty")
			}
			if v.GetString("aws.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("aws.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
		}
	case "local":
		if v.GetString("avatars.dir") == "" {
			return errors.New("avatar directory can't be empty")
		}
	default:
		return fmt.Errorf("invalid avatar storage type provided, must be one of %v", validAvatarType)
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("rate limit must be bigger than 0")
	}

	return nil
}
