package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		DebugPort                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	TwilioConfig struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}

	Config struct {
		Env      string // DEV (default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string
		SendgridAPIKey            string
		WhatsappLinkBaseURL       string

		Server   ServerConfig
		Database DatabaseConfig
		Twilio   TwilioConfig
	}
)

func (c ServerConfig) Addr() string      { return net.JoinHostPort(c.Host, c.Port) }
func (c ServerConfig) DebugAddr() string { return net.JoinHostPort(c.Host, c.DebugPort) }

func (c DatabaseConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

// NewConfig loads the application configuration: defaults first, then an
// optional config/.env.<env> file, then environment variables (which win).
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "CollegERP")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "z#7s@w(g&yh^r2m!x4q$cpe9u+t5v_j8k6n0b%a3d1f-l*i)o.")
	conf.SetDefault("frontendBaseUrl", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("whatsappLinkBaseUrl", "https://wa.me")

	conf.SetDefault("serverHost", "0.0.0.0")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("serverDebugPort", "4000")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("shutdownTimeout", 5*time.Second)

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseName", "collegerp")
	conf.SetDefault("databaseUser", "")
	conf.SetDefault("databasePassword", "")
	conf.SetDefault("databaseAdminUser", "")
	conf.SetDefault("databaseAdminPassword", "")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseDisableTls", true)

	conf.SetDefault("twilioAccountSid", "")
	conf.SetDefault("twilioAuthToken", "")
	conf.SetDefault("twilioFromNumber", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load config/.env.<env> if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Env:      env,
		Debug:    conf.GetBool("debug"),
		TestMode: env == "TEST",
		AppName:  conf.GetString("appName"),
		Build:    conf.GetString("build"),

		SecretKey:                 conf.GetString("secretKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseUrl"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              conf.GetString("rollbarToken"),
		SendgridAPIKey:            conf.GetString("sendgridApiKey"),
		WhatsappLinkBaseURL:       conf.GetString("whatsappLinkBaseUrl"),

		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetString("serverPort"),
			DebugPort:                 conf.GetString("serverDebugPort"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			ShutdownTimeout:           conf.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Name:          conf.GetString("databaseName"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			DisableTLS:    conf.GetBool("databaseDisableTls"),
		},
		Twilio: TwilioConfig{
			AccountSID: conf.GetString("twilioAccountSid"),
			AuthToken:  conf.GetString("twilioAuthToken"),
			FromNumber: conf.GetString("twilioFromNumber"),
		},
	}
	c.DefaultFromEmail = mail.Address{Name: c.AppName, Address: conf.GetString("defaultFromEmail")}
	return c
}

// NewTestConfig returns a Config suitable for tests; no files or env are read.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Debug:                     true,
		TestMode:                  true,
		AppName:                   "CollegERP",
		Build:                     "test",
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "CollegERP", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		WhatsappLinkBaseURL:       "https://wa.me",
		Server: ServerConfig{
			Host:                      "127.0.0.1",
			Port:                      "0",
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, build %s)", c.AppName, c.Env, c.Build)
}
