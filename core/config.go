package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		SecretKey        string
		FrontendBaseURL  string

		PasswordResetTimeoutDelta time.Duration

		DefaultFromEmail mail.Address
		OwnerEmail       string
		SendgridApiKey   string
		RollbarToken     string

		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		License   LicenseConfig
		LMS       LMSConfig
		Marketing MarketingConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// RedisConfig locates the options store. An empty Addr keeps options in the database.
	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	LicenseConfig struct {
		Tier string // free | premium
		Key  string
	}

	LMSConfig struct {
		Timeout   time.Duration
		LearnDash LearnDashConfig
		TutorLMS  TutorLMSConfig
	}

	LearnDashConfig struct {
		BaseURL     string
		Username    string
		AppPassword string
	}

	TutorLMSConfig struct {
		BaseURL   string
		APIKey    string
		APISecret string
	}

	MarketingConfig struct {
		Timeout   time.Duration
		Mailchimp MailchimpConfig
		SendFox   SendFoxConfig
		Vbout     VboutConfig
	}

	MailchimpConfig struct {
		APIKey string
		ListID string
	}

	SendFoxConfig struct {
		Token  string
		ListID string
	}

	VboutConfig struct {
		APIKey string
		ListID string
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig reads the configuration from the environment, optionally loading `config/.env.<env>` first.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	loadDotEnv(env)

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "SkyLearn Flashcards")
	v.SetDefault("secretKey", "x9#q)1mv-t!3b8wz%k2ga$n7(p0fy&e^4cd5hu+j6l=rs")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("defaultFromName", "SkyLearn Flashcards")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("ownerEmail", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "flashcards")
	v.SetDefault("dbUser", "flashcards")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("redisAddr", "")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)

	v.SetDefault("licenseTier", "free")
	v.SetDefault("licenseKey", "")

	v.SetDefault("lmsTimeout", 20*time.Second)
	v.SetDefault("learndashBaseURL", "")
	v.SetDefault("learndashUsername", "")
	v.SetDefault("learndashAppPassword", "")
	v.SetDefault("tutorlmsBaseURL", "")
	v.SetDefault("tutorlmsAPIKey", "")
	v.SetDefault("tutorlmsAPISecret", "")

	v.SetDefault("marketingTimeout", 15*time.Second)
	v.SetDefault("mailchimpAPIKey", "")
	v.SetDefault("mailchimpListID", "")
	v.SetDefault("sendfoxToken", "")
	v.SetDefault("sendfoxListID", "")
	v.SetDefault("vboutAPIKey", "")
	v.SetDefault("vboutListID", "")

	v.SetEnvPrefix(env)
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		DefaultFromEmail: mail.Address{Name: v.GetString("defaultFromName"), Address: v.GetString("defaultFromEmail")},
		OwnerEmail:       v.GetString("ownerEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redisAddr"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
		},
		License: LicenseConfig{
			Tier: CleanString(v.GetString("licenseTier"), true /* lower */),
			Key:  v.GetString("licenseKey"),
		},
		LMS: LMSConfig{
			Timeout: v.GetDuration("lmsTimeout"),
			LearnDash: LearnDashConfig{
				BaseURL:     v.GetString("learndashBaseURL"),
				Username:    v.GetString("learndashUsername"),
				AppPassword: v.GetString("learndashAppPassword"),
			},
			TutorLMS: TutorLMSConfig{
				BaseURL:   v.GetString("tutorlmsBaseURL"),
				APIKey:    v.GetString("tutorlmsAPIKey"),
				APISecret: v.GetString("tutorlmsAPISecret"),
			},
		},
		Marketing: MarketingConfig{
			Timeout: v.GetDuration("marketingTimeout"),
			Mailchimp: MailchimpConfig{
				APIKey: v.GetString("mailchimpAPIKey"),
				ListID: v.GetString("mailchimpListID"),
			},
			SendFox: SendFoxConfig{
				Token:  v.GetString("sendfoxToken"),
				ListID: v.GetString("sendfoxListID"),
			},
			Vbout: VboutConfig{
				APIKey: v.GetString("vboutAPIKey"),
				ListID: v.GetString("vboutListID"),
			},
		},
	}
}

// loadDotEnv loads `config/.env.<env>` if it exists (ignored if it does not).
func loadDotEnv(env string) {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
}
