package core

import (
	"fmt"
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
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		WorkDir      string
		RollbarToken string

		Institution      string
		SystemName       string
		FrontendBaseURL  string
		SendgridApiKey   string
		defaultFromEmail string

		Server   serverConfig
		Database databaseConfig
		Blob     blobConfig
		Auth     authConfig
		Deadline deadlineConfig
		Report   reportConfig
	}

	serverConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		MaxUploadSize             int64
	}

	databaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
	}

	blobConfig struct {
		Driver    string // fs | minio
		Dir       string
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}

	authConfig struct {
		AdminName         string
		AdminEmail        string
		AdminPassword     string
		TemporaryPassword string
	}

	deadlineConfig struct {
		Default           string // YYYY-MM-DDTHH:MM
		Timezone          string
		GateResubmissions bool
	}

	reportConfig struct {
		LogoPath string
		TitleMax int
	}
)

func (c databaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// Location returns the timezone deadlines are expressed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Deadline.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the current ENV, e.g. DEV_DATABASE_ENGINE.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	setDefaults(v, env)
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),

		Institution:      v.GetString("institution"),
		SystemName:       v.GetString("systemName"),
		FrontendBaseURL:  v.GetString("frontendBaseUrl"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),

		Server: serverConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			MaxUploadSize:             v.GetInt64("server.maxUploadSize"),
		},
		Database: databaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Blob: blobConfig{
			Driver:    v.GetString("blob.driver"),
			Dir:       v.GetString("blob.dir"),
			Endpoint:  v.GetString("blob.endpoint"),
			AccessKey: v.GetString("blob.accessKey"),
			SecretKey: v.GetString("blob.secretKey"),
			Bucket:    v.GetString("blob.bucket"),
			UseSSL:    v.GetBool("blob.useSSL"),
		},
		Auth: authConfig{
			AdminName:         v.GetString("auth.adminName"),
			AdminEmail:        v.GetString("auth.adminEmail"),
			AdminPassword:     v.GetString("auth.adminPassword"),
			TemporaryPassword: v.GetString("auth.temporaryPassword"),
		},
		Deadline: deadlineConfig{
			Default:           v.GetString("deadline.default"),
			Timezone:          v.GetString("deadline.timezone"),
			GateResubmissions: v.GetBool("deadline.gateResubmissions"),
		},
		Report: reportConfig{
			LogoPath: v.GetString("report.logoPath"),
			TitleMax: v.GetInt("report.titleMax"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "GCTU Project Portal")
	v.SetDefault("secretKey", "dev-secret-key")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("institution", "GHANA COMMUNICATION TECHNOLOGY UNIVERSITY")
	v.SetDefault("systemName", "PROJECT SUBMISSION SYSTEM")
	v.SetDefault("frontendBaseUrl", "http://localhost:10000")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "GCTU Project Portal <noreply@localhost>")

	v.SetDefault("server.host", "0.0.0.0:10000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.maxUploadSize", int64(32<<20))

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gctu_portal")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "database.db")

	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.dir", filepath.Join("static", "uploads"))
	v.SetDefault("blob.endpoint", "localhost:9000")
	v.SetDefault("blob.accessKey", "")
	v.SetDefault("blob.secretKey", "")
	v.SetDefault("blob.bucket", "gctu-uploads")
	v.SetDefault("blob.useSSL", false)

	v.SetDefault("auth.adminName", "Benjamin Sintim")
	v.SetDefault("auth.adminEmail", "StArbOi@sintimdev.org")
	v.SetDefault("auth.adminPassword", "baba1234")
	v.SetDefault("auth.temporaryPassword", "student123")

	v.SetDefault("deadline.default", "2026-02-12T23:59")
	v.SetDefault("deadline.timezone", "UTC")
	v.SetDefault("deadline.gateResubmissions", false)

	v.SetDefault("report.logoPath", filepath.Join("static", "images", "gctu_logo.png"))
	v.SetDefault("report.titleMax", 40)
}

// String is used when logging the configuration at start up; secrets are masked.
func (c *Config) String() string {
	return fmt.Sprintf("env=%s build=%s debug=%t db=%s blob=%s host=%s",
		c.Env, c.Build, c.Debug, c.Database.Engine, c.Blob.Driver, c.Server.Host)
}
