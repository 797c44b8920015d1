package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
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
		RollbarToken string
		WorkDir      string

		Server   ServerConfig
		Database DatabaseConfig
		Files    FilesConfig
	}

	ServerConfig struct {
		Host                   string
		Address                string
		DebugHost              string
		ShutdownTimeout        time.Duration
		SessionCookieName      string
		SessionExpirationDelta time.Duration
		SecureCookie           bool
		AllowedOrigins         []string
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

	FilesConfig struct {
		// OutputDir is where generated documents (credentials PDFs) are written to and served from.
		OutputDir string
	}
)

func (dc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dc.Host, dc.Port)
}

// NewConfig loads the configuration from the environment (and `config/.env.<env>` if it exists).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Gradebook")
	conf.SetDefault("secretKey", "x9f2-kq)ub7$+41=mv&wpl3(t!s)#*d8(#qa5^$rnfe6zcb")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("serverDebugHost", ":4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("sessionCookieName", "gradebook_session")
	conf.SetDefault("sessionExpirationDelta", 12*time.Hour)
	conf.SetDefault("secureCookie", false)
	conf.SetDefault("allowedOrigins", []string{"http://localhost:3000"})
	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbName", "gradebook")
	conf.SetDefault("dbUser", "gradebook")
	conf.SetDefault("dbPassword", "gradebook")
	conf.SetDefault("dbAdminUser", "postgres")
	conf.SetDefault("dbAdminPassword", "postgres")
	conf.SetDefault("dbDisableTLS", true)
	conf.SetDefault("filesOutputDir", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	outputDir := conf.GetString("filesOutputDir")
	if outputDir == "" {
		outputDir = filepath.Join(wd, "generated", "pdfs")
	}

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:                   conf.GetString("serverHost"),
			Address:                conf.GetString("serverAddress"),
			DebugHost:              conf.GetString("serverDebugHost"),
			ShutdownTimeout:        conf.GetDuration("serverShutdownTimeout"),
			SessionCookieName:      conf.GetString("sessionCookieName"),
			SessionExpirationDelta: conf.GetDuration("sessionExpirationDelta"),
			SecureCookie:           conf.GetBool("secureCookie"),
			AllowedOrigins:         conf.GetStringSlice("allowedOrigins"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetInt("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Files: FilesConfig{
			OutputDir: outputDir,
		},
	}
}
