package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName  string
		Env      string // DEV (default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		Build    string
		WorkDir  string

		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Training TrainingConfig
		Site     SiteConfig

		// Staff maps a host's display name to their notification email.
		// Loaded once at startup; read-only afterwards.
		Staff map[string]string
	}

	ServerConfig struct {
		Host            string
		ApiHost         string
		DebugHost       string
		ShutdownTimeout time.Duration
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

	TrainingConfig struct {
		// VideoThreshold is the watched percentage at which the training
		// video counts as completed. Recognized range: [0, 100].
		VideoThreshold int
		// RequireEnded ignores VideoThreshold and only accepts an explicit
		// "ended" playback signal.
		RequireEnded bool
	}

	SiteConfig struct {
		// Timezone is the site's local civil time zone.
		Timezone string
		// OvertimeCutoff is the local "HH:MM" past which on-site visitors
		// trigger overtime notifications.
		OvertimeCutoff string
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c SiteConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// CutoffClock parses OvertimeCutoff into hour and minute.
func (c SiteConfig) CutoffClock() (hour, minute int, err error) {
	if _, err = fmt.Sscanf(c.OvertimeCutoff, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parsing overtime cutoff %q: %v", c.OvertimeCutoff, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("overtime cutoff %q out of range", c.OvertimeCutoff)
	}
	return hour, minute, nil
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "SitePass")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.apiHost", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "sitepass")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("training.videoThreshold", 90)
	v.SetDefault("training.requireEnded", false)
	v.SetDefault("site.timezone", "America/Chicago")
	v.SetDefault("site.overtimeCutoff", "17:30")
	v.SetDefault("staff", map[string]string{})

	env := os.Getenv("ENV")
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	// optional staff directory file; entries live under the "staff" key
	v.SetConfigName("staff")
	v.AddConfigPath(filepath.Join(wd, "config"))
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("config.staff: %v", err)
		}
	}

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         testMode,
		Build:            v.GetString("build"),
		WorkDir:          wd,
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			ApiHost:         v.GetString("server.apiHost"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Training: TrainingConfig{
			VideoThreshold: v.GetInt("training.videoThreshold"),
			RequireEnded:   v.GetBool("training.requireEnded"),
		},
		Site: SiteConfig{
			Timezone:       v.GetString("site.timezone"),
			OvertimeCutoff: v.GetString("site.overtimeCutoff"),
		},
		Staff: v.GetStringMapString("staff"),
	}
}
