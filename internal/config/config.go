package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Guild       GuildConfig       `yaml:"guild"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Auth        AuthConfig        `yaml:"auth"`
	Roster      RosterConfig      `yaml:"roster"`
	Review      ReviewConfig      `yaml:"review"`
	License     LicenseConfig     `yaml:"license"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type GuildConfig struct {
	Name string `yaml:"name"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type GeminiConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxImages   int           `yaml:"max_images"`
	MaxImageMB  int           `yaml:"max_image_mb"`
	Concurrency int           `yaml:"concurrency"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// RosterConfig controls how confirmed rosters are accounted.
// CountMode is "per_commit" (every committed row bumps the counter) or
// "per_event" (a repeated event/member pair does not count again).
type RosterConfig struct {
	CountMode     string `yaml:"count_mode"`
	RoleHistory   bool   `yaml:"role_history"`
	MonthlyTarget int    `yaml:"monthly_target"`
}

type ReviewConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LicenseConfig struct {
	Required bool `yaml:"required"`
}

type ArchiveConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MaintenanceConfig struct {
	WipePageSize int `yaml:"wipe_page_size"`
}

// DefaultJWTSecret is a placeholder; Validate refuses to run with it.
const DefaultJWTSecret = "albion-cta-secret"

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8501},
		Guild:    GuildConfig{Name: "guild"},
		Log:      LogConfig{Level: "info", Format: "json", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Port: 3306, Name: "albion_cta"},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     90 * time.Second,
			MaxImages:   6,
			MaxImageMB:  8,
			Concurrency: 3,
		},
		Auth:        AuthConfig{JWTSecret: DefaultJWTSecret, TokenTTL: 7 * 24 * time.Hour},
		Roster:      RosterConfig{CountMode: "per_commit", RoleHistory: true, MonthlyTarget: 4},
		Review:      ReviewConfig{TTL: 30 * time.Minute, SweepInterval: 5 * time.Minute},
		Maintenance: MaintenanceConfig{WipePageSize: 500},
	}
}

func Load(configFile string) *Config {
	_ = godotenv.Load()

	c := Default()
	paths := []string{"etc/config.yaml", "/etc/albion-cta/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASS")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Guild.Name, "GUILD_NAME")
	envOverride(&c.Gemini.APIKey, "GEMINI_API_KEY")
	envOverride(&c.Gemini.Model, "GEMINI_MODEL")
	envOverride(&c.Auth.JWTSecret, "JWT_SECRET")
	envOverride(&c.Roster.CountMode, "COUNT_MODE")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Log.Format, "LOG_FORMAT")
	envOverride(&c.Archive.Endpoint, "S3_ENDPOINT")
	envOverride(&c.Archive.Bucket, "S3_BUCKET")
	envOverride(&c.Archive.AccessKeyID, "S3_ACCESS_KEY_ID")
	envOverride(&c.Archive.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "DB_PORT")
	envOverrideInt(&c.Roster.MonthlyTarget, "MONTHLY_TARGET")
	envOverrideBool(&c.License.Required, "LICENSE_REQUIRED")
	envOverrideBool(&c.Archive.Enabled, "S3_ARCHIVE")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Roster.CountMode {
	case "per_commit", "per_event":
	default:
		return fmt.Errorf("roster.count_mode must be per_commit or per_event, got %q", c.Roster.CountMode)
	}
	if c.Roster.MonthlyTarget < 0 {
		return fmt.Errorf("roster.monthly_target must not be negative")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	switch strings.TrimSpace(c.Auth.JWTSecret) {
	case "", DefaultJWTSecret, "change-me":
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) must be set to a private value")
	}
	return nil
}

func (c *Config) OpenGormDB(l logger.Interface) (*gorm.DB, error) {
	cfg := gomysql.NewConfig()
	cfg.User = c.Database.User
	cfg.Passwd = c.Database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	cfg.DBName = c.Database.Name
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if l == nil {
		l = logger.Default.LogMode(logger.Silent)
	}
	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{Logger: l})
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
