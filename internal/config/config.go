package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Store backends.
const (
	StoreMongo    = "mongo"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreBadger   = "badger"
	StoreNone     = "none"
)

// Notifier backends.
const (
	NotifierSMTP      = "smtp"
	NotifierMessenger = "messenger"
)

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr           string `env:"HTTP_ADDR"`
	Port           string `env:"PORT,default=3000"`
	AllowedOrigins string `env:"API_ALLOWED_ORIGINS,default=*"`
	StaticDir      string `env:"STATIC_DIR"`

	StoreBackend  string        `env:"STORE_BACKEND,default=mongo"`
	PersistPolicy string        `env:"PERSIST_POLICY,default=best-effort"`
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT,default=3s"`

	MongoURI                     string        `env:"MONGODB_URI"`
	MongoDatabase                string        `env:"MONGO_DB,default=contact"`
	MessageCollection            string        `env:"MONGO_COLLECTION,default=messages"`
	FailedNotificationCollection string        `env:"FAILED_NOTIFICATION_COLLECTION,default=failed_notifications"`
	MongoTimeout                 time.Duration `env:"MONGO_CONNECT_TIMEOUT,default=10s"`
	MongoPingInterval            time.Duration `env:"MONGO_PING_INTERVAL,default=15s"`

	MessageFile string `env:"MESSAGE_FILE,default=data/messages.json"`
	DatabaseURL string `env:"DATABASE_URL"`
	BadgerPath  string `env:"BADGER_PATH,default=data/badger"`

	NotifierBackend  string        `env:"NOTIFIER_BACKEND,default=smtp"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT,default=10s"`
	SMTPHost         string        `env:"SMTP_HOST,default=smtp.gmail.com"`
	SMTPPort         int           `env:"SMTP_PORT,default=587"`
	EmailUser        string        `env:"EMAIL_USER"`
	EmailPass        string        `env:"EMAIL_PASS"`
	ContactRecipient string        `env:"CONTACT_RECIPIENT"`

	MessengerEndpoint    string        `env:"MESSENGER_GATEWAY_URL,default=http://messenger-gateway:3000"`
	MessengerDestination string        `env:"MESSENGER_GATEWAY_DESTINATION"`
	MessengerUser        string        `env:"MESSENGER_GATEWAY_USER,default=admin"`
	MessengerSecret      string        `env:"MESSENGER_GATEWAY_SECRET"`
	MessengerTimeout     time.Duration `env:"MESSENGER_GATEWAY_TIMEOUT,default=3s"`

	ServerLog *log.Logger
}

// Load reads an optional .env file and the process environment and returns
// a fully populated Config.
func Load() (Config, error) {
	// .env は任意。存在しなければ環境変数のみを使う。
	_ = godotenv.Load()
	return FromEnviron(os.Stdout)
}

// FromEnviron binds the current environment without touching .env files.
func FromEnviron(out io.Writer) (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	cfg.ServerLog = log.New(out, "[contact-relay] ", log.LstdFlags|log.Lshortfile)
	return cfg, nil
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = ":" + strings.TrimSpace(c.Port)
	}
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.NotifierBackend = strings.ToLower(strings.TrimSpace(c.NotifierBackend))
	c.MongoURI = strings.TrimSpace(c.MongoURI)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.EmailUser = strings.TrimSpace(c.EmailUser)
	c.ContactRecipient = strings.TrimSpace(c.ContactRecipient)
	if c.ContactRecipient == "" {
		c.ContactRecipient = c.EmailUser
	}

	switch c.StoreBackend {
	case StoreMongo, StoreFile, StorePostgres, StoreBadger, StoreNone:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.NotifierBackend {
	case NotifierSMTP, NotifierMessenger:
	default:
		return fmt.Errorf("unknown NOTIFIER_BACKEND %q", c.NotifierBackend)
	}
	return nil
}

// Origins returns the configured CORS origins.
func (c Config) Origins() []string {
	return ParseList(c.AllowedOrigins, []string{"*"})
}

// ParseList splits a comma separated value, dropping blanks.
func ParseList(raw string, fallback []string) []string {
	values := lo.Compact(lo.Map(strings.Split(raw, ","), func(part string, _ int) string {
		return strings.TrimSpace(part)
	}))
	if len(values) == 0 {
		return fallback
	}
	return values
}
