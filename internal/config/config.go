package config

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"vn.io.arda/notifengine/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Display   DisplayConfig   `mapstructure:"display"`
	Allowlist AllowlistConfig `mapstructure:"allowlist"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id"`
	DeviceTopic     string   `mapstructure:"device_topic"`
	MediaTopic      string   `mapstructure:"media_topic"`
	PreferenceTopic string   `mapstructure:"preference_topic"`
	ActionTopic     string   `mapstructure:"action_topic"`
}

// Topics returns the inbound topics to consume.
func (k KafkaConfig) Topics() []string {
	var out []string
	for _, t := range []string{k.DeviceTopic, k.MediaTopic, k.PreferenceTopic} {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

type StorageConfig struct {
	// Driver selects the conversation backend: file, sqlite or postgres.
	Driver     string `mapstructure:"driver"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// FilePath returns the location of the conversation document.
func (s StorageConfig) FilePath() string {
	return filepath.Join(s.Dir, s.Filename)
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type AuthConfig struct {
	// JWTSecret signs HS256 bearer tokens. Empty disables authentication.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type DisplayConfig struct {
	ShowSender   bool `mapstructure:"show_sender"`
	ShowGroup    bool `mapstructure:"show_group"`
	ShowMessage  bool `mapstructure:"show_message"`
	MessageLimit int  `mapstructure:"message_limit"`
}

// Preferences converts the section into domain display preferences.
func (d DisplayConfig) Preferences() domain.DisplayPreferences {
	return domain.DisplayPreferences{
		ShowSender:   d.ShowSender,
		ShowGroup:    d.ShowGroup,
		ShowMessage:  d.ShowMessage,
		MessageLimit: d.MessageLimit,
	}
}

type AllowlistConfig struct {
	Badge        []string `mapstructure:"badge"`
	Conversation []string `mapstructure:"conversation"`
}

// Loader reads configuration and can watch the config file for changes.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares viper with defaults and environment bindings.
// Environment variables override file values. Prefix: NOTIFENGINE_
// An explicit path replaces the default ./config.yaml lookup.
func NewLoader(path string) *Loader {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.env", "development")
	v.SetDefault("log.level", "debug")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group_id", "notifengine")
	v.SetDefault("kafka.device_topic", "device-events")
	v.SetDefault("kafka.media_topic", "media-events")
	v.SetDefault("kafka.preference_topic", "preference-events")
	v.SetDefault("kafka.action_topic", "device-actions")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.filename", "conversations.json")
	v.SetDefault("storage.sqlite_path", "./data/conversations.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "notifengine")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("display.show_sender", true)
	v.SetDefault("display.show_group", true)
	v.SetDefault("display.show_message", true)
	v.SetDefault("display.message_limit", domain.DefaultMessageLimit)
	v.SetDefault("allowlist.badge", []string{})
	v.SetDefault("allowlist.conversation", []string{})

	// Environment variables (e.g. NOTIFENGINE_STORAGE_DRIVER -> storage.driver)
	v.SetEnvPrefix("NOTIFENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support simple env vars without prefix for Docker Compose convenience
	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("server.port", "PORT")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	return &Loader{v: v}
}

// Load reads the config file (optional) and decodes the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg("no config file loaded, using defaults and environment")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-decodes the configuration whenever the config file changes and
// passes it to onChange.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("config reload failed")
			return
		}
		log.Info().Str("file", e.Name).Msg("config reloaded")
		onChange(&cfg)
	})
	l.v.WatchConfig()
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" dbname=" + d.Name +
		" user=" + d.User +
		" password=" + d.Password +
		" sslmode=disable"
}
