package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the catpoint binaries.
type Config struct {
	// ServerAddress is the gRPC server address for security service connections.
	ServerAddress string `yaml:"server_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of log entries (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// Storage selects and configures the state store.
	Storage Storage `yaml:"storage"`
	// Classifier selects and configures the image classifier.
	Classifier Classifier `yaml:"classifier"`
	// MQTT configures the optional event feed. Empty broker disables it.
	MQTT MQTT `yaml:"mqtt"`
}

// Storage configures the state store.
type Storage struct {
	// Driver is one of memory, file, sqlite or redis.
	Driver string `yaml:"driver"`
	// Path is the state file (file driver) or database file (sqlite driver).
	Path string `yaml:"path"`
	// RedisAddress is the host:port of the redis server (redis driver).
	RedisAddress string `yaml:"redis_addr"`
	// RedisPassword authenticates against redis, if set.
	RedisPassword string `yaml:"redis_password"`
	// RedisDB selects the redis logical database.
	RedisDB int `yaml:"redis_db"`
	// RedisKey is the key holding the state document.
	RedisKey string `yaml:"redis_key"`
}

// Classifier configures the image classifier.
type Classifier struct {
	// Driver is one of fake or gemini.
	Driver string `yaml:"driver"`
	// Model is the Gemini model name (gemini driver).
	Model string `yaml:"model"`
	// APIKey authenticates against the Gemini API. Falls back to GEMINI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Seed makes the fake classifier deterministic when non-zero.
	Seed uint64 `yaml:"seed"`
}

// MQTT configures publication of security events to a broker.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies this server to the broker.
	ClientID string `yaml:"client_id"`
	// TopicPrefix is prepended to every published topic.
	TopicPrefix string `yaml:"topic_prefix"`
	// Username authenticates against the broker, if set.
	Username string `yaml:"username"`
	// Password authenticates against the broker, if set.
	Password string `yaml:"password"`
	// QoS is the MQTT quality of service level (0, 1 or 2).
	QoS byte `yaml:"qos"`
}

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Classifier drivers.
const (
	ClassifierFake   = "fake"
	ClassifierGemini = "gemini"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "catpoint-settings.yaml"

	// DefaultStateFilename is the default filename for the state document.
	DefaultStateFilename = "catpoint-state.json"

	// DefaultDatabaseFilename is the default filename for the sqlite store.
	DefaultDatabaseFilename = "catpoint.db"

	// DefaultRedisKey is the default key holding the state document.
	DefaultRedisKey = "catpoint:state"

	// DefaultGeminiModel is the model used when none is configured.
	DefaultGeminiModel = "gemini-1.5-flash"

	// DefaultMQTTClientID identifies the server when no client id is configured.
	DefaultMQTTClientID = "catpoint-server"

	// DefaultMQTTTopicPrefix is prepended to published topics by default.
	DefaultMQTTTopicPrefix = "catpoint"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownStorageDriver is returned for an unsupported storage driver.
	errUnknownStorageDriver = errors.New("unknown storage driver")
	// errUnknownClassifierDriver is returned for an unsupported classifier driver.
	errUnknownClassifierDriver = errors.New("unknown classifier driver")
	// errRedisAddressRequired is returned when the redis driver has no address.
	errRedisAddressRequired = errors.New("redis address must be provided")
	// errInvalidQoS is returned for MQTT QoS above 2.
	errInvalidQoS = errors.New("mqtt qos must be 0, 1 or 2")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if err := validateStorage(&settings.Storage); err != nil {
		return err
	}

	if err := validateClassifier(&settings.Classifier); err != nil {
		return err
	}

	return validateMQTT(&settings.MQTT)
}

func validateStorage(s *Storage) error {
	switch s.Driver {
	case "":
		s.Driver = StorageFile

		fallthrough
	case StorageFile:
		if s.Path == "" {
			s.Path = DefaultStateFilename
		}
	case StorageSQLite:
		if s.Path == "" {
			s.Path = DefaultDatabaseFilename
		}
	case StorageRedis:
		if s.RedisAddress == "" {
			return errRedisAddressRequired
		}

		if s.RedisKey == "" {
			s.RedisKey = DefaultRedisKey
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: %q", errUnknownStorageDriver, s.Driver)
	}

	return nil
}

func validateClassifier(c *Classifier) error {
	switch c.Driver {
	case "":
		c.Driver = ClassifierFake
	case ClassifierFake:
	case ClassifierGemini:
		if c.Model == "" {
			c.Model = DefaultGeminiModel
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownClassifierDriver, c.Driver)
	}

	return nil
}

func validateMQTT(m *MQTT) error {
	if m.Broker == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(m.Broker); err != nil {
		return fmt.Errorf("invalid mqtt broker URI: %w", err)
	}

	if m.QoS > 2 {
		return errInvalidQoS
	}

	if m.ClientID == "" {
		m.ClientID = DefaultMQTTClientID
	}

	if m.TopicPrefix == "" {
		m.TopicPrefix = DefaultMQTTTopicPrefix
	}

	return nil
}
