package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	settings := new(Config)

	err := Validate(settings)
	require.Error(t, err)

	// Bad socket.
	settings = &Config{
		ServerAddress: "bad:address",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Defaults are filled in.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, StorageFile, settings.Storage.Driver)
	require.Equal(t, DefaultStateFilename, settings.Storage.Path)
	require.Equal(t, ClassifierFake, settings.Classifier.Driver)
	require.Empty(t, settings.MQTT.ClientID)
}

// TestValidate_Sections checks driver-specific validation and defaults.
func TestValidate_Sections(t *testing.T) {
	t.Parallel()

	settings := &Config{
		ServerAddress: "127.0.0.1:0",
		Storage:       Storage{Driver: StorageSQLite},
		Classifier:    Classifier{Driver: ClassifierGemini},
		MQTT:          MQTT{Broker: "tcp://127.0.0.1:1883"},
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultDatabaseFilename, settings.Storage.Path)
	require.Equal(t, DefaultGeminiModel, settings.Classifier.Model)
	require.Equal(t, DefaultMQTTClientID, settings.MQTT.ClientID)
	require.Equal(t, DefaultMQTTTopicPrefix, settings.MQTT.TopicPrefix)

	// Redis requires an address.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		Storage:       Storage{Driver: StorageRedis},
	}
	require.ErrorIs(t, Validate(settings), errRedisAddressRequired)

	settings.Storage.RedisAddress = "127.0.0.1:6379"
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultRedisKey, settings.Storage.RedisKey)

	// Unknown drivers are rejected.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		Storage:       Storage{Driver: "etcd"},
	}
	require.ErrorIs(t, Validate(settings), errUnknownStorageDriver)

	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		Classifier:    Classifier{Driver: "opencv"},
	}
	require.ErrorIs(t, Validate(settings), errUnknownClassifierDriver)

	// Bad MQTT QoS.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		MQTT:          MQTT{Broker: "tcp://127.0.0.1:1883", QoS: 3},
	}
	require.ErrorIs(t, Validate(settings), errInvalidQoS)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := &Config{
		ServerAddress: "127.0.0.1:50051",
		Timeout:       3 * time.Second,
		LogLevel:      "debug",
		Storage: Storage{
			Driver: StorageMemory,
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.Timeout, loaded.Timeout)
	require.Equal(t, "debug", loaded.LogLevel)
	require.Equal(t, StorageMemory, loaded.Storage.Driver)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())

	require.Error(t, Save(path, nil))
}

// TestLoad_DurationFromYAML verifies that human durations parse.
func TestLoad_DurationFromYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := "server_addr: 127.0.0.1:50051\ntimeout: 750ms\nstorage:\n  driver: memory\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 750*time.Millisecond, loaded.Timeout)
}
