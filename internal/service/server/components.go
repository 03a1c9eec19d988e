package server

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/catpoint/internal/classifier"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/notify"
	repo "github.com/oshokin/catpoint/internal/repository/security"
	"github.com/oshokin/catpoint/internal/service/security"
)

// GeminiAPIKeyEnv is read when the configuration carries no Gemini API key.
const GeminiAPIKeyEnv = "GEMINI_API_KEY"

// components holds the engine and everything it was wired to.
type components struct {
	// engine makes the security decisions.
	engine *security.Engine
	// broadcaster feeds Watch streams.
	broadcaster *notify.Broadcaster
	// closers release adapters in reverse order of creation.
	closers []func() error
}

// newComponents builds the store, classifier and listeners described by settings.
func newComponents(ctx context.Context, settings *config.Config) (*components, error) {
	c := new(components)

	repository, err := c.newRepository(ctx, &settings.Storage)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	imageClassifier, err := c.newClassifier(ctx, &settings.Classifier)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.engine, err = security.NewEngine(repository, imageClassifier)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.broadcaster = notify.NewBroadcaster(notify.DefaultSubscriberBuffer)
	c.engine.AddStatusListener(notify.NewLogListener())
	c.engine.AddStatusListener(c.broadcaster)

	if settings.MQTT.Broker != "" {
		client, err := notify.DialMQTT(&settings.MQTT, settings.Timeout)
		if err != nil {
			return nil, errors.Join(err, c.Close())
		}

		c.closers = append(c.closers, func() error {
			client.Close()

			return nil
		})

		c.engine.AddStatusListener(notify.NewMQTTListener(client, settings.MQTT.TopicPrefix))
		logger.InfoKV(ctx, "Publishing events to MQTT", "broker", settings.MQTT.Broker)
	}

	return c, nil
}

//nolint:ireturn // The driver decides the concrete store.
func (c *components) newRepository(ctx context.Context, storage *config.Storage) (security.Repository, error) {
	logger.InfoKV(ctx, "Opening state store", "driver", storage.Driver, "path", storage.Path)

	switch storage.Driver {
	case config.StorageMemory:
		return repo.NewDocumentRepository(repo.NewMemoryStorage(nil)), nil
	case config.StorageFile:
		return repo.NewDocumentRepository(repo.NewFileStorage(storage.Path)), nil
	case config.StorageSQLite:
		db, err := repo.OpenSQLite(ctx, storage.Path)
		if err != nil {
			return nil, err
		}

		c.closers = append(c.closers, db.Close)

		return db, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     storage.RedisAddress,
			Password: storage.RedisPassword,
			DB:       storage.RedisDB,
		})

		c.closers = append(c.closers, client.Close)

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis %s: %w", storage.RedisAddress, err)
		}

		return repo.NewDocumentRepository(repo.NewRedisStorage(client, storage.RedisKey)), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", storage.Driver)
	}
}

//nolint:ireturn // The driver decides the concrete classifier.
func (c *components) newClassifier(ctx context.Context, cfg *config.Classifier) (security.ImageClassifier, error) {
	logger.InfoKV(ctx, "Using image classifier", "driver", cfg.Driver)

	switch cfg.Driver {
	case config.ClassifierFake:
		return classifier.NewFake(cfg.Seed), nil
	case config.ClassifierGemini:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv(GeminiAPIKeyEnv)
		}

		gemini, err := classifier.NewGemini(ctx, apiKey, cfg.Model)
		if err != nil {
			return nil, err
		}

		c.closers = append(c.closers, gemini.Close)

		return gemini, nil
	default:
		return nil, fmt.Errorf("unsupported classifier driver %q", cfg.Driver)
	}
}

// Close releases every adapter, newest first.
func (c *components) Close() error {
	var errs []error

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	c.closers = nil

	return errors.Join(errs...)
}
