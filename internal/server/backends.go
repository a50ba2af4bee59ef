package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/contact-relay/api/internal/config"
	"github.com/sngm3741/contact-relay/api/internal/contact/application"
	badgerstore "github.com/sngm3741/contact-relay/api/internal/infrastructure/badger"
	filestore "github.com/sngm3741/contact-relay/api/internal/infrastructure/file"
	"github.com/sngm3741/contact-relay/api/internal/infrastructure/mail"
	"github.com/sngm3741/contact-relay/api/internal/infrastructure/messenger"
	mongodoc "github.com/sngm3741/contact-relay/api/internal/infrastructure/mongo"
	"github.com/sngm3741/contact-relay/api/internal/infrastructure/postgres"
)

// HealthCheck reports whether one backend is reachable.
type HealthCheck func(ctx context.Context) error

// Backends bundles the process-wide collaborators handed to the submission
// service. They are created once at startup and never mutated afterwards.
type Backends struct {
	Store    application.Store
	Notifier application.Notifier
	Failures application.FailureRecorder
	Checks   map[string]HealthCheck
	closers  []func(ctx context.Context) error
}

// Close releases connections in reverse creation order.
func (b *Backends) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Backends) addCheck(name string, check HealthCheck) {
	if b.Checks == nil {
		b.Checks = make(map[string]HealthCheck)
	}
	b.Checks[name] = check
}

// BuildBackends はストアと通知手段を構成する。バックエンドに接続できない場合も
// 起動は止めず、警告を出して縮退モードで継続する。
func BuildBackends(ctx context.Context, cfg config.Config) *Backends {
	logger := cfg.ServerLog
	b := &Backends{}

	mongoDB, availability := connectMongo(ctx, cfg, b)
	if mongoDB != nil {
		b.Failures = mongodoc.NewFailedNotificationRepository(mongoDB, cfg.FailedNotificationCollection).Guard(availability)
	}

	switch cfg.StoreBackend {
	case config.StoreMongo:
		if mongoDB == nil {
			logger.Printf("MONGODB_URI が未設定または接続不可のため、メッセージは DB に保存されません")
			break
		}
		b.Store = mongodoc.NewMessageRepository(mongoDB, cfg.MessageCollection).Guard(availability)
	case config.StoreFile:
		store, err := filestore.NewMessageStore(cfg.MessageFile)
		if err != nil {
			logger.Printf("メッセージファイルを準備できません (保存をスキップ): %v", err)
			break
		}
		b.Store = store
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			logger.Printf("DATABASE_URL が未設定のため、メッセージは DB に保存されません")
			break
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Printf("PostgreSQL 接続に失敗しました (保存をスキップ): %v", err)
			break
		}
		b.closers = append(b.closers, func(context.Context) error { pool.Close(); return nil })
		b.addCheck("postgres", func(ctx context.Context) error { return pool.Ping(ctx) })
		b.Store = postgres.NewMessageRepository(pool)
	case config.StoreBadger:
		db, err := badgerstore.Open(cfg.BadgerPath)
		if err != nil {
			logger.Printf("Badger を開けません (保存をスキップ): %v", err)
			break
		}
		b.closers = append(b.closers, func(context.Context) error { return db.Close() })
		b.Store = badgerstore.NewMessageRepository(db)
	case config.StoreNone:
		logger.Printf("STORE_BACKEND=none: メッセージは保存されません")
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Printf("通知手段の初期化に失敗しました。送信はすべて失敗します: %v", err)
	} else {
		b.Notifier = notifier
	}
	return b
}

// connectMongo は到達不可でもクライアントを返す。到達状態は Availability が
// 定期的に確認し、不可の間は書き込みを即座にスキップさせる。
func connectMongo(ctx context.Context, cfg config.Config, b *Backends) (*mongo.Database, *mongodoc.Availability) {
	logger := cfg.ServerLog
	if cfg.MongoURI == "" {
		return nil, nil
	}

	client, err := mongodoc.Connect(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		logger.Printf("MongoDB クライアントの生成に失敗: %v", err)
		return nil, nil
	}
	b.closers = append(b.closers, func(ctx context.Context) error { return client.Disconnect(ctx) })

	availability := mongodoc.NewAvailability(client)
	b.addCheck("mongo", availability.Check)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
	defer cancel()
	if err := availability.Check(pingCtx); err != nil {
		logger.Printf("MongoDB に接続できません。復旧するまで保存をスキップします: %v", err)
	} else {
		logger.Printf("MongoDB に接続しました")
	}

	if cfg.MongoPingInterval > 0 {
		watchCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
		go availability.Watch(watchCtx, cfg.MongoPingInterval, cfg.MongoTimeout, func(available bool, err error) {
			if available {
				logger.Printf("MongoDB への接続が復旧しました")
				return
			}
			logger.Printf("MongoDB に到達できません。保存をスキップします: %v", err)
		})
		b.closers = append(b.closers, func(context.Context) error { stop(); return nil })
	}
	return client.Database(cfg.MongoDatabase), availability
}

func buildNotifier(cfg config.Config, logger *log.Logger) (application.Notifier, error) {
	switch cfg.NotifierBackend {
	case config.NotifierMessenger:
		var secret []byte
		if cfg.MessengerSecret != "" {
			secret = []byte(cfg.MessengerSecret)
		}
		return messenger.NewNotifier(messenger.Config{
			Endpoint:    cfg.MessengerEndpoint,
			Destination: cfg.MessengerDestination,
			UserID:      cfg.MessengerUser,
			Secret:      secret,
			HTTPClient:  &http.Client{Timeout: cfg.MessengerTimeout},
		}), nil
	default:
		if cfg.EmailUser == "" || cfg.EmailPass == "" {
			logger.Printf("EMAIL_USER / EMAIL_PASS が未設定です。メール送信は失敗します")
		}
		return mail.NewSMTPNotifier(mail.Config{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.EmailUser,
			Password:  cfg.EmailPass,
			From:      cfg.EmailUser,
			Recipient: cfg.ContactRecipient,
			Timeout:   cfg.NotifyTimeout,
		}, logger)
	}
}
