package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/sngm3741/contact-relay/api/internal/config"
	"github.com/sngm3741/contact-relay/api/internal/contact/application"
	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
	mongodoc "github.com/sngm3741/contact-relay/api/internal/infrastructure/mongo"
	"github.com/sngm3741/contact-relay/api/internal/infrastructure/postgres"
	"github.com/sngm3741/contact-relay/api/internal/server"
)

type seedOptions struct {
	envName    string
	count      int
	migrate    bool
	drop       bool
	randomSeed int64
}

var (
	sampleNames = []string{"Alice", "Bob", "佐藤 花子", "Carol", "田中 太郎", "Dave"}
	sampleTexts = []string{
		"Hi, I'd like to know more about your services.",
		"Could you send me a quote?",
		"お問い合わせです。折り返しご連絡ください。",
		"Your website form works great.",
		"Is there a support plan for small teams?",
	}
)

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envName); err != nil {
		log.Fatalf("環境変数の読み込みに失敗しました: %v", err)
	}
	cfg, err := config.FromEnviron(os.Stdout)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if opts.migrate || opts.drop {
		if err := prepareSchema(ctx, cfg, opts); err != nil {
			log.Fatalf("スキーマ準備に失敗しました: %v", err)
		}
	}
	if opts.count == 0 {
		return
	}

	backends := server.BuildBackends(ctx, cfg)
	defer func() {
		_ = backends.Close(context.Background())
	}()
	if backends.Store == nil {
		log.Fatalf("STORE_BACKEND=%s ではメッセージを保存できません", cfg.StoreBackend)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))
	messages := generateMessages(rng, opts.count, time.Now())
	inserted, err := appendAll(ctx, backends.Store, messages)
	if err != nil {
		log.Fatalf("メッセージ投入に失敗しました (%d/%d 件): %v", inserted, len(messages), err)
	}
	log.Printf("Seed 完了: backend=%s messages=%d (seed=%d)", cfg.StoreBackend, inserted, opts.randomSeed)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "local", "env ディレクトリ内の env ファイル名 (例: local, staging)")
	flag.IntVar(&opts.count, "count", 20, "投入するサンプルメッセージ数 (0 でスキーマ準備のみ)")
	flag.BoolVar(&opts.migrate, "migrate", true, "インデックス / テーブルを作成する")
	flag.BoolVar(&opts.drop, "drop", false, "既存コレクションを削除してから投入する (MongoDB のみ)")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード（再現用）")
	flag.Parse()

	if opts.count < 0 {
		log.Fatal("count は 0 以上を指定してください")
	}
	return opts
}

// loadEnvFiles は存在する env ファイルだけを読み込む。既に設定済みの環境変数は上書きしない。
func loadEnvFiles(envName string) error {
	base := filepath.Clean("env")
	files := lo.Filter([]string{
		filepath.Join(base, "shared.env"),
		filepath.Join(base, fmt.Sprintf("%s.env", envName)),
	}, func(path string, _ int) bool {
		_, err := os.Stat(path)
		return err == nil
	})
	if len(files) == 0 {
		return nil
	}
	return godotenv.Load(files...)
}

func prepareSchema(ctx context.Context, cfg config.Config, opts seedOptions) error {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI が未設定です")
		}
		client, err := mongodoc.Connect(ctx, cfg.MongoURI, cfg.MongoTimeout)
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()
		repo := mongodoc.NewMessageRepository(client.Database(cfg.MongoDatabase), cfg.MessageCollection)
		if opts.drop {
			if err := repo.Drop(ctx); err != nil {
				return fmt.Errorf("コレクション削除: %w", err)
			}
			log.Printf("既存コレクション %s を削除しました", cfg.MessageCollection)
		}
		if opts.migrate {
			return repo.EnsureIndexes(ctx)
		}
	case config.StorePostgres:
		if !opts.migrate {
			return nil
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return postgres.NewMessageRepository(pool).Migrate(ctx)
	default:
		log.Printf("STORE_BACKEND=%s はスキーマ準備不要です", cfg.StoreBackend)
	}
	return nil
}

func generateMessages(rng *rand.Rand, count int, now time.Time) []domain.StoredMessage {
	return lo.Times(count, func(i int) domain.StoredMessage {
		name := sampleNames[rng.Intn(len(sampleNames))]
		sub := domain.Submission{
			Name:    name,
			Email:   fmt.Sprintf("user%03d@example.com", i),
			Message: sampleTexts[rng.Intn(len(sampleTexts))],
		}
		offset := time.Duration(rng.Intn(30*24*60)) * time.Minute
		return domain.NewStoredMessage(sub, now.Add(-offset))
	})
}

func appendAll(ctx context.Context, store application.Store, messages []domain.StoredMessage) (int, error) {
	for i, msg := range messages {
		if err := store.Append(ctx, msg); err != nil {
			return i, err
		}
	}
	return len(messages), nil
}
