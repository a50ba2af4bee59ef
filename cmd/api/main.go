package main

import (
	"context"
	"log"

	"github.com/sngm3741/contact-relay/api/internal/config"
	"github.com/sngm3741/contact-relay/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	backends := server.BuildBackends(context.Background(), cfg)

	app := server.New(cfg, backends)
	if err := app.Run(); err != nil {
		log.Fatalf("サーバー起動に失敗: %v", err)
	}
}
