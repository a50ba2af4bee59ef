package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sngm3741/contact-relay/api/internal/config"
	"github.com/sngm3741/contact-relay/api/internal/contact/application"
	commonhttp "github.com/sngm3741/contact-relay/api/internal/interfaces/http/common"
	contacthttp "github.com/sngm3741/contact-relay/api/internal/interfaces/http/contact"
)

// Server は HTTP サーバーのライフサイクルを管理し、問い合わせハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *log.Logger
	backends       *Backends
	submissions    application.SubmissionService
	addr           string
	allowedOrigins []string
	staticDir      string
}

// New は Config と構成済みバックエンドから Server を組み立てる。
func New(cfg config.Config, backends *Backends) *Server {
	policy, ok := application.ParsePersistPolicy(cfg.PersistPolicy)
	if !ok {
		cfg.ServerLog.Printf("PERSIST_POLICY %q は不明です。%s を使用します", cfg.PersistPolicy, policy)
	}

	target := "email"
	if cfg.NotifierBackend == config.NotifierMessenger {
		target = "messenger"
	}

	submissions := application.NewSubmissionService(application.SubmissionServiceConfig{
		Logger:        cfg.ServerLog,
		Store:         backends.Store,
		Notifier:      backends.Notifier,
		Failures:      backends.Failures,
		Policy:        policy,
		NotifyTimeout: cfg.NotifyTimeout,
		StoreTimeout:  cfg.StoreTimeout,
		Target:        target,
	})

	return &Server{
		logger:         cfg.ServerLog,
		backends:       backends,
		submissions:    submissions,
		addr:           cfg.Addr,
		allowedOrigins: cfg.Origins(),
		staticDir:      strings.TrimSpace(cfg.StaticDir),
	}
}

// Router builds the HTTP routing tree.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	contacthttp.NewHandler(contacthttp.Config{
		Logger:      s.logger,
		Submissions: s.submissions,
	}).Register(router)

	if s.staticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
	return router
}

// Run はHTTPサーバーを起動し、シグナル受信まで待機する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	err := waitForShutdown(httpServer, errChan, s)
	s.shutdown(context.Background())
	return err
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// healthHandler は構成済みバックエンドへの疎通確認を行う。
// 詳細なエラーはログにのみ出し、レスポンスにはバックエンド名だけを返す。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failing []string
		for name, check := range s.backends.Checks {
			if err := check(ctx); err != nil {
				s.logger.Printf("ヘルスチェック失敗 backend=%s: %v", name, err)
				failing = append(failing, name)
			}
		}

		if len(failing) > 0 {
			sort.Strings(failing)
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]any{
				"status":  "degraded",
				"failing": failing,
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// shutdown はバックエンドをタイムアウト付きで閉じ、プロセス終了時のリソースリークを防ぐ。
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.backends.Close(shutdownCtx); err != nil {
		s.logger.Printf("バックエンド切断時にエラー: %v", err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}
	return nil
}
