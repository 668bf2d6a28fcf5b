package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docsgw/internal/apidocs"
	"github.com/nao1215/docsgw/internal/catalog"
	"github.com/nao1215/docsgw/internal/config"
	"github.com/nao1215/docsgw/pkg/httpclient"
	"github.com/nao1215/docsgw/pkg/metrics"
	"github.com/nao1215/docsgw/pkg/middleware"
	"github.com/nao1215/docsgw/pkg/route"
)

// DocsPrefix はドキュメントエンドポイントのパス。
const DocsPrefix = "/docs"

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Server はドキュメント集約ゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動設定。
	cfg config.Config
	// store は公開中のカタログのスナップショット。
	store *catalog.Store
	// refresher はカタログの再構築を行う。
	refresher *catalog.Refresher
	// fetcher はバックエンドからドキュメントを取得する。
	fetcher *apidocs.Fetcher
	// rewriter はドキュメントの servers を書き換える。
	rewriter apidocs.Rewriter
	// metrics はPrometheusメトリクス。
	metrics *metrics.Metrics
	// selfDoc はゲートウェイ自身のOpenAPIドキュメント。
	selfDoc *openapi3.T
}

// NewServer は新しいゲートウェイサーバーを生成する。
// locatorからルート定義を取得して最初のカタログを構築する。
// ルート定義を取得できない場合は route.ErrRegistryUnavailable をラップしたエラーを返す。
func NewServer(ctx context.Context, cfg config.Config, locator route.Locator) (*Server, error) {
	m := metrics.New()
	builder := catalog.NewBuilder(cfg.ServiceSuffix, cfg.DocsPath)

	initial, err := catalog.Init(ctx, locator, builder, DocsPrefix)
	if err != nil {
		return nil, fmt.Errorf("カタログの構築に失敗: %w", err)
	}
	m.ObserveCatalog(initial.Catalog.Len(), len(initial.Warnings))
	store := catalog.NewStore(initial)

	fetchOpts := []apidocs.FetcherOption{apidocs.WithCache(cfg.CacheSize, cfg.CacheTTL)}
	if cfg.ValidateDocs {
		fetchOpts = append(fetchOpts, apidocs.WithValidation())
	}
	fetcher := apidocs.NewFetcher(httpclient.New(httpclient.WithTimeout(cfg.FetchTimeout)), fetchOpts...)

	refresher := catalog.NewRefresher(store, locator, builder, DocsPrefix, m)
	refresher.OnRefresh(func(*catalog.RefreshResult) {
		fetcher.Purge()
	})

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	s := &Server{
		router:    router,
		cfg:       cfg,
		store:     store,
		refresher: refresher,
		fetcher:   fetcher,
		rewriter:  apidocs.Rewriter{TrustForwarded: cfg.TrustForwarded},
		metrics:   m,
		selfDoc:   newSelfDocument(DocsPrefix, cfg.AdminEnabled()),
	}
	s.setupRoutes()

	return s, nil
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。ctxがキャンセルされるとグレースフルシャットダウンする。
// 再構築の間隔が設定されている場合は、カタログの定期的な再構築も並行して実行する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[Gateway] HTTPサーバーを起動します: %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Printf("[Gateway] HTTPサーバーを停止します")
		return srv.Shutdown(shutdownCtx)
	})
	if s.cfg.RefreshInterval > 0 {
		g.Go(func() error {
			log.Printf("[Gateway] カタログを %v ごとに再構築します", s.cfg.RefreshInterval)
			return s.refresher.Run(gctx, s.cfg.RefreshInterval)
		})
	}
	return g.Wait()
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth())
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	docs := s.router.Group(DocsPrefix)
	{
		docs.GET("", s.handleSelfDocument())
		docs.GET("/swagger-config", s.handleSwaggerConfig())
		docs.GET("/:name", s.handleServiceDocument())
	}

	if s.cfg.SwaggerUI {
		s.router.SetHTMLTemplate(loadTemplates())
		s.router.GET("/swagger-ui/*any", s.handleSwaggerUI())
	}

	if s.cfg.AdminEnabled() {
		admin := s.router.Group("/admin")
		admin.Use(middleware.JWTAuth(s.cfg.AdminJWTSecret))
		{
			admin.GET("/catalog", s.handleGetCatalog())
			admin.POST("/catalog/refresh", s.handleRefreshCatalog())
		}
	}
}
