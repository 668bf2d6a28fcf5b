// Package config はゲートウェイの起動設定を読み込む。
//
// 設定はコマンドラインフラグと環境変数から読み込む。
// 環境変数名はフラグ名を大文字にしてハイフンをアンダースコアに置き換えたもの
// （例: -route-source は ROUTE_SOURCE）。フラグが優先される。
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"

	"github.com/nao1215/docsgw/internal/apidocs"
	"github.com/nao1215/docsgw/internal/catalog"
)

// Config はゲートウェイの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// RouteSource はルート定義の取得元（file:// / http(s):// / sqlite:// またはファイルパス）。
	RouteSource string
	// RouteTimeout はルートレジストリへの問い合わせのタイムアウト。
	RouteTimeout time.Duration
	// ServiceSuffix はサービスとして扱うルートIDの接尾辞。
	ServiceSuffix string
	// DocsPath は各サービスのドキュメントのパス。
	DocsPath string
	// FetchTimeout はドキュメント取得のタイムアウト。
	FetchTimeout time.Duration
	// CacheTTL はドキュメントキャッシュの有効期間。0でキャッシュを無効にする。
	CacheTTL time.Duration
	// CacheSize はドキュメントキャッシュの最大件数。
	CacheSize int
	// ValidateDocs がtrueの場合、取得したドキュメントをOpenAPIとして検証する。
	ValidateDocs bool
	// TrustForwarded がtrueの場合、Forwarded / X-Forwarded-* ヘッダーからオリジンを決定する。
	TrustForwarded bool
	// RefreshInterval はカタログを定期的に再構築する間隔。0で無効。
	RefreshInterval time.Duration
	// AdminJWTSecret は管理APIのJWT署名鍵。空の場合は管理APIを公開しない。
	AdminJWTSecret string
	// CORSOrigins はCORSで許可するオリジン。
	CORSOrigins []string
	// SwaggerUI がtrueの場合、Swagger UIを公開する。
	SwaggerUI bool
}

// Default はデフォルト値を設定したConfigを返す。
func Default() Config {
	return Config{
		Port:           "8080",
		RouteSource:    "file://routes.yaml",
		RouteTimeout:   10 * time.Second,
		ServiceSuffix:  catalog.DefaultServiceSuffix,
		DocsPath:       catalog.DefaultDocsPath,
		FetchTimeout:   apidocs.DefaultFetchTimeout,
		CacheSize:      128,
		TrustForwarded: true,
		CORSOrigins:    []string{"http://localhost:3000"},
		SwaggerUI:      true,
	}
}

// Load はargsと環境変数から設定を読み込み、検証する。
func Load(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("docsgw", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	if err := ff.Parse(fs, args, ff.WithEnvVarNoPrefix()); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RegisterFlags はfsにcfgのフラグを登録する。cfgの現在値がデフォルト値になる。
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.RouteSource, "route-source", cfg.RouteSource, "Route registry: file://, http(s):// or sqlite:// URL")
	fs.DurationVar(&cfg.RouteTimeout, "route-timeout", cfg.RouteTimeout, "Timeout for route registry queries")
	fs.StringVar(&cfg.ServiceSuffix, "service-suffix", cfg.ServiceSuffix, "Route ID suffix that marks a service")
	fs.StringVar(&cfg.DocsPath, "docs-path", cfg.DocsPath, "Path of the API document on each service")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Timeout for fetching a service document")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Lifetime of cached documents (0 disables the cache)")
	fs.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "Max. number of cached documents")
	fs.BoolVar(&cfg.ValidateDocs, "validate-docs", cfg.ValidateDocs, "Reject documents that are not valid OpenAPI")
	fs.BoolVar(&cfg.TrustForwarded, "trust-forwarded", cfg.TrustForwarded, "Derive the public origin from Forwarded / X-Forwarded-* headers")
	fs.DurationVar(&cfg.RefreshInterval, "refresh-interval", cfg.RefreshInterval, "Interval for rebuilding the catalog (0 disables)")
	fs.StringVar(&cfg.AdminJWTSecret, "admin-jwt-secret", cfg.AdminJWTSecret, "Secret for admin API tokens (empty disables the admin API)")
	fs.Func("cors-origins", "Comma separated list of allowed CORS origins", func(v string) error {
		cfg.CORSOrigins = splitList(v)
		return nil
	})
	fs.BoolVar(&cfg.SwaggerUI, "swagger-ui", cfg.SwaggerUI, "Serve Swagger UI at /swagger-ui/")
}

// Validate は設定値を検証する。
func (cfg Config) Validate() error {
	var errs []error
	if p, err := strconv.Atoi(cfg.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("ポート番号が不正です: %q", cfg.Port))
	}
	if strings.TrimSpace(cfg.RouteSource) == "" {
		errs = append(errs, errors.New("ルート定義の取得元が指定されていません"))
	}
	if cfg.ServiceSuffix == "" {
		errs = append(errs, errors.New("サービスの接尾辞が指定されていません"))
	}
	if !strings.HasPrefix(cfg.DocsPath, "/") {
		errs = append(errs, fmt.Errorf("ドキュメントのパスは / で始まる必要があります: %q", cfg.DocsPath))
	}
	if cfg.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ドキュメント取得のタイムアウトが不正です: %v", cfg.FetchTimeout))
	}
	if cfg.RouteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ルートレジストリのタイムアウトが不正です: %v", cfg.RouteTimeout))
	}
	if cfg.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("キャッシュの有効期間が不正です: %v", cfg.CacheTTL))
	}
	if cfg.CacheTTL > 0 && cfg.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("キャッシュの最大件数が不正です: %d", cfg.CacheSize))
	}
	if cfg.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("再構築の間隔が不正です: %v", cfg.RefreshInterval))
	}
	return errors.Join(errs...)
}

// AdminEnabled は管理APIを公開するかどうかを返す。
func (cfg Config) AdminEnabled() bool {
	return cfg.AdminJWTSecret != ""
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
