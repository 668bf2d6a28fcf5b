package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/docsgw/internal/docindex"
	"github.com/nao1215/docsgw/pkg/route"
)

// pathRoute はPathプレディケートを1つ持つテスト用のルート定義を返す。
func pathRoute(id, uri, pattern string) route.Definition {
	return route.Definition{
		ID:         id,
		URI:        uri,
		Predicates: []route.Predicate{{Name: "Path", Args: map[string]string{"_genkey_0": pattern}}},
	}
}

// testBuilder はデフォルト設定のBuilder。
var testBuilder = NewBuilder("", "")

// TestNewBuilder はデフォルト値の補完を検証する。
func TestNewBuilder(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff(Builder{ServiceSuffix: "-service", DocsPath: "/v3/api-docs"}, NewBuilder("", "")); diff != "" {
		t.Errorf("NewBuilder() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Builder{ServiceSuffix: "-svc", DocsPath: "/docs"}, NewBuilder("-svc", "/docs")); diff != "" {
		t.Errorf("NewBuilder() mismatch (-want +got):\n%s", diff)
	}
}

// TestBuild はカタログ構築を検証する。
func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("サービス接尾辞を持つルートだけがカタログに含まれること", func(t *testing.T) {
		t.Parallel()

		routes := []route.Definition{
			pathRoute("orders-service", "http://orders:8080", "/orders/**"),
			pathRoute("users-service", "http://users:8080/", "/users/**"),
			pathRoute("frontend", "http://frontend:3000", "/**"),
			pathRoute("service-registry", "http://eureka:8761", "/eureka/**"),
		}

		c, warnings := testBuilder.Build(routes)
		if len(warnings) != 0 {
			t.Errorf("警告 = %v, want なし", warnings)
		}

		want := []Entry{
			{Name: "orders", GatewayPath: "/orders", DocsURL: "http://orders:8080/v3/api-docs", RouteID: "orders-service"},
			{Name: "users", GatewayPath: "/users", DocsURL: "http://users:8080/v3/api-docs", RouteID: "users-service"},
		}
		if diff := cmp.Diff(want, c.Entries()); diff != "" {
			t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
		}
		for _, absent := range []string{"frontend", "service-registry", "orders-service"} {
			if _, ok := c.Lookup(absent); ok {
				t.Errorf("%q がカタログに含まれている", absent)
			}
		}
	})

	t.Run("接尾辞は末尾の1回だけ除去されること", func(t *testing.T) {
		t.Parallel()

		c, _ := testBuilder.Build([]route.Definition{
			pathRoute("billing-service-service", "http://billing", "/billing/**"),
		})
		if diff := cmp.Diff([]string{"billing-service"}, c.Names()); diff != "" {
			t.Errorf("Names() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("カスタムの接尾辞とドキュメントパスを使用できること", func(t *testing.T) {
		t.Parallel()

		b := NewBuilder("-api", "/openapi.json")
		c, _ := b.Build([]route.Definition{
			pathRoute("orders-api", "http://orders:8080", "/orders/**"),
			pathRoute("orders-service", "http://orders:8080", "/orders/**"),
		})
		want := []Entry{
			{Name: "orders", GatewayPath: "/orders", DocsURL: "http://orders:8080/openapi.json", RouteID: "orders-api"},
		}
		if diff := cmp.Diff(want, c.Entries()); diff != "" {
			t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Pathプレディケートがないルートはスキップされ警告が出ること", func(t *testing.T) {
		t.Parallel()

		routes := []route.Definition{
			{ID: "nopath-service", URI: "http://nopath", Predicates: []route.Predicate{{Name: "Host", Args: map[string]string{"_genkey_0": "x"}}}},
			{ID: "empty-service", URI: "http://empty"},
			{ID: "noarg-service", URI: "http://noarg", Predicates: []route.Predicate{{Name: "Path"}}},
			pathRoute("ok-service", "http://ok", "/ok/**"),
		}

		c, warnings := testBuilder.Build(routes)
		if diff := cmp.Diff([]string{"ok"}, c.Names()); diff != "" {
			t.Errorf("Names() mismatch (-want +got):\n%s", diff)
		}
		if len(warnings) != 3 {
			t.Fatalf("警告数 = %d, want 3: %v", len(warnings), warnings)
		}
		for i, id := range []string{"nopath-service", "empty-service", "noarg-service"} {
			if warnings[i].RouteID != id {
				t.Errorf("warnings[%d].RouteID = %q, want %q", i, warnings[i].RouteID, id)
			}
		}
	})

	t.Run("サービス名が空になるルートはスキップされ警告が出ること", func(t *testing.T) {
		t.Parallel()

		c, warnings := testBuilder.Build([]route.Definition{pathRoute("-service", "http://x", "/x/**")})
		if c.Len() != 0 {
			t.Errorf("Len() = %d, want 0", c.Len())
		}
		if len(warnings) != 1 || warnings[0].RouteID != "-service" {
			t.Errorf("警告 = %v", warnings)
		}
	})

	t.Run("同じサービス名は後のルートが優先され警告が出ること", func(t *testing.T) {
		t.Parallel()

		routes := []route.Definition{
			pathRoute("orders-service", "http://orders-v1:8080", "/orders/**"),
			{
				ID:         "orders-service",
				URI:        "http://orders-v2:8080",
				Predicates: []route.Predicate{{Name: "Path", Args: map[string]string{"_genkey_0": "/v2/orders/**"}}},
			},
		}

		c, warnings := testBuilder.Build(routes)
		if c.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", c.Len())
		}
		got, _ := c.Lookup("orders")
		if got.DocsURL != "http://orders-v2:8080/v3/api-docs" || got.GatewayPath != "/v2/orders" {
			t.Errorf("後のルートが優先されていない: %+v", got)
		}
		if len(warnings) != 1 {
			t.Fatalf("警告数 = %d, want 1", len(warnings))
		}
		if warnings[0].Service != "orders" || !strings.Contains(warnings[0].Reason, "orders-service") {
			t.Errorf("警告 = %+v", warnings[0])
		}
	})

	t.Run("ルートが空でも空のカタログが返ること", func(t *testing.T) {
		t.Parallel()

		c, warnings := testBuilder.Build(nil)
		if c == nil || c.Len() != 0 || len(warnings) != 0 {
			t.Errorf("Build(nil) = %v, %v", c, warnings)
		}
	})
}

// TestGatewayPath はワイルドカードの除去を検証する。
func TestGatewayPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		want    string
	}{
		{pattern: "/orders/**", want: "/orders"},
		{pattern: "/orders/*", want: "/orders"},
		{pattern: "/orders", want: "/orders"},
		{pattern: "/api/v1/orders/**", want: "/api/v1/orders"},
		{pattern: "/**", want: "/"},
		{pattern: " /orders/** ", want: "/orders"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			if got := GatewayPath(tt.pattern); got != tt.want {
				t.Errorf("GatewayPath(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

// TestPublish はグループ一覧への登録を検証する。
func TestPublish(t *testing.T) {
	t.Parallel()

	c, _ := testBuilder.Build([]route.Definition{
		pathRoute("users-service", "http://users", "/users/**"),
		pathRoute("orders-service", "http://orders", "/orders/**"),
	})
	idx := docindex.New("/docs")
	Publish(idx, c, "/docs")

	want := docindex.Config{
		URL: "/docs",
		URLs: []docindex.Group{
			{Name: "orders", URL: "/docs/orders"},
			{Name: "users", URL: "/docs/users"},
		},
	}
	if diff := cmp.Diff(want, idx.Config()); diff != "" {
		t.Errorf("Config() mismatch (-want +got):\n%s", diff)
	}
}

// failingLocator は常にエラーを返すLocator。
type failingLocator struct{}

// ListRoutes は常にErrRegistryUnavailableを返す。
func (failingLocator) ListRoutes(context.Context) ([]route.Definition, error) {
	return nil, route.ErrRegistryUnavailable
}

// TestInit は起動時の初期化を検証する。
func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("カタログとグループ一覧が構築されること", func(t *testing.T) {
		t.Parallel()

		locator := route.StaticLocator{
			pathRoute("orders-service", "http://orders:8080", "/orders/**"),
			{ID: "broken-service", URI: "http://broken"},
		}
		s, err := Init(context.Background(), locator, testBuilder, "/docs")
		if err != nil {
			t.Fatalf("Init()でエラーが発生: %v", err)
		}
		if s.Version == "" {
			t.Error("Versionが空")
		}
		if s.BuiltAt.IsZero() {
			t.Error("BuiltAtが設定されていない")
		}
		if diff := cmp.Diff([]string{"orders"}, s.Catalog.Names()); diff != "" {
			t.Errorf("Names() mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"orders"}, s.Index.Names()); diff != "" {
			t.Errorf("Index.Names() mismatch (-want +got):\n%s", diff)
		}
		if s.Index.Config().URL != "/docs" {
			t.Errorf("Index.Config().URL = %q, want %q", s.Index.Config().URL, "/docs")
		}
		if len(s.Warnings) != 1 {
			t.Errorf("警告数 = %d, want 1", len(s.Warnings))
		}
	})

	t.Run("ルート定義を取得できない場合はErrRegistryUnavailableが返ること", func(t *testing.T) {
		t.Parallel()

		_, err := Init(context.Background(), failingLocator{}, testBuilder, "/docs")
		if !errors.Is(err, route.ErrRegistryUnavailable) {
			t.Errorf("ErrRegistryUnavailableが返るべき: %v", err)
		}
	})
}
