package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/docsgw/internal/catalog"
	"github.com/nao1215/docsgw/pkg/route"
)

// testRoutesYAML はテスト用のルート定義ファイル。
const testRoutesYAML = `routes:
  - id: orders-svc
    uri: http://orders:8080
    predicates:
      - Path=/orders/**
  - id: users-service
    uri: http://users:8080
    predicates:
      - Path=/users/**
`

// newTestStore はYAMLを取り込んだ一時ディレクトリのルートストアを生成する。
func newTestStore(t *testing.T) *route.SQLiteLocator {
	t.Helper()

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "routes.yaml")
	if err := os.WriteFile(yamlPath, []byte(testRoutesYAML), 0o600); err != nil {
		t.Fatalf("YAMLの書き込みに失敗: %v", err)
	}
	store, err := route.OpenSQLiteLocator(filepath.Join(dir, "routes.db"))
	if err != nil {
		t.Fatalf("ルートストアを開けません: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := importRoutes(context.Background(), store, yamlPath); err != nil {
		t.Fatalf("importRoutes()でエラーが発生: %v", err)
	}
	return store
}

// findLine はoutからprefixで始まる行を返す。
func findLine(out, prefix string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	return ""
}

// TestListRoutes はルート定義の一覧表示を検証する。
func TestListRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		builder    catalog.Builder
		wantOrders []string
		wantUsers  []string
	}{
		{
			name:       "デフォルトの接尾辞では-serviceのルートだけがサービスになること",
			builder:    catalog.NewBuilder("", ""),
			wantOrders: []string{"orders-svc", "/orders/**", "-"},
			wantUsers:  []string{"users-service", "users", "http://users:8080/v3/api-docs"},
		},
		{
			name:       "指定した接尾辞とドキュメントのパスが使われること",
			builder:    catalog.NewBuilder("-svc", "/openapi.json"),
			wantOrders: []string{"orders-svc", "orders", "http://orders:8080/openapi.json"},
			wantUsers:  []string{"users-service", "-"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newTestStore(t)
			var out bytes.Buffer
			if err := listRoutes(context.Background(), &out, store, tt.builder); err != nil {
				t.Fatalf("listRoutes()でエラーが発生: %v", err)
			}

			for prefix, wants := range map[string][]string{"orders-svc": tt.wantOrders, "users-service": tt.wantUsers} {
				fields := strings.Fields(findLine(out.String(), prefix))
				for _, want := range wants {
					if !slices.Contains(fields, want) {
						t.Errorf("%s の行 %v に %q が含まれない", prefix, fields, want)
					}
				}
			}
		})
	}
}
