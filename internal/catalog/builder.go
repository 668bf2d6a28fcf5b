package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/docsgw/internal/docindex"
	"github.com/nao1215/docsgw/pkg/route"
)

const (
	// DefaultServiceSuffix はバックエンドサービスのルートIDに付く接尾辞。
	DefaultServiceSuffix = "-service"
	// DefaultDocsPath はバックエンドのAPIドキュメントのパス。
	DefaultDocsPath = "/v3/api-docs"
)

// Warning はカタログ構築時に検出した設定上の問題。構築は中断しない。
type Warning struct {
	// RouteID は問題のあったルート定義のID。
	RouteID string `json:"route_id"`
	// Service は導出されたサービス名。導出前に問題が見つかった場合は空。
	Service string `json:"service,omitempty"`
	// Reason は問題の内容。
	Reason string `json:"reason"`
}

// String はログ出力用の文字列を返す。
func (w Warning) String() string {
	if w.Service == "" {
		return fmt.Sprintf("route=%s: %s", w.RouteID, w.Reason)
	}
	return fmt.Sprintf("route=%s service=%s: %s", w.RouteID, w.Service, w.Reason)
}

// Index はカタログの公開先となるドキュメントUIのグループ一覧。
type Index interface {
	// AddGroup はサービス名をグループとして登録する。
	AddGroup(name string)
	// AddURL はデフォルトで表示するドキュメントのURLを登録する。
	AddURL(url string)
}

// Builder はルート定義からカタログを構築する。
type Builder struct {
	// ServiceSuffix はバックエンドサービスとみなすルートIDの接尾辞。
	ServiceSuffix string
	// DocsPath はバックエンドのURIに付加するドキュメントのパス。
	DocsPath string
}

// NewBuilder はデフォルト設定で空の値を補ったBuilderを返す。
func NewBuilder(serviceSuffix, docsPath string) Builder {
	if serviceSuffix == "" {
		serviceSuffix = DefaultServiceSuffix
	}
	if docsPath == "" {
		docsPath = DefaultDocsPath
	}
	return Builder{ServiceSuffix: serviceSuffix, DocsPath: docsPath}
}

// Build はroutesからカタログを構築する。副作用はない。
// 設定に問題のあるルートはスキップし、Warningとして返す。
// 同じサービス名が複数回現れた場合は後のルートが優先され、Warningが追加される。
func (b Builder) Build(routes []route.Definition) (*Catalog, []Warning) {
	entries := make(map[string]Entry)
	var warnings []Warning

	for _, r := range routes {
		if !strings.HasSuffix(r.ID, b.ServiceSuffix) {
			continue
		}

		name := strings.TrimSuffix(r.ID, b.ServiceSuffix)
		if name == "" {
			warnings = append(warnings, Warning{RouteID: r.ID, Reason: "サービス名が空です"})
			continue
		}

		predicate, ok := r.PathPredicate()
		if !ok {
			warnings = append(warnings, Warning{RouteID: r.ID, Service: name, Reason: "Pathプレディケートがありません"})
			continue
		}
		pattern, ok := r.PathPattern()
		if !ok {
			warnings = append(warnings, Warning{
				RouteID: r.ID,
				Service: name,
				Reason:  fmt.Sprintf("%sプレディケートにパスパターンの引数がありません", predicate.Name),
			})
			continue
		}

		if prev, exists := entries[name]; exists {
			warnings = append(warnings, Warning{
				RouteID: r.ID,
				Service: name,
				Reason:  fmt.Sprintf("サービス名がルート %s と重複しています。後のルートで上書きします", prev.RouteID),
			})
		}

		entries[name] = Entry{
			Name:        name,
			GatewayPath: GatewayPath(pattern),
			DocsURL:     strings.TrimRight(r.URI, "/") + b.DocsPath,
			RouteID:     r.ID,
		}
	}

	return &Catalog{entries: entries}, warnings
}

// GatewayPath はパスパターンから末尾のワイルドカードを除いた公開パスを返す。
// "/orders/**" は "/orders"、"/**" は "/" になる。
func GatewayPath(pattern string) string {
	p := strings.TrimSpace(pattern)
	for _, wildcard := range []string{"/**", "/*"} {
		if strings.HasSuffix(p, wildcard) {
			p = strings.TrimSuffix(p, wildcard)
			break
		}
	}
	if p == "" {
		return "/"
	}
	return p
}

// Publish はカタログの全サービスをidxにグループとして登録し、
// selfURL（ゲートウェイ自身のドキュメント）をデフォルトURLとして登録する。
func Publish(idx Index, c *Catalog, selfURL string) {
	idx.AddURL(selfURL)
	for _, name := range c.Names() {
		idx.AddGroup(name)
	}
}

// Snapshot は公開単位となるカタログとドキュメントUIのグループ一覧の組。
type Snapshot struct {
	// Version はスナップショットの識別子（UUID）。
	Version string `json:"version"`
	// BuiltAt は構築日時。
	BuiltAt time.Time `json:"built_at"`
	// Catalog はサービスカタログ。
	Catalog *Catalog `json:"-"`
	// Index はドキュメントUIのグループ一覧。
	Index *docindex.Index `json:"-"`
	// Warnings は構築時の警告。
	Warnings []Warning `json:"warnings"`
}

// Init はルート定義を取得してカタログを構築し、新しいグループ一覧に公開したスナップショットを返す。
// 起動時に一度だけ呼び出す。ルート定義を取得できない場合は route.ErrRegistryUnavailable をラップしたエラーを返す。
// docsPrefix はゲートウェイのドキュメントエンドポイントのパス（例: "/docs"）。
func Init(ctx context.Context, locator route.Locator, b Builder, docsPrefix string) (*Snapshot, error) {
	routes, err := locator.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("ルート定義の取得に失敗: %w", err)
	}

	c, warnings := b.Build(routes)
	for _, w := range warnings {
		log.Printf("[Catalog] 警告: %s", w)
	}

	idx := docindex.New(docsPrefix)
	Publish(idx, c, docsPrefix)

	s := &Snapshot{
		Version:  uuid.New().String(),
		BuiltAt:  time.Now().UTC(),
		Catalog:  c,
		Index:    idx,
		Warnings: warnings,
	}
	log.Printf("[Catalog] カタログを構築しました: version=%s, routes=%d, services=%d, warnings=%d",
		s.Version, len(routes), c.Len(), len(warnings))
	return s, nil
}
