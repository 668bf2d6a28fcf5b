package route

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrRegistryUnavailable はルーターからルート定義を取得できないことを表す。
// 起動時に発生した場合は致命的エラーとして扱う。
var ErrRegistryUnavailable = errors.New("ルートレジストリに接続できません")

// Locator は現在有効なルート定義の一覧を返す。
type Locator interface {
	// ListRoutes はルーターの現在のルート定義を返す。呼び出し元をブロックする。
	ListRoutes(ctx context.Context) ([]Definition, error)
}

// OpenOptions はOpenの動作を調整するオプション。
type OpenOptions struct {
	// Timeout はHTTPロケーターのリクエストタイムアウト。
	Timeout time.Duration
}

// Open はsourceのスキームに応じたLocatorを生成する。
//
//	file:///etc/docsgw/routes.yaml
//	http://router:8080/actuator/gateway/routedefinitions
//	sqlite:///data/routes.db
func Open(source string, opts OpenOptions) (Locator, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("ルート取得元のURLが不正です: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return NewFileLocator(filePath(u)), nil
	case "http", "https":
		return NewHTTPLocator(source, opts.Timeout), nil
	case "sqlite":
		return OpenSQLiteLocator(filePath(u))
	default:
		return nil, fmt.Errorf("未対応のルート取得元です: %q", source)
	}
}

// filePath はfile://やsqlite://のURLからパスを取り出す。
// "file://routes.yaml" のような相対パス表記も受け付ける。
func filePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

// StaticLocator は固定のルート定義を返すLocator。テストや組み込み用途で使用する。
type StaticLocator []Definition

// ListRoutes はルート定義のコピーを返す。
func (s StaticLocator) ListRoutes(_ context.Context) ([]Definition, error) {
	routes := make([]Definition, len(s))
	copy(routes, s)
	return routes, nil
}
