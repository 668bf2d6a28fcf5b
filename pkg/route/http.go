package route

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/docsgw/pkg/httpclient"
)

// defaultRegistryTimeout はルーター管理APIへのリクエストのデフォルトタイムアウト。
const defaultRegistryTimeout = 10 * time.Second

// HTTPLocator はルーターの管理APIからルート定義を取得するLocator。
type HTTPLocator struct {
	// client はルーター管理API用のHTTPクライアント。
	client *httpclient.Client
	// endpoint はルート定義一覧を返すエンドポイントのURL。
	endpoint string
}

// NewHTTPLocator は新しいHTTPLocatorを生成する。
// timeoutが0以下の場合はデフォルト値（10秒）を使用する。
func NewHTTPLocator(endpoint string, timeout time.Duration) *HTTPLocator {
	if timeout <= 0 {
		timeout = defaultRegistryTimeout
	}
	return &HTTPLocator{
		client:   httpclient.New(httpclient.WithTimeout(timeout)),
		endpoint: endpoint,
	}
}

// ListRoutes は管理APIを呼び出してルート定義を返す。
func (l *HTTPLocator) ListRoutes(ctx context.Context) ([]Definition, error) {
	var routes []Definition
	if err := l.client.GetJSON(ctx, l.endpoint, &routes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	return routes, nil
}
