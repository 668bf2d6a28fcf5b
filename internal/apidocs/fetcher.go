package apidocs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nao1215/docsgw/pkg/httpclient"
)

var (
	// ErrUpstreamUnreachable はバックエンドに接続できない、またはタイムアウトしたことを表す。
	ErrUpstreamUnreachable = errors.New("バックエンドに接続できません")
	// ErrUpstreamBadResponse はバックエンドが2xx以外を返した、または応答がJSONオブジェクトでないことを表す。
	ErrUpstreamBadResponse = errors.New("バックエンドの応答が不正です")
)

// Document はAPIドキュメント（OpenAPI形式のJSONオブジェクト）。
type Document map[string]any

// documentJSON はドキュメントのデコードに使用する設定。数値の精度を保つためjson.Numberで受け取る。
var documentJSON = sonic.Config{
	UseNumber:      true,
	ValidateString: true,
}.Froze()

// DefaultFetchTimeout はドキュメント取得のデフォルトのタイムアウト。
const DefaultFetchTimeout = 5 * time.Second

// Marshal はドキュメントをJSONにエンコードする。
func Marshal(doc Document) ([]byte, error) {
	return documentJSON.Marshal(doc)
}

// defaultCacheSize はキャッシュ有効時のデフォルトの最大件数。
const defaultCacheSize = 128

// Fetcher はバックエンドからAPIドキュメントを取得する。
type Fetcher struct {
	// client はタイムアウト設定済みのHTTPクライアント。
	client *httpclient.Client
	// cache は取得済みドキュメントのキャッシュ。nilの場合は毎回取得する。
	cache *expirable.LRU[string, Document]
	// validate がtrueの場合、OpenAPI 3として妥当でないドキュメントを不正な応答として扱う。
	validate bool
}

// FetcherOption はFetcherの設定を変更する関数。
type FetcherOption func(*Fetcher)

// WithCache は取得済みドキュメントをttlの間キャッシュする。
// ttlが0以下の場合はキャッシュしない。
func WithCache(size int, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if ttl <= 0 {
			return
		}
		if size <= 0 {
			size = defaultCacheSize
		}
		f.cache = expirable.NewLRU[string, Document](size, nil, ttl)
	}
}

// WithValidation はOpenAPI 3ドキュメントとしての検証を有効にする。
func WithValidation() FetcherOption {
	return func(f *Fetcher) {
		f.validate = true
	}
}

// NewFetcher は新しいFetcherを生成する。
// タイムアウトはclientに設定されたものが使用される。
func NewFetcher(client *httpclient.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{client: client}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch はurlからAPIドキュメントを取得する。
//
// 接続失敗とタイムアウトは ErrUpstreamUnreachable、2xx以外のステータスと
// JSONオブジェクトとして解釈できない応答は ErrUpstreamBadResponse をラップして返す。
// 戻り値のDocumentはキャッシュと共有される場合があるため、呼び出し元で変更してはならない。
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	if f.cache != nil {
		if doc, ok := f.cache.Get(url); ok {
			return doc, nil
		}
	}

	body, err := f.client.Get(ctx, url)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamBadResponse, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnreachable, err)
	}

	var doc Document
	if err := documentJSON.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: JSONオブジェクトとして解釈できません: url=%s: %w", ErrUpstreamBadResponse, url, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: ドキュメントが空です: url=%s", ErrUpstreamBadResponse, url)
	}

	if f.validate {
		if err := validateOpenAPI(ctx, body); err != nil {
			return nil, fmt.Errorf("%w: url=%s: %w", ErrUpstreamBadResponse, url, err)
		}
	}

	if f.cache != nil {
		f.cache.Add(url, doc)
	}
	return doc, nil
}

// Purge はキャッシュをすべて破棄する。カタログの再構築時に呼び出す。
func (f *Fetcher) Purge() {
	if f.cache != nil {
		f.cache.Purge()
	}
}

// validateOpenAPI はbodyがOpenAPI 3ドキュメントとして妥当かを検証する。
func validateOpenAPI(ctx context.Context, body []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	t, err := loader.LoadFromData(body)
	if err != nil {
		return fmt.Errorf("OpenAPIドキュメントの読み込みに失敗: %w", err)
	}
	if err := t.Validate(ctx); err != nil {
		return fmt.Errorf("OpenAPIドキュメントの検証に失敗: %w", err)
	}
	return nil
}
