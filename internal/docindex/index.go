// Package docindex はドキュメントUI（Swagger UI）に表示するグループ一覧を保持する。
//
// サービスカタログの構築時に各サービスがグループとして登録され、
// ゲートウェイ自身のドキュメントがルートURLとして登録される。
// 一覧はSwagger UIの configUrl 形式のJSONとして公開される。
package docindex

import (
	"strings"
	"sync"
)

// Group はドキュメントUIに表示される1つのグループ。
type Group struct {
	// Name はグループ名（サービス名）。
	Name string `json:"name"`
	// URL はグループのドキュメントを返すURL。
	URL string `json:"url"`
}

// Config はSwagger UIの configUrl が返すJSONの形式。
type Config struct {
	// URL はデフォルトで表示するドキュメントのURL。
	URL string `json:"url,omitempty"`
	// URLs はグループ一覧。
	URLs []Group `json:"urls"`
}

// Index はドキュメントUIのグループ一覧。並行に読み書きできる。
type Index struct {
	mu sync.RWMutex
	// docsPrefix はグループのドキュメントURLの接頭辞（例: "/docs"）。
	docsPrefix string
	// rootURL はAddURLで登録されたデフォルトドキュメントのURL。
	rootURL string
	// groups は登録順のグループ一覧。
	groups []Group
}

// New は新しいIndexを生成する。
// グループのURLは docsPrefix + "/" + name になる。
func New(docsPrefix string) *Index {
	return &Index{docsPrefix: strings.TrimRight(docsPrefix, "/")}
}

// AddGroup はサービス名をグループとして登録する。登録済みの名前は無視する。
func (i *Index) AddGroup(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, g := range i.groups {
		if g.Name == name {
			return
		}
	}
	i.groups = append(i.groups, Group{Name: name, URL: i.docsPrefix + "/" + name})
}

// AddURL はデフォルトで表示するドキュメントのURLを登録する。
func (i *Index) AddURL(url string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.rootURL = url
}

// Config は現在の登録内容を返す。戻り値は呼び出し元で変更してよい。
func (i *Index) Config() Config {
	i.mu.RLock()
	defer i.mu.RUnlock()

	urls := make([]Group, len(i.groups))
	copy(urls, i.groups)
	return Config{URL: i.rootURL, URLs: urls}
}

// Names は登録されているグループ名を登録順に返す。
func (i *Index) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	names := make([]string, 0, len(i.groups))
	for _, g := range i.groups {
		names = append(names, g.Name)
	}
	return names
}
