package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrServiceNotFound は指定されたサービス名がカタログに存在しないことを表す。
var ErrServiceNotFound = errors.New("サービスがカタログに存在しません")

// Entry はカタログ内の1サービスを表す。
type Entry struct {
	// Name はサービス名。ルートIDからサービス接尾辞を除いたもの。
	Name string `json:"name"`
	// GatewayPath はゲートウェイ上の公開パス（例: "/orders"）。
	GatewayPath string `json:"gateway_path"`
	// DocsURL はバックエンドのAPIドキュメントのURL。
	DocsURL string `json:"docs_url"`
	// RouteID は元になったルート定義のID。
	RouteID string `json:"route_id"`
}

// Catalog はサービス名からEntryへの不変のマッピング。
// nilのCatalogは空のカタログとして振る舞う。
type Catalog struct {
	entries map[string]Entry
}

// New はentriesからCatalogを生成する。同じ名前は後のものが優先される。
func New(entries ...Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		c.entries[e.Name] = e
	}
	return c
}

// Lookup はサービス名に対応するEntryを返す。
func (c *Catalog) Lookup(name string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[name]
	return e, ok
}

// Get はサービス名に対応するEntryを返す。存在しない場合はErrServiceNotFoundをラップして返す。
func (c *Catalog) Get(name string) (Entry, error) {
	e, ok := c.Lookup(name)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s is not configured", ErrServiceNotFound, name)
	}
	return e, nil
}

// Len はサービス数を返す。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Names はサービス名を辞書順で返す。
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries はEntryをサービス名の辞書順で返す。
func (c *Catalog) Entries() []Entry {
	names := c.Names()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, c.entries[name])
	}
	return entries
}
