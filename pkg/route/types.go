package route

import (
	"fmt"
	"sort"
	"strings"
)

// PredicateNamePath はパスパターンでマッチングするプレディケートの名前。
const PredicateNamePath = "Path"

// generatedKeyPrefix はショートカット記法で生成される引数キーの接頭辞。
const generatedKeyPrefix = "_genkey_"

// Definition はルーターが保持する1件のルート定義を表す。
// このシステムはルート定義を変更しない。
type Definition struct {
	// ID はルートの識別子。バックエンドサービスの場合は "orders-service" のような名前になる。
	ID string `json:"id" yaml:"id"`
	// URI はバックエンドのベースアドレス。
	URI string `json:"uri" yaml:"uri"`
	// Predicates はマッチングルールの順序付きリスト。
	Predicates []Predicate `json:"predicates" yaml:"predicates"`
	// Order はルーター内での評価順序。カタログの構築には使用しない。
	Order int `json:"order,omitempty" yaml:"order,omitempty"`
}

// Predicate はルートのマッチングルールを表す。
type Predicate struct {
	// Name はプレディケートの種類（Path, Host, Method など）。
	Name string `json:"name" yaml:"name"`
	// Args は名前付き引数。ショートカット記法では _genkey_0, _genkey_1 ... が生成される。
	Args map[string]string `json:"args" yaml:"args"`
}

// ParsePredicate はショートカット記法のプレディケート文字列をパースする。
// 例: "Path=/orders/**,/legacy/orders/**"
func ParsePredicate(text string) (Predicate, error) {
	name, rawArgs, found := strings.Cut(strings.TrimSpace(text), "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return Predicate{}, fmt.Errorf("プレディケート名が空です: %q", text)
	}

	p := Predicate{Name: name, Args: map[string]string{}}
	if !found {
		return p, nil
	}
	for i, arg := range strings.Split(rawArgs, ",") {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		p.Args[fmt.Sprintf("%s%d", generatedKeyPrefix, i)] = arg
	}
	return p, nil
}

// FirstArg は引数キーの辞書順で最初の引数の値を返す。
// 引数が存在しない場合はfalseを返す。
func (p Predicate) FirstArg() (string, bool) {
	if len(p.Args) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(p.Args))
	for k := range p.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return p.Args[keys[0]], true
}

// PathPredicate は最初のPathプレディケートを返す。
func (d Definition) PathPredicate() (Predicate, bool) {
	for _, p := range d.Predicates {
		if strings.EqualFold(p.Name, PredicateNamePath) {
			return p, true
		}
	}
	return Predicate{}, false
}

// PathPattern は最初のPathプレディケートの最初の引数（パスパターン）を返す。
func (d Definition) PathPattern() (string, bool) {
	p, ok := d.PathPredicate()
	if !ok {
		return "", false
	}
	pattern, ok := p.FirstArg()
	if !ok || strings.TrimSpace(pattern) == "" {
		return "", false
	}
	return pattern, true
}
