package apidocs

import (
	"net"
	"net/http"
	"strings"
)

// Rewriter はドキュメントのサーバーURLをゲートウェイのURLに書き換える。
type Rewriter struct {
	// TrustForwarded がtrueの場合、Forwarded / X-Forwarded-* ヘッダーから
	// クライアントが見ているスキームとホストを復元する。
	TrustForwarded bool
}

// Rewrite はdocのサーバーURLを、リクエストのスキーム・ホスト・ポートとgatewayPathから
// 組み立てたURLの1要素だけに置き換えたコピーを返す。docは変更しない。
//
// OpenAPI 3のドキュメントは servers を置き換える。Swagger 2.0のドキュメント
// （swagger フィールドを持つもの）は host / basePath / schemes を置き換える。
// 同じリクエストとパスで何度適用しても結果は変わらない。
func (rw Rewriter) Rewrite(doc Document, r *http.Request, gatewayPath string) Document {
	scheme, host := rw.Origin(r)

	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}

	if _, ok := doc["swagger"]; ok {
		out["host"] = host
		out["basePath"] = normalizePath(gatewayPath)
		out["schemes"] = []any{scheme}
		return out
	}

	// パスはエスケープしない。{version} などのテンプレートをそのまま残す。
	out["servers"] = []any{
		map[string]any{"url": scheme + "://" + host + normalizePath(gatewayPath)},
	}
	return out
}

// Origin はクライアントから見たスキームとホスト（ポートを含む）を返す。
// スキームのデフォルトポート（http:80, https:443）は省略する。
func (rw Rewriter) Origin(r *http.Request) (scheme, host string) {
	scheme = "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host = r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}

	if rw.TrustForwarded {
		scheme, host = applyForwarded(r.Header, scheme, host)
	}
	return scheme, stripDefaultPort(scheme, host)
}

// applyForwarded はForwarded（RFC 7239）とX-Forwarded-*ヘッダーを反映する。
// Forwardedが存在する場合はそちらを優先する。
// スキームを転送ヘッダーから取った場合、内部のポートは引き継がない。
func applyForwarded(h http.Header, scheme, host string) (string, string) {
	if fwd := h.Get("Forwarded"); fwd != "" {
		params := parseForwarded(fwd)
		if proto := params["proto"]; proto != "" {
			scheme = strings.ToLower(proto)
			host = withoutPort(host)
		}
		if fwdHost := params["host"]; fwdHost != "" {
			host = fwdHost
		}
		return scheme, host
	}

	if proto := firstValue(h.Get("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(proto)
		host = withoutPort(host)
	}
	if fwdHost := firstValue(h.Get("X-Forwarded-Host")); fwdHost != "" {
		host = fwdHost
	}
	if port := firstValue(h.Get("X-Forwarded-Port")); port != "" {
		host = net.JoinHostPort(hostname(host), port)
	}
	return scheme, host
}

// parseForwarded はForwardedヘッダーの最初の要素をパースする。
// 例: `for=192.0.2.60;proto=https;host="gw.example.com"`
func parseForwarded(value string) map[string]string {
	first, _, _ := strings.Cut(value, ",")
	params := make(map[string]string)
	for _, pair := range strings.Split(first, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		params[strings.ToLower(strings.TrimSpace(k))] = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return params
}

// firstValue はカンマ区切りのヘッダー値の最初の要素を返す。
func firstValue(value string) string {
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}

// hostname はポートを除いたホスト名を返す。IPv6アドレスの角括弧は除去される。
func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}

// withoutPort はホストからポートを除去する。IPv6アドレスの角括弧は保持する。
func withoutPort(host string) string {
	h := hostname(host)
	if strings.Contains(h, ":") {
		return "[" + h + "]"
	}
	return h
}

// stripDefaultPort はスキームのデフォルトポートをホストから除去する。
func stripDefaultPort(scheme, host string) string {
	_, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return host[:strings.LastIndex(host, ":")]
	}
	return host
}

// normalizePath はパスが "/" で始まるようにする。
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
