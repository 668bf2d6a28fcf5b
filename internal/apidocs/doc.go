// Package apidocs はバックエンドサービスのAPIドキュメントの取得と書き換えを行う。
//
// Fetcher はドキュメントをHTTPで取得し、JSONオブジェクトとしてデコードする。
// Rewriter はドキュメントが宣言するサーバーURLを、ゲートウェイ経由で
// 到達できるURLに書き換える。書き換えはリクエストのホストに依存するため、
// リクエストごとに行う。
package apidocs
