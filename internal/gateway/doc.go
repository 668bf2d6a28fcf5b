// Package gateway はAPIドキュメント集約ゲートウェイのHTTPサーバーを提供する。
//
// サービスカタログに登録された各バックエンドのOpenAPIドキュメントを取得し、
// servers をゲートウェイ経由のURLに書き換えて /docs/{name} で返す。
// ゲートウェイ自身のドキュメント、Swagger UI用のグループ一覧、
// カタログの管理API、ヘルスチェック、メトリクスも公開する。
package gateway
