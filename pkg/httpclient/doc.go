// Package httpclient はゲートウェイから外部サービスへのHTTP通信を行うクライアントを提供する。
//
// ルーター管理APIからのルート定義取得、各バックエンドサービスからの
// APIドキュメント取得など、外向きの通信パターンを統一する。
// タイムアウトは呼び出しごとに必ず設定される。
package httpclient
