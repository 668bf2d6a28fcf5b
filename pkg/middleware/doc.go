// Package middleware はゲートウェイのGin HTTPサーバーで使用する共通ミドルウェアを提供する。
//
// リクエストIDの付与、パニックリカバリ、CORS設定、
// 管理APIのJWT認証を含む。
package middleware
