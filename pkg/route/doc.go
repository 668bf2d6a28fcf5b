// Package route は外部ルーター（API Gateway本体）が保持するルート定義を読み取るクライアントを提供する。
//
// ルート定義はルーターが管理するものであり、このパッケージは読み取りのみを行う。
// 取得元はURLで指定し、次の3種類をサポートする。
//
//   - file://   YAMLファイル（ルーターの設定ファイルと同じ routes: 形式）
//   - http(s):// ルーターの管理API（ルート定義一覧をJSONで返すエンドポイント）
//   - sqlite:// ルート定義を格納したSQLiteデータベース
//
// 取得に失敗した場合は ErrRegistryUnavailable をラップしたエラーを返す。
package route
