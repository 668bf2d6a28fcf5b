// Package event はサービスカタログの変更を表すイベントを提供する。
//
// カタログの再構築時に、前回のカタログとの差分がイベントとして生成される。
// イベントは不変であり、ログ出力と管理APIのレスポンスに使用する。
package event

import (
	"encoding/json"
	"time"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeServiceRegistered はサービスがカタログに追加されたことを表す。
	TypeServiceRegistered Type = "ServiceRegistered"
	// TypeServiceUpdated はサービスのゲートウェイパスまたはドキュメントURLが変わったことを表す。
	TypeServiceUpdated Type = "ServiceUpdated"
	// TypeServiceDeregistered はサービスがカタログから削除されたことを表す。
	TypeServiceDeregistered Type = "ServiceDeregistered"
)

// Event はカタログ変更の不変レコードを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Service は対象サービスの名前。
	Service string `json:"service"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CatalogVersion はイベントを生成したカタログのバージョン。
	CatalogVersion string `json:"catalog_version"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// ServiceData はServiceRegistered/ServiceDeregisteredイベントのデータ。
type ServiceData struct {
	// GatewayPath はゲートウェイ上の公開パス。
	GatewayPath string `json:"gateway_path"`
	// DocsURL はドキュメントの取得先URL。
	DocsURL string `json:"docs_url"`
	// RouteID は元になったルート定義のID。
	RouteID string `json:"route_id"`
}

// ServiceUpdatedData はServiceUpdatedイベントのデータ。
type ServiceUpdatedData struct {
	// Before は変更前の値。
	Before ServiceData `json:"before"`
	// After は変更後の値。
	After ServiceData `json:"after"`
}
