package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nao1215/docsgw/pkg/event"
	"github.com/nao1215/docsgw/pkg/metrics"
	"github.com/nao1215/docsgw/pkg/route"
	"golang.org/x/sync/singleflight"
)

// Store は現在公開中のスナップショットを保持する。
// Loadはロックなしで呼び出せる。
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore は初期スナップショットを保持するStoreを生成する。
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Load は現在のスナップショットを返す。
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Swap はスナップショットを差し替え、前回のカタログとの差分をイベントとして返す。
func (s *Store) Swap(next *Snapshot) []*event.Event {
	prev := s.current.Swap(next)
	var prevCatalog *Catalog
	if prev != nil {
		prevCatalog = prev.Catalog
	}
	return Diff(prevCatalog, next.Catalog, next.Version)
}

// Diff はbeforeからafterへの変更をサービス名順のイベントとして返す。
func Diff(before, after *Catalog, version string) []*event.Event {
	var events []*event.Event
	add := func(name string, t event.Type, data any) {
		ev, err := event.New(name, t, version, data)
		if err != nil {
			log.Printf("[Catalog] イベント生成に失敗: service=%s, error=%v", name, err)
			return
		}
		events = append(events, ev)
	}

	for _, e := range after.Entries() {
		old, ok := before.Lookup(e.Name)
		switch {
		case !ok:
			add(e.Name, event.TypeServiceRegistered, serviceData(e))
		case old.GatewayPath != e.GatewayPath || old.DocsURL != e.DocsURL || old.RouteID != e.RouteID:
			add(e.Name, event.TypeServiceUpdated, event.ServiceUpdatedData{Before: serviceData(old), After: serviceData(e)})
		}
	}
	for _, e := range before.Entries() {
		if _, ok := after.Lookup(e.Name); !ok {
			add(e.Name, event.TypeServiceDeregistered, serviceData(e))
		}
	}
	return events
}

// serviceData はEntryをイベントデータに変換する。
func serviceData(e Entry) event.ServiceData {
	return event.ServiceData{GatewayPath: e.GatewayPath, DocsURL: e.DocsURL, RouteID: e.RouteID}
}

// RefreshResult はRefreshの結果。
type RefreshResult struct {
	// Snapshot は新しく公開されたスナップショット。
	Snapshot *Snapshot
	// Events は前回のカタログとの差分。
	Events []*event.Event
}

// Refresher はルート定義を取得し直してカタログを再構築する。
// 同時に呼び出された再構築は1回にまとめられる。
type Refresher struct {
	store      *Store
	locator    route.Locator
	builder    Builder
	docsPrefix string
	metrics    *metrics.Metrics
	group      singleflight.Group
	// onRefresh は公開に成功した後に呼び出される。
	onRefresh func(*RefreshResult)
}

// NewRefresher は新しいRefresherを生成する。mはnilでもよい。
func NewRefresher(store *Store, locator route.Locator, b Builder, docsPrefix string, m *metrics.Metrics) *Refresher {
	return &Refresher{
		store:      store,
		locator:    locator,
		builder:    b,
		docsPrefix: docsPrefix,
		metrics:    m,
	}
}

// OnRefresh は再構築の成功後に呼び出す関数を設定する。Runの開始前に呼び出すこと。
func (r *Refresher) OnRefresh(fn func(*RefreshResult)) {
	r.onRefresh = fn
}

// Refresh はカタログを再構築して公開する。
// ルート定義を取得できない場合は現在のスナップショットを維持したままエラーを返す。
func (r *Refresher) Refresh(ctx context.Context) (*RefreshResult, error) {
	v, err, _ := r.group.Do("refresh", func() (any, error) {
		next, err := Init(ctx, r.locator, r.builder, r.docsPrefix)
		if err != nil {
			r.metrics.ObserveRefresh("error")
			return nil, err
		}
		events := r.store.Swap(next)
		for _, ev := range events {
			log.Printf("[Refresh] %s: service=%s, version=%s", ev.EventType, ev.Service, ev.CatalogVersion)
		}
		r.metrics.ObserveRefresh("ok")
		r.metrics.ObserveCatalog(next.Catalog.Len(), len(next.Warnings))
		res := &RefreshResult{Snapshot: next, Events: events}
		if r.onRefresh != nil {
			r.onRefresh(res)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RefreshResult), nil
}

// Run はintervalごとにRefreshを実行する。ctxがキャンセルされるまで戻らない。
// 再構築の失敗はログに出力し、次の周期で再試行する。
func (r *Refresher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("再構築の間隔が不正です: %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[Refresh] カタログの再構築に失敗: %v", err)
			}
		}
	}
}
