package gateway

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"

	"github.com/nao1215/docsgw/internal/apidocs"
	"github.com/nao1215/docsgw/internal/catalog"
	"github.com/nao1215/docsgw/pkg/httpclient"
	"github.com/nao1215/docsgw/pkg/metrics"
	"github.com/nao1215/docsgw/pkg/middleware"
)

// handleHealth はヘルスチェックのハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.store.Load()
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"service":         "docsgw",
			"catalog_version": snap.Version,
			"services":        snap.Catalog.Len(),
		})
	}
}

// handleServiceDocument はサービスのAPIドキュメントを取得し、
// servers をゲートウェイ経由のURLに書き換えて返すハンドラを返す。
func (s *Server) handleServiceDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		entry, err := s.store.Load().Catalog.Get(name)
		if errors.Is(err, catalog.ErrServiceNotFound) {
			s.metrics.ObserveFetch(metrics.ServiceUnknown, metrics.ResultNotFound, 0)
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s is not configured", name)})
			return
		}

		ctx := httpclient.WithRequestID(c.Request.Context(), middleware.GetRequestID(c))
		start := time.Now()
		doc, err := s.fetcher.Fetch(ctx, entry.DocsURL)
		if err != nil {
			status, result := fetchErrorStatus(err)
			s.metrics.ObserveFetch(name, result, time.Since(start))
			log.Printf("[Fetch] ドキュメントの取得に失敗: service=%s, url=%s, request_id=%s, error=%v",
				name, entry.DocsURL, middleware.GetRequestID(c), err)
			c.JSON(status, gin.H{"error": fmt.Sprintf("Get %s fail", entry.DocsURL)})
			return
		}
		s.metrics.ObserveFetch(name, metrics.ResultOK, time.Since(start))

		body, err := apidocs.Marshal(s.rewriter.Rewrite(doc, c.Request, entry.GatewayPath))
		if err != nil {
			log.Printf("[Fetch] ドキュメントのエンコードに失敗: service=%s, error=%v", name, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Get %s fail", entry.DocsURL)})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	}
}

// fetchErrorStatus は取得エラーに対応するHTTPステータスとメトリクスの結果ラベルを返す。
func fetchErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apidocs.ErrUpstreamBadResponse):
		return http.StatusBadGateway, metrics.ResultBadResponse
	case httpclient.IsTimeout(err):
		return http.StatusGatewayTimeout, metrics.ResultUnreachable
	default:
		return http.StatusBadGateway, metrics.ResultUnreachable
	}
}

// handleSelfDocument はゲートウェイ自身のOpenAPIドキュメントを返すハンドラを返す。
func (s *Server) handleSelfDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, host := s.rewriter.Origin(c.Request)
		doc := *s.selfDoc
		doc.Servers = openapi3.Servers{{URL: scheme + "://" + host}}
		c.JSON(http.StatusOK, &doc)
	}
}

// handleSwaggerConfig はSwagger UIの configUrl 形式のグループ一覧を返すハンドラを返す。
func (s *Server) handleSwaggerConfig() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.Load().Index.Config())
	}
}

// handleGetCatalog は公開中のカタログを返すハンドラを返す。
func (s *Server) handleGetCatalog() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.store.Load()
		c.JSON(http.StatusOK, gin.H{
			"version":  snap.Version,
			"built_at": snap.BuiltAt,
			"services": snap.Catalog.Entries(),
			"warnings": snap.Warnings,
		})
	}
}

// handleRefreshCatalog はカタログを再構築するハンドラを返す。
// ルート定義を取得できない場合は現在のカタログを維持して503を返す。
func (s *Server) handleRefreshCatalog() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.refresher.Refresh(c.Request.Context())
		if err != nil {
			log.Printf("[Refresh] カタログの再構築に失敗: subject=%s, error=%v", middleware.GetSubject(c), err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ルート定義を取得できません"})
			return
		}
		log.Printf("[Refresh] カタログを再構築しました: subject=%s, version=%s", middleware.GetSubject(c), res.Snapshot.Version)
		c.JSON(http.StatusOK, gin.H{
			"version":  res.Snapshot.Version,
			"services": res.Snapshot.Catalog.Len(),
			"warnings": res.Snapshot.Warnings,
			"events":   res.Events,
		})
	}
}
