package gateway

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// swaggerUITemplate はSwagger UIのindex.htmlのテンプレート名。
const swaggerUITemplate = "swagger-ui.html"

//go:embed templates/*.html
var templates embed.FS

// loadTemplates はゲートウェイが描画するHTMLテンプレートを読み込む。
func loadTemplates() *template.Template {
	return template.Must(template.ParseFS(templates, "templates/*.html"))
}

// handleSwaggerUI はSwagger UIを返すハンドラを返す。
// index.htmlはグループ一覧（configUrl）を読み込むように描画し、
// それ以外の静的ファイルは swaggo/files から配信する。
func (s *Server) handleSwaggerUI() gin.HandlerFunc {
	assets := ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(DocsPrefix))
	return func(c *gin.Context) {
		switch c.Param("any") {
		case "", "/":
			c.Redirect(http.StatusMovedPermanently, "/swagger-ui/index.html")
		case "/index.html":
			c.HTML(http.StatusOK, swaggerUITemplate, gin.H{
				"Title":     "docsgw API Documentation",
				"ConfigURL": DocsPrefix + "/swagger-config",
			})
		default:
			assets(c)
		}
	}
}
