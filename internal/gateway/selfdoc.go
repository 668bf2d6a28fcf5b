package gateway

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// securitySchemeName は管理APIの認証方式の名前。
const securitySchemeName = "bearerAuth"

// newSelfDocument はゲートウェイ自身のOpenAPIドキュメントを生成する。
// adminEnabledがfalseの場合は管理APIを含めない。
func newSelfDocument(docsPrefix string, adminEnabled bool) *openapi3.T {
	errorSchema := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema())
	errorResponse := func(desc string) *openapi3.Response {
		return openapi3.NewResponse().WithDescription(desc).WithJSONSchema(errorSchema)
	}

	getDoc := openapi3.NewOperation()
	getDoc.OperationID = "getServiceDocument"
	getDoc.Summary = "Get the API document of a service"
	getDoc.Tags = []string{"docs"}
	getDoc.AddParameter(openapi3.NewPathParameter("name").
		WithDescription("Service name").
		WithSchema(openapi3.NewStringSchema()))
	getDoc.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("API document with servers pointing at the gateway").
		WithJSONSchema(openapi3.NewObjectSchema()))
	getDoc.AddResponse(http.StatusNotFound, errorResponse("Service is not configured"))
	getDoc.AddResponse(http.StatusBadGateway, errorResponse("Backend is unreachable or returned a bad response"))
	getDoc.AddResponse(http.StatusGatewayTimeout, errorResponse("Backend timed out"))

	groupSchema := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("url", openapi3.NewStringSchema())
	getConfig := openapi3.NewOperation()
	getConfig.OperationID = "getSwaggerConfig"
	getConfig.Summary = "List documentation groups"
	getConfig.Tags = []string{"docs"}
	getConfig.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Swagger UI configuration").
		WithJSONSchema(openapi3.NewObjectSchema().
			WithProperty("url", openapi3.NewStringSchema()).
			WithProperty("urls", openapi3.NewArraySchema().WithItems(groupSchema))))

	health := openapi3.NewOperation()
	health.OperationID = "getHealth"
	health.Summary = "Health check"
	health.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Gateway is running").
		WithJSONSchema(openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema())))

	paths := []openapi3.NewPathsOption{
		openapi3.WithPath(docsPrefix+"/{name}", &openapi3.PathItem{Get: getDoc}),
		openapi3.WithPath(docsPrefix+"/swagger-config", &openapi3.PathItem{Get: getConfig}),
		openapi3.WithPath("/health", &openapi3.PathItem{Get: health}),
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "docsgw",
			Description: "Aggregated API documentation of the services behind the gateway.",
			Version:     "1.0.0",
		},
	}

	if adminEnabled {
		entrySchema := openapi3.NewObjectSchema().
			WithProperty("name", openapi3.NewStringSchema()).
			WithProperty("gateway_path", openapi3.NewStringSchema()).
			WithProperty("docs_url", openapi3.NewStringSchema()).
			WithProperty("route_id", openapi3.NewStringSchema())
		security := &openapi3.SecurityRequirements{openapi3.NewSecurityRequirement().Authenticate(securitySchemeName)}

		listCatalog := openapi3.NewOperation()
		listCatalog.OperationID = "getCatalog"
		listCatalog.Summary = "Show the current service catalog"
		listCatalog.Tags = []string{"admin"}
		listCatalog.Security = security
		listCatalog.AddResponse(http.StatusOK, openapi3.NewResponse().
			WithDescription("Current catalog snapshot").
			WithJSONSchema(openapi3.NewObjectSchema().
				WithProperty("version", openapi3.NewStringSchema()).
				WithProperty("services", openapi3.NewArraySchema().WithItems(entrySchema))))
		listCatalog.AddResponse(http.StatusUnauthorized, errorResponse("Missing or invalid token"))

		refresh := openapi3.NewOperation()
		refresh.OperationID = "refreshCatalog"
		refresh.Summary = "Rebuild the service catalog from the route registry"
		refresh.Tags = []string{"admin"}
		refresh.Security = security
		refresh.AddResponse(http.StatusOK, openapi3.NewResponse().
			WithDescription("Catalog was rebuilt").
			WithJSONSchema(openapi3.NewObjectSchema().
				WithProperty("version", openapi3.NewStringSchema()).
				WithProperty("services", openapi3.NewIntegerSchema())))
		refresh.AddResponse(http.StatusUnauthorized, errorResponse("Missing or invalid token"))
		refresh.AddResponse(http.StatusServiceUnavailable, errorResponse("Route registry is unavailable"))

		paths = append(paths,
			openapi3.WithPath("/admin/catalog", &openapi3.PathItem{Get: listCatalog}),
			openapi3.WithPath("/admin/catalog/refresh", &openapi3.PathItem{Post: refresh}),
		)
		doc.Components = &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				securitySchemeName: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		}
	}

	doc.Paths = openapi3.NewPaths(paths...)
	return doc
}
