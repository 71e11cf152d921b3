package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	// Serve the OpenAPI spec from the file mounted at the root route.
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
