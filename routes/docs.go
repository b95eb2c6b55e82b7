package routes

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPIDocument []byte

const openAPIPath = "/openapi.json"

func mountDocs(router chi.Router) {
	router.Get(openAPIPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openAPIDocument)
	})
	router.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(openAPIPath)))
}
