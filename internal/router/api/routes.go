package api

import (
	"github.com/evyataryagoni/cepcache/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures the /api routes
//
//	POST /api/cep        resolve the CEP in the JSON body
//	GET  /api/cep        list cached records
//	GET  /api/cep/{cep}  resolve the CEP in the path
func SetupRoutes(cepHandler *handler.CEPHandler) chi.Router {
	r := chi.NewRouter()

	r.Route("/cep", func(r chi.Router) {
		r.Post("/", cepHandler.Resolve)
		r.Get("/", cepHandler.List)
		r.Get("/{cep}", cepHandler.Get)
	})

	return r
}
