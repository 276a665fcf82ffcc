package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	// Called back by QStash, or by an operator to kick off polling by hand.
	mux.Handle("POST /v1/internal/jobs/fixture-tick", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFixtureTick)))
	mux.Handle("POST /v1/internal/jobs/fixture-start", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.StartFixture)))
	mux.Handle("POST /v1/internal/jobs/fixture-batch", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFixtureBatch)))
	mux.Handle("GET /v1/internal/jobs/fixtures/{fixtureID}/dispatches", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListFixtureDispatches)))
}
