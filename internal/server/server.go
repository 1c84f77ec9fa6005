package server

import (
	"log"
	"net/http"
)

func Handler(hub *Hub, store HearingStore) http.Handler {
	mux := http.NewServeMux()

	registerWSRoute(mux, hub, store)
	registerAPIRoutes(mux, store)

	return mux
}

func Serve(addr string, hub *Hub, store HearingStore) error {
	log.Printf("court record API at http://%s", addr)
	return http.ListenAndServe(addr, Handler(hub, store))
}
