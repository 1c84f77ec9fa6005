package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nvsharma/courtlive/internal/audit"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func registerWSRoute(mux *http.ServeMux, hub *Hub, store HearingStore) {
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()

		// A client joining mid-hearing needs the day's docket before the
		// next live event arrives, so the snapshot goes out first.
		now := time.Now().UTC()
		date := now.Format("2006-01-02")
		hearings, err := store.GetHearingsByDate(date)
		if err != nil {
			log.Printf("ws docket snapshot error: %v", err)
		}
		if hearings == nil {
			hearings = []audit.Hearing{}
		}
		snapshot := HearingSnapshotEvent{
			Event:    newEvent("hearing_snapshot", now),
			Date:     date,
			Hearings: hearings,
		}
		payload, err := json.Marshal(snapshot)
		if err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, payload)
		}

		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)

		for msg := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	})
}
