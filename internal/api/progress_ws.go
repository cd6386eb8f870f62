package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fleetplan/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// ProgressWSHandler streams progress events for one job over a
// WebSocket. The server pushes; the read loop only services pongs and
// detects the peer going away.
func (s *Server) ProgressWSHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.Store.GetJob(r.Context(), id)
	if err != nil {
		s.notFoundOr500(w, r, err, "Job not found")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Terminal event for jobs that already finished.
	if job.Status == model.JobDone || job.Status == model.JobFailed {
		evt := model.ProgressEvent{JobID: id, Done: true}
		if job.Solution != nil {
			evt.BestCost = job.Solution.Cost
			evt.Vehicles = job.Solution.Vehicles
			evt.Generation = job.Solution.FoundAtGen
		}
		_ = conn.WriteJSON(evt)
		return
	}

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
			if evt.Done {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
