// Package main runs a demo WebSocket client for solve job progress.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type progressEvent struct {
	JobID      string  `json:"jobId"`
	Generation int     `json:"generation"`
	BestCost   float64 `json:"bestCost"`
	Vehicles   int     `json:"vehicles"`
	Done       bool    `json:"done"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Enqueue a small solve with prebuilt matrices
	body := []byte(`{
		"vehicleCapacity": 10,
		"customers": [
			{"id": 1, "demand": 4, "due": 300},
			{"id": 2, "demand": 4, "due": 300},
			{"id": 3, "demand": 4, "due": 300}
		],
		"distanceKm": [[0,2,3,4],[2,0,1,2],[3,1,0,1],[4,2,1,0]],
		"travelMin":  [[0,4,6,8],[4,0,2,4],[6,2,0,2],[8,4,2,0]],
		"ga": {"generations": 2000, "seed": 42}
	}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/jobs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var job struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		log.Fatal(err)
	}
	if job.ID == "" {
		log.Fatal("no job returned")
	}
	log.Printf("Job ID: %s", job.ID)

	// Connect WS for live progress
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/jobs/" + job.ID + "/progress/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	deadline := time.After(60 * time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt progressEvent
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- gen=%d best=%.2f vehicles=%d done=%v", evt.Generation, evt.BestCost, evt.Vehicles, evt.Done)
			if evt.Done {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-deadline:
		log.Printf("timed out waiting for completion")
	}
}
