// Package main runs a demo WebSocket client for run events: it looks up the
// most recent run and tails its event stream.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

func main() {
	host := os.Getenv("OPS_ADDR")
	if host == "" {
		host = "localhost:9090"
	}

	// Find the latest run
	resp, err := http.Get("http://" + host + "/v1/runs")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var runsResp struct {
		Runs []struct {
			ID string `json:"id"`
		} `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&runsResp); err != nil {
		log.Fatal(err)
	}
	if len(runsResp.Runs) == 0 {
		log.Fatal("no runs yet")
	}
	runID := runsResp.Runs[0].ID
	log.Printf("Run ID: %s", runID)

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws/runs", RawQuery: "runId=" + url.QueryEscape(runID)}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	for {
		var evt struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		if err := c.ReadJSON(&evt); err != nil {
			log.Printf("stream closed: %v", err)
			return
		}
		log.Printf("%s %v", evt.Type, evt.Data)
	}
}
