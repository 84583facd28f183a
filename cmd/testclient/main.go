// Command testclient is a minimal smoke test for a running service: it
// opens a session, streams a few synthetic A-law frames and prints the
// transcript events that come back. No audio file needed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// 20ms of A-law at 8kHz is 160 bytes, one byte per sample.
const frameBytes = 160

type transcriptEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Seq  int64  `json:"seq"`
}

func main() {
	serverAddr := flag.String("server", "localhost:8080", "service host:port")
	sessionID := flag.String("session", "smoke-"+time.Now().Format("150405"), "Session ID")
	frames := flag.Int("frames", 10, "number of frames to send")
	flag.Parse()

	u := url.URL{
		Scheme:   "ws",
		Host:     *serverAddr,
		Path:     fmt.Sprintf("/ws/transcribe/%s", *sessionID),
		RawQuery: "user=testclient",
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected, sessionId=%s", *sessionID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev transcriptEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				log.Printf("Unparseable event: %s", msg)
				continue
			}
			log.Printf("[%s] seq=%d %q", ev.Type, ev.Seq, ev.Text)
		}
	}()

	// 0x55 is A-law digital silence.
	frame := make([]byte, frameBytes)
	for i := range frame {
		frame[i] = 0x55
	}

	for i := 0; i < *frames; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			log.Fatalf("failed to send frame: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	log.Printf("Sent %d frames", *frames)

	time.Sleep(500 * time.Millisecond)
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	log.Println("done")
}
