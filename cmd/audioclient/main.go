// Command audioclient streams a WAV file to a running service over
// websocket and prints the transcript events it gets back. Useful for
// exercising the full pipeline by hand.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// Stream audio in chunks to simulate real-time streaming.
// At 8kHz 16-bit mono = 16000 bytes/second, so 100ms chunks = 1600 bytes.
const chunkSize = 1600
const chunkIntervalMs = 100

type transcriptEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Seq  int64  `json:"seq"`
}

func main() {
	audioFile := flag.String("audio", "testdata/sample-8khz.wav", "Path to WAV file (8kHz 16-bit mono PCM)")
	serverAddr := flag.String("server", "localhost:8080", "service host:port")
	sessionID := flag.String("session", "test-audio-"+time.Now().Format("150405"), "Session ID")
	userID := flag.String("user", "audioclient", "User ID")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}

	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}
	if sampleRate != 8000 {
		log.Printf("Warning: Sample rate is %d Hz, expected 8000 Hz", sampleRate)
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *serverAddr,
		Path:     fmt.Sprintf("/ws/transcribe/%s", *sessionID),
		RawQuery: url.Values{"user": {*userID}}.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", u.String(), err)
	}
	defer conn.Close()

	log.Printf("Streaming audio: sessionId=%s userId=%s", *sessionID, *userID)

	// Print transcript events as they arrive.
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

	audioChunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(audioChunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		if err := conn.WriteMessage(websocket.BinaryMessage, audioChunk[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}

		if chunkNum%10 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		// Simulate real-time streaming
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}

	elapsed := time.Since(startTime)
	log.Printf("Finished streaming: %d chunks, %d bytes in %v", chunkNum, totalBytes, elapsed)

	// Give in-flight events a moment to land, then close cleanly.
	time.Sleep(500 * time.Millisecond)
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	log.Printf("Session %s finished", *sessionID)
}
