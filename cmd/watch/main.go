// watch - tail decode results from a running qrscan service
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type resultEvent struct {
	ScanID string `json:"scan_id"`
	Result struct {
		Text   string    `json:"text"`
		Format string    `json:"format"`
		At     time.Time `json:"at"`
	} `json:"result"`
}

func main() {
	addr := flag.String("addr", "localhost:8780", "qrscan service address")
	flag.Parse()

	url := fmt.Sprintf("ws://%s/ws/results", *addr)
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", url, err)
		os.Exit(1)
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.Close()
		os.Exit(0)
	}()

	fmt.Printf("👀 watching %s\n", url)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "connection lost: %v\n", err)
			os.Exit(1)
		}

		var ev resultEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		fmt.Printf("%s  %s  %s\n", ev.Result.At.Format("15:04:05"), ev.Result.Format, ev.Result.Text)
	}
}
