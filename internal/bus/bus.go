// Package bus publishes transcription results to a websocket hub so live
// listeners (dashboards, analyzers) receive each chunk as it is cleaned.
package bus

import (
	"encoding/json"
	log "log/slog"
	"sync"

	ws "github.com/gorilla/websocket"
)

type Message struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Kind    string          `json:"kind"`
	Content json.RawMessage `json:"content"`
}

// Bus is a single websocket connection guarded for concurrent writers.
type Bus struct {
	mu   sync.Mutex
	conn *ws.Conn
	url  string
	from string
}

func Dial(url, from string) (*Bus, error) {
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	log.Info("Connected to bus", "url", url)
	return &Bus{conn: conn, url: url, from: from}, nil
}

// Publish sends v as the content of a message addressed to "to". A failed
// write is retried once on a fresh connection.
func (b *Bus) Publish(to, kind string, v any) error {
	content, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Message{From: b.from, To: to, Kind: kind, Content: content})
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err = b.conn.WriteMessage(ws.TextMessage, data); err == nil {
		return nil
	}
	log.Warn("Bus write failed, reconnecting", "url", b.url, "err", err)

	conn, _, err := ws.DefaultDialer.Dial(b.url, nil)
	if err != nil {
		return err
	}
	b.conn.Close()
	b.conn = conn
	return b.conn.WriteMessage(ws.TextMessage, data)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return b.conn.Close()
}
