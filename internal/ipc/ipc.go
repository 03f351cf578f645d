// Package ipc carries one JSON request and one JSON response per connection
// over a unix socket between transcribe-ctl and transcribe-daemon.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"time"
)

// readTimeout bounds how long a connection may take to send its request.
var readTimeout = 10 * time.Second

type Request struct {
	Cmd     string `json:"cmd"` // "transcribe" or "ping"
	Path    string `json:"path,omitempty"`
	Session string `json:"session,omitempty"`
}

type Handler func(ctx context.Context, req Request) any

// Listen removes a stale socket at path and listens on it.
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return ln, nil
}

// Serve accepts connections until ctx is done, handling each on its own
// goroutine.
func Serve(ctx context.Context, ln net.Listener, handler Handler) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Warn("Accept failed", "err", err)
			continue
		}
		go handleConn(ctx, conn, handler)
	}
}

func handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("Bad request", "err", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	enc := json.NewEncoder(conn)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(handler(ctx, req)); err != nil {
		log.Warn("Failed to write response", "err", err)
	}
}

// Send delivers req to the daemon at path and returns its raw JSON response.
func Send(ctx context.Context, path string, req Request) (json.RawMessage, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp json.RawMessage
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}
