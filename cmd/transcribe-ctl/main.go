package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/Knarf49/leganizebackend/internal/config"
	"github.com/Knarf49/leganizebackend/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", config.DefaultSocket, "Daemon socket")
	session := cli.String("session", "", "Session id for context across chunks")
	ping := cli.Bool("ping", false, "Check that the daemon is up")
	timeout := cli.Duration("timeout", 3*time.Minute, "Request timeout")
	cli.Parse()

	req := ipc.Request{Cmd: "transcribe", Session: *session}
	if *ping {
		req.Cmd = "ping"
	} else {
		if cli.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Usage: transcribe-ctl [--session id] <audio_file_path>")
			os.Exit(1)
		}
		path, err := filepath.Abs(cli.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		req.Path = path
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := ipc.Send(ctx, *socket, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "transcribe-daemon not running:", err)
		os.Exit(1)
	}
	fmt.Println(string(resp))

	var res struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(resp, &res); err != nil || !res.Success {
		os.Exit(1)
	}
}
