package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const verboseBody = `{
  "task": "transcribe",
  "language": "thai",
  "duration": 2.0,
  "text": "ขอบคุณที่รับชม สวัสดีครับ",
  "segments": [
    {"id": 0, "start": 0.0, "end": 1.0, "text": " ขอบคุณที่รับชม", "no_speech_prob": 0.93},
    {"id": 1, "start": 1.0, "end": 2.0, "text": " สวัสดีครับ", "no_speech_prob": 0.05}
  ]
}`

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// setup returns an existing audio file and an env file path that does not exist.
func setup(t *testing.T) (audio, envFile string) {
	t.Helper()
	dir := t.TempDir()
	audio = filepath.Join(dir, "chunk.webm")
	if err := os.WriteFile(audio, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return audio, filepath.Join(dir, "missing.env")
}

func runCLI(t *testing.T, env map[string]string, argv ...string) (string, int) {
	t.Helper()
	var stdout bytes.Buffer
	code := run(argv, &stdout, io.Discard, envMap(env))
	return stdout.String(), code
}

func TestRunUsageErrors(t *testing.T) {
	audio, envFile := setup(t)

	tests := []struct {
		name string
		env  map[string]string
		argv []string
		want string
	}{
		{
			name: "no arguments",
			argv: []string{"-e", envFile},
			want: `{"success":false,"error":"Usage: transcribe <audio_file_path> [api_key]"}`,
		},
		{
			name: "missing file",
			argv: []string{"-e", envFile, "/nonexistent/nope.webm", "sk-test"},
			want: `{"success":false,"error":"File not found: /nonexistent/nope.webm"}`,
		},
		{
			name: "no api key",
			argv: []string{"-e", envFile, audio},
			want: `{"success":false,"error":"OPENAI_API_KEY not set and no api_key argument given"}`,
		},
		{
			name: "empty api key in env",
			env:  map[string]string{"OPENAI_API_KEY": "  "},
			argv: []string{"-e", envFile, audio},
			want: `{"success":false,"error":"OPENAI_API_KEY not set and no api_key argument given"}`,
		},
		{
			name: "threshold out of range",
			argv: []string{"-e", envFile, "-t", "2", audio, "sk-test"},
			want: `{"success":false,"error":"threshold must be within [0, 1], got 2"}`,
		},
		{
			name: "unknown backend",
			argv: []string{"-e", envFile, "--backend", "cloud", audio, "sk-test"},
			want: `{"success":false,"error":"backend must be \"openai\" or \"whisper\", got \"cloud\""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := runCLI(t, tt.env, tt.argv...)
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if got := strings.TrimSuffix(out, "\n"); got != tt.want {
				t.Errorf("stdout = %s, want %s", got, tt.want)
			}
			if strings.Count(out, "\n") != 1 {
				t.Errorf("stdout should hold exactly one JSON line, got %q", out)
			}
		})
	}
}

func TestRunUnknownFlag(t *testing.T) {
	out, code := runCLI(t, nil, "--bogus")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(out, `{"success":false,"error":"unknown flag: --bogus"`) {
		t.Errorf("stdout = %s", out)
	}
}

func TestRunHelp(t *testing.T) {
	out, code := runCLI(t, nil, "--help")
	if code != 0 || out != "" {
		t.Errorf("--help: exit code = %d, stdout = %q; want 0 and nothing", code, out)
	}
}

func fakeAPI(t *testing.T, status int, body string, auth *string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func TestRunSuccess(t *testing.T) {
	audio, envFile := setup(t)
	var auth string
	base := fakeAPI(t, http.StatusOK, verboseBody, &auth)

	out, code := runCLI(t, nil, "-e", envFile, "--base-url", base, audio, "sk-arg")
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if want := `{"success":true,"text":"สวัสดีครับ","language":"th"}` + "\n"; out != want {
		t.Errorf("stdout = %s, want %s", out, want)
	}
	if auth != "Bearer sk-arg" {
		t.Errorf("Authorization = %q, want the positional key", auth)
	}
}

func TestRunKeyFromEnv(t *testing.T) {
	audio, envFile := setup(t)
	var auth string
	base := fakeAPI(t, http.StatusOK, verboseBody, &auth)

	_, code := runCLI(t, map[string]string{"OPENAI_API_KEY": "sk-env"}, "-e", envFile, "--base-url", base, audio)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if auth != "Bearer sk-env" {
		t.Errorf("Authorization = %q, want the env key", auth)
	}

	runCLI(t, map[string]string{"OPENAI_API_KEY": "sk-env"}, "-e", envFile, "--base-url", base, audio, "sk-arg")
	if auth != "Bearer sk-arg" {
		t.Errorf("Authorization = %q, want the positional key to win", auth)
	}
}

func TestRunServiceFailure(t *testing.T) {
	audio, envFile := setup(t)
	base := fakeAPI(t, http.StatusUnauthorized,
		`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`, nil)

	out, code := runCLI(t, nil, "-e", envFile, "--base-url", base, audio, "sk-bad")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(out, `{"success":false,"error":"`) || !strings.Contains(out, "401") {
		t.Errorf("stdout = %s, want a failure carrying the 401", out)
	}
	if strings.Contains(out, `"text"`) {
		t.Errorf("failure should not carry text: %s", out)
	}
}
