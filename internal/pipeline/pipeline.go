// Package pipeline runs one transcription end to end: backend call,
// confidence filtering, cleanup and optional session history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/openai/openai-go/v3/option"

	"github.com/Knarf49/leganizebackend/internal/config"
	"github.com/Knarf49/leganizebackend/internal/history"
	"github.com/Knarf49/leganizebackend/internal/transcript"
	"github.com/Knarf49/leganizebackend/pkg/stt"
)

// Publisher receives every session result; the websocket bus implements it.
type Publisher interface {
	Publish(to, kind string, v any) error
}

type Pipeline struct {
	STT       stt.Transcriber
	Cleaner   *transcript.Cleaner
	Options   stt.Options
	History   history.Store // optional
	Publisher Publisher     // optional
	Log       *log.Logger

	sessions sessionLocks
}

// NewTranscriber builds the backend named by cfg.Backend.
func NewTranscriber(cfg *config.Config, httpClient *http.Client, logger *log.Logger) (stt.Transcriber, error) {
	switch cfg.Backend {
	case "whisper":
		w, err := stt.NewWhisper(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "openai":
		var opts []option.RequestOption
		if httpClient != nil {
			opts = append(opts, option.WithHTTPClient(httpClient))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		o, err := stt.NewOpenAI(cfg.APIKey, logger, opts...)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Run transcribes the file at path. Every failure is reported in the
// returned Result; nothing is returned as an error. A non-empty session
// enables context prompting and cross-chunk de-duplication; runs of the same
// session are serialized so each chunk sees the history of the one before.
func (p *Pipeline) Run(ctx context.Context, path, session string) Result {
	logger := p.logger().With("path", path)
	if session != "" {
		logger = logger.With("session", session)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Failure("File not found: " + path)
		}
		return Failure(err.Error())
	}

	if session != "" {
		defer p.sessions.lock(session)()
	}

	opts := p.Options
	previous := p.recent(ctx, logger, session)
	if session != "" && opts.Prompt == "" {
		opts.Prompt = transcript.ContextPrompt(previous)
	}

	raw, err := p.STT.TranscribeFile(ctx, path, opts)
	if err != nil {
		logger.Error("Transcription error", "err", err)
		return Failure(err.Error())
	}

	text, err := p.Cleaner.Process(raw.Text, raw.Segments)
	if err != nil {
		return Failure(err.Error())
	}

	if len(previous) > 0 {
		text = transcript.RemoveOverlap(previous[len(previous)-1], text)
		text = transcript.DedupAcrossChunks(text, previous)
	}
	if session != "" && p.History != nil && text != "" {
		if err := p.History.Append(ctx, session, text); err != nil {
			logger.Warn("Failed to store history", "err", err)
		}
	}

	lang := stt.LanguageCode(raw.Language)
	if p.Options.Language != "" {
		lang = p.Options.Language
	}
	res := Success(text, lang)

	if session != "" && p.Publisher != nil {
		if err := p.Publisher.Publish(session, "transcript", res); err != nil {
			logger.Warn("Failed to publish result", "err", err)
		}
	}

	logger.Info("Transcribed", "text", text)
	return res
}

func (p *Pipeline) recent(ctx context.Context, logger *log.Logger, session string) []string {
	if session == "" || p.History == nil {
		return nil
	}
	prev, err := p.History.Recent(ctx, session)
	if err != nil {
		logger.Warn("Failed to read history", "err", err)
		return nil
	}
	return prev
}

func (p *Pipeline) logger() *log.Logger {
	if p.Log == nil {
		return log.Default()
	}
	return p.Log
}

type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

// lock blocks until session is free and returns its unlock function.
// Entries are dropped once no run holds or waits for them.
func (s *sessionLocks) lock(session string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sessionLock)
	}
	l, ok := s.locks[session]
	if !ok {
		l = &sessionLock{}
		s.locks[session] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, session)
		}
		s.mu.Unlock()
	}
}
