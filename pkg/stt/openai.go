package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

// OpenAI transcribes files through the audio transcription endpoint.
type OpenAI struct {
	client openai.Client
	log    *log.Logger
}

func NewOpenAI(apiKey string, logger *log.Logger, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = log.Default()
	}

	logger.Debug("Initializing OpenAI client")

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{
		client: openai.NewClient(opts...),
		log:    logger,
	}, nil
}

func (o *OpenAI) Close() error { return nil }

// verboseResponse mirrors the verbose_json body; whisper-1 is the only model
// that returns per-segment no_speech_prob.
type verboseResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		Text         string  `json:"text"`
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

func (o *OpenAI) TranscribeFile(ctx context.Context, path string, opt Options) (Result, error) {
	opt = opt.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           f,
		Model:          openai.AudioModel(opt.Model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if supportsVerbose(opt.Model) {
		params.ResponseFormat = openai.AudioResponseFormatVerboseJSON
	}
	if opt.Language != "" {
		params.Language = openai.String(opt.Language)
	}
	if opt.Prompt != "" {
		params.Prompt = openai.String(opt.Prompt)
	}
	if opt.Temperature > 0 {
		params.Temperature = openai.Float(opt.Temperature)
	}

	o.log.Info("Transcribing audio", "path", path, "model", opt.Model, "language", opt.Language)

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			o.log.Error("Transcription request failed", "status", apierr.StatusCode, "err", err)
		}
		return Result{}, fmt.Errorf("create transcription: %w", err)
	}

	res, err := decodeVerbose(resp.RawJSON())
	if err != nil {
		o.log.Warn("Failed to decode segments, using flat text", "err", err)
		res = Result{Text: resp.Text}
	}
	if opt.Language != "" {
		res.Language = opt.Language
	}

	o.log.Debug("Transcribed", "text", res.Text, "segments", len(res.Segments))
	return res, nil
}

func decodeVerbose(raw string) (Result, error) {
	if raw == "" {
		return Result{}, errors.New("empty response body")
	}

	var v verboseResponse
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Result{}, fmt.Errorf("unmarshal transcription: %w", err)
	}

	res := Result{
		Text:     strings.TrimSpace(v.Text),
		Language: LanguageCode(v.Language),
	}
	if v.Segments == nil {
		return res, nil
	}

	res.Segments = make([]Segment, 0, len(v.Segments))
	for _, s := range v.Segments {
		res.Segments = append(res.Segments, Segment{
			Text:         s.Text,
			StartSec:     s.Start,
			EndSec:       s.End,
			NoSpeechProb: s.NoSpeechProb,
		})
	}
	return res, nil
}

func supportsVerbose(model string) bool {
	return strings.HasPrefix(model, "whisper")
}
