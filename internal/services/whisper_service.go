package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// WhisperService turns spoken donation intents ("donate 25 dollars to MEDA")
// into structured {charity, amount} pairs. Transcription degrades to a mock
// when no speech credentials are configured, same as every other unconfigured
// integration in this platform.
type WhisperService struct {
	client    *speech.Client
	charities map[string]struct{}
}

type TranscribeRequest struct {
	Audio        string `json:"audio" validate:"required"`
	Encoding     string `json:"encoding"`
	SampleRate   int    `json:"sample_rate"`
	LanguageCode string `json:"language_code"`
}

// DonationIntent is the parsed outcome of a transcript.
type DonationIntent struct {
	Charity    string  `json:"charity,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	Recognized bool    `json:"recognized"`
}

type IntentResponse struct {
	Transcript string         `json:"transcript"`
	Confidence float32        `json:"confidence"`
	Intent     DonationIntent `json:"intent"`
}

var intentPattern = regexp.MustCompile(`(?i)\b(?:donate|give|send)\s+\$?(\d+(?:\.\d+)?)\s*(?:dollars?|rlusd)?\s+to\s+([A-Za-z]+)\b`)

func NewWhisperService(charities []string) *WhisperService {
	set := make(map[string]struct{}, len(charities))
	for _, name := range charities {
		set[strings.ToUpper(name)] = struct{}{}
	}

	ctx := context.Background()
	client, err := speech.NewClient(ctx)
	if err != nil {
		log.Printf("Warning: Failed to initialize speech client: %v", err)
		return &WhisperService{client: nil, charities: set}
	}
	return &WhisperService{client: client, charities: set}
}

// VoiceIntent transcribes audio and extracts a donation intent
// @Summary Voice donation intent
// @Description Transcribe spoken audio and parse a donation intent from it
// @Tags donations
// @Accept json
// @Produce json
// @Param request body TranscribeRequest true "Audio payload"
// @Success 200 {object} IntentResponse
// @Failure 400 {object} ErrorResponse
// @Router /donate/voice-intent [post]
func (s *WhisperService) VoiceIntent(w http.ResponseWriter, r *http.Request) {
	maxBytes := 10 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TranscribeRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if req.Audio == "" {
		SendErrorResponse(w, "Audio is required", http.StatusBadRequest, nil)
		return
	}

	if req.Encoding == "" {
		req.Encoding = "LINEAR16"
	}
	if req.SampleRate == 0 {
		req.SampleRate = 16000
	}
	if req.LanguageCode == "" {
		req.LanguageCode = "en-US"
	}

	transcript, confidence, err := s.Transcribe(r.Context(), req)
	if err != nil {
		log.Printf("[WHISPER] Transcription failed: %v", err)
		SendErrorResponse(w, "Failed to transcribe audio", http.StatusInternalServerError, nil)
		return
	}

	intent := s.ParseIntent(transcript)
	log.Printf("[WHISPER] Transcript %q, recognized=%v", transcript, intent.Recognized)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(IntentResponse{
		Transcript: transcript,
		Confidence: confidence,
		Intent:     intent,
	})
}

// ParseIntent extracts {charity, amount} from a transcript. The charity must be
// in the recognized set for the intent to count as recognized.
func (s *WhisperService) ParseIntent(transcript string) DonationIntent {
	match := intentPattern.FindStringSubmatch(transcript)
	if match == nil {
		return DonationIntent{}
	}

	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil || amount <= 0 {
		return DonationIntent{}
	}

	charity := strings.ToUpper(match[2])
	if _, ok := s.charities[charity]; !ok {
		return DonationIntent{}
	}

	return DonationIntent{Charity: charity, Amount: amount, Recognized: true}
}

func (s *WhisperService) Transcribe(ctx context.Context, req TranscribeRequest) (string, float32, error) {
	if s.client == nil {
		return s.mockTranscribe(req)
	}

	audioBytes, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode audio: %w", err)
	}

	if len(audioBytes) == 0 {
		return "", 0, errors.New("audio data is empty")
	}

	encoding, err := parseEncoding(req.Encoding)
	if err != nil {
		return "", 0, err
	}

	speechReq := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            int32(req.SampleRate),
			LanguageCode:               req.LanguageCode,
			EnableAutomaticPunctuation: true,
			Model:                      "latest_long",
			UseEnhanced:                true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audioBytes,
			},
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.client.Recognize(timeoutCtx, speechReq)
	if err != nil {
		return "", 0, fmt.Errorf("recognition failed: %w", err)
	}

	if len(resp.Results) == 0 {
		return "", 0, errors.New("no transcription results")
	}

	var transcript strings.Builder
	var totalConfidence float32
	var count int

	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			alternative := result.Alternatives[0]
			transcript.WriteString(alternative.Transcript)
			transcript.WriteString(" ")
			totalConfidence += alternative.Confidence
			count++
		}
	}

	if count == 0 {
		return "", 0, errors.New("no alternatives in results")
	}

	avgConfidence := totalConfidence / float32(count)
	return strings.TrimSpace(transcript.String()), avgConfidence, nil
}

func parseEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(encoding) {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

func (s *WhisperService) mockTranscribe(req TranscribeRequest) (string, float32, error) {
	audioBytes, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode audio: %w", err)
	}

	if len(audioBytes) == 0 {
		return "", 0, errors.New("audio data is empty")
	}

	return "Mock transcription: Donate 25 dollars to MEDA", 0.95, nil
}

func (s *WhisperService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
