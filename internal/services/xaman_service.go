package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/eunoia-atlas/backend/internal/config"
)

const xamanPayloadTTL = 15 * time.Minute

// XamanService builds payment payloads for donors signing with their own
// wallet app instead of the platform wallets. Payloads live in Redis under an
// opaque id until scanned or expired.
type XamanService struct {
	cfg       *config.Config
	redis     *redis.Client
	validator *ValidationHelper
}

// XamanPaymentRequest is the POST /xaman/create-payment body.
type XamanPaymentRequest struct {
	Destination string  `json:"destination" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Charity     string  `json:"charity" validate:"required"`
	CauseID     string  `json:"cause_id" validate:"required"`
	Asset       string  `json:"asset"`
	Issuer      string  `json:"issuer"`
}

func NewXamanService(cfg *config.Config, redisClient *redis.Client) *XamanService {
	return &XamanService{
		cfg:       cfg,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// CreatePayment builds a wallet-app payment payload
// @Summary Create wallet payment payload
// @Description Build a donor-signed RLUSD payment payload and its QR code
// @Tags xaman
// @Accept json
// @Produce json
// @Param request body XamanPaymentRequest true "Payment payload request"
// @Success 200 {object} object{success=bool,payloadId=string,qrCode=string}
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /xaman/create-payment [post]
func (s *XamanService) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		SendErrorResponse(w, "Payload store unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req XamanPaymentRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.Asset == "" {
		req.Asset = DonationCurrency
	}
	if req.Issuer == "" {
		req.Issuer = s.cfg.RLUSDIssuer
	}

	payloadID := uuid.New().String()
	payload := map[string]any{
		"payloadId":   payloadID,
		"destination": req.Destination,
		"amount":      req.Amount,
		"charity":     req.Charity,
		"cause_id":    req.CauseID,
		"asset":       req.Asset,
		"issuer":      req.Issuer,
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		SendErrorResponse(w, "Failed to encode payload", http.StatusInternalServerError, nil)
		return
	}

	key := fmt.Sprintf("xaman:payload:%s", payloadID)
	if err := s.redis.Set(r.Context(), key, data, xamanPayloadTTL).Err(); err != nil {
		log.Printf("[XAMAN] Storing payload %s failed: %v", payloadID, err)
		SendErrorResponse(w, "Failed to store payload", http.StatusInternalServerError, nil)
		return
	}

	qrImage, err := renderQR(fmt.Sprintf("https://xumm.app/sign/%s", payloadID))
	if err != nil {
		SendErrorResponse(w, "Failed to render QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"payloadId": payloadID,
		"qrCode":    qrImage,
	})
}

// GetPayload returns a stored payment payload
// @Summary Fetch wallet payment payload
// @Description Return a previously created payment payload by id
// @Tags xaman
// @Produce json
// @Param id path string true "Payload id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} ErrorResponse
// @Router /xaman/payload/{id} [get]
func (s *XamanService) GetPayload(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		SendErrorResponse(w, "Payload store unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	payloadID := chi.URLParam(r, "id")
	key := fmt.Sprintf("xaman:payload:%s", payloadID)

	data, err := s.redis.Get(r.Context(), key).Bytes()
	if err == redis.Nil {
		SendErrorResponse(w, "Invalid or expired payload", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to load payload", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func renderQR(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
