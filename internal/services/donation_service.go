package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"

	"github.com/eunoia-atlas/backend/internal/config"
	"github.com/eunoia-atlas/backend/internal/models"
)

const totalsCacheKey = "donations:totals"
const totalsCacheTTL = 15 * time.Second

// DonationService owns the donation HTTP surface: issuing payments, totals
// aggregation and donor score reads.
type DonationService struct {
	cfg       *config.Config
	store     *RecordStore
	payments  *PaymentService
	redis     *redis.Client
	validator *ValidationHelper
}

func NewDonationService(cfg *config.Config, store *RecordStore, payments *PaymentService, redisClient *redis.Client) *DonationService {
	return &DonationService{
		cfg:       cfg,
		store:     store,
		payments:  payments,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// Donate handles a donation request end to end
// @Summary Donate to a charity
// @Description Issue an RLUSD donation payment and record it
// @Tags donations
// @Accept json
// @Produce json
// @Param request body models.DonationRequest true "Donation request"
// @Success 200 {object} object{transactionId=string,trackingUrl=string,synthetic=bool}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /donate [post]
func (ds *DonationService) Donate(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req models.DonationRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ds.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := ds.payments.IssuePayment(r.Context(), req.Charity, req.CauseID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCharity),
			errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrSchemaViolation),
			errors.Is(err, ErrNoSenderAvailable):
			SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		default:
			log.Printf("[DONATE] Issuance failed: %v", err)
			SendErrorResponse(w, "Failed to issue payment", http.StatusInternalServerError, nil)
		}
		return
	}

	rec := &models.DonationRecord{
		TransactionID: result.TransactionID,
		Memo:          *result.Memo,
		DonorEmail:    req.DonorEmail,
		Synthetic:     result.Synthetic,
	}
	if err := ds.store.Insert(r.Context(), rec); err != nil {
		log.Printf("[DONATE] Persisting %s failed: %v", result.TransactionID, err)
		SendErrorResponse(w, "Failed to record donation", http.StatusInternalServerError, nil)
		return
	}

	ds.invalidateTotals(r)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactionId": result.TransactionID,
		"trackingUrl":   fmt.Sprintf("%s/%s", strings.TrimRight(ds.cfg.TrackingURLBase, "/"), result.TransactionID),
		"synthetic":     result.Synthetic,
	})
}

// Totals returns donated amounts summed per charity
// @Summary Donation totals
// @Description Sum of donated amounts grouped by charity code
// @Tags donations
// @Produce json
// @Success 200 {object} map[string]number
// @Failure 500 {object} ErrorResponse
// @Router /totals [get]
func (ds *DonationService) Totals(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if ds.redis != nil {
		if cached, err := ds.redis.Get(r.Context(), totalsCacheKey).Bytes(); err == nil {
			w.Write(cached)
			return
		}
	}

	totals, err := ds.store.TotalsByCharity(r.Context())
	if err != nil {
		log.Printf("[TOTALS] Aggregation failed: %v", err)
		SendErrorResponse(w, "Failed to aggregate totals", http.StatusInternalServerError, nil)
		return
	}

	data, err := json.Marshal(totals)
	if err != nil {
		SendErrorResponse(w, "Failed to encode totals", http.StatusInternalServerError, nil)
		return
	}

	if ds.redis != nil {
		if err := ds.redis.Set(r.Context(), totalsCacheKey, data, totalsCacheTTL).Err(); err != nil {
			log.Printf("[TOTALS] Cache write failed: %v", err)
		}
	}

	w.Write(data)
}

// Scores returns the donor feature rows for one charity
// @Summary Charity donor scores
// @Description Ordered donor hash / gift count pairs from the charity's feature view
// @Tags donations
// @Produce json
// @Param charity path string true "Charity code"
// @Success 200 {array} models.CharityScore
// @Failure 404 {object} ErrorResponse
// @Router /scores/{charity} [get]
func (ds *DonationService) Scores(w http.ResponseWriter, r *http.Request) {
	charity := chi.URLParam(r, "charity")
	wallet, ok := ds.cfg.Charity(charity)
	if !ok {
		SendErrorResponse(w, fmt.Sprintf("Unknown charity: %s", charity), http.StatusNotFound, nil)
		return
	}

	scores, err := ds.store.CharityScores(r.Context(), wallet.Name)
	if err != nil {
		log.Printf("[SCORES] Reading %s features failed: %v", wallet.Name, err)
		SendErrorResponse(w, "Failed to read scores", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scores)
}

func (ds *DonationService) invalidateTotals(r *http.Request) {
	if ds.redis == nil {
		return
	}
	if err := ds.redis.Del(r.Context(), totalsCacheKey).Err(); err != nil {
		log.Printf("[TOTALS] Cache invalidation failed: %v", err)
	}
}
