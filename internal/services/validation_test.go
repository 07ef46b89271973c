package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/eunoia-atlas/backend/internal/models"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid donation request", func(t *testing.T) {
		req := models.DonationRequest{
			Charity:    "MEDA",
			CauseID:    "water-project",
			Amount:     25,
			DonorEmail: "donor@example.com",
		}

		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("donation request missing fields", func(t *testing.T) {
		req := models.DonationRequest{
			Charity: "MEDA",
			// CauseID missing
			Amount:     -5, // must be positive
			DonorEmail: "not-an-email",
		}

		err := vh.ValidateStruct(&req)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 3) // CauseID, Amount, DonorEmail
	})

	t.Run("donor email is optional", func(t *testing.T) {
		req := models.DonationRequest{
			Charity: "TARA",
			CauseID: "c1",
			Amount:  5,
		}

		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("memo schema", func(t *testing.T) {
		memo := models.DonationMemo{
			CauseID:     "c1",
			Charity:     "meda", // must be upper-cased
			Amount:      25,
			Currency:    "RLUSD",
			Timestamp:   "2025-06-01T12:00:00Z",
			PayloadHash: "zz", // must be 64 hex chars
		}

		err := vh.ValidateStruct(&memo)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2)
		assert.Equal(t, "Charity", validationErrors[0].Field())
		assert.Equal(t, "uppercase", validationErrors[0].Tag())
		assert.Equal(t, "PayloadHash", validationErrors[1].Field())
	})

	t.Run("xaman payment request", func(t *testing.T) {
		req := XamanPaymentRequest{
			Destination: "rMeda",
			Amount:      0, // must be positive
			Charity:     "MEDA",
			CauseID:     "c1",
		}

		err := vh.ValidateStruct(&req)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "Amount", validationErrors[0].Field())
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Failed to aggregate totals", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Failed to aggregate totals", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation details", func(t *testing.T) {
		vh := NewValidationHelper()
		req := models.DonationRequest{
			Amount:     -1,
			DonorEmail: "not-an-email",
		}

		validationErr := vh.ValidateStruct(&req)
		assert.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "Charity")
		assert.Contains(t, response.Details, "CauseID")
		assert.Contains(t, response.Details, "Amount")
		assert.Contains(t, response.Details, "DonorEmail")
	})

	t.Run("non-validation error yields no details", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Unknown charity: NOPE", http.StatusNotFound, assert.AnError)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Unknown charity: NOPE", response.Error)
		assert.Nil(t, response.Details)
	})
}
