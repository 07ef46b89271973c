package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/eunoia-atlas/backend/internal/config"
)

func payoutRequest(charity string) *http.Request {
	r := httptest.NewRequest("POST", "/api/v1/payout/"+charity, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("charity", charity)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPayoutService_Payout(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewPayoutService(testConfig(), NewRecordStore(db))

	t.Run("queues payout with deterministic ref", func(t *testing.T) {
		dbMock.ExpectQuery("SELECT data->>'chr' AS chr").
			WillReturnRows(sqlmock.NewRows([]string{"chr", "total"}).AddRow("MEDA", 125.0))

		w := httptest.NewRecorder()
		service.Payout(w, payoutRequest("MEDA"))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "MEDA", resp["charity"])
		assert.Equal(t, "queued", resp["status"])
		assert.Equal(t, "OFFMOCK-MEDA", resp["ref"])
	})

	t.Run("charity code is case-insensitive", func(t *testing.T) {
		dbMock.ExpectQuery("SELECT data->>'chr' AS chr").
			WillReturnRows(sqlmock.NewRows([]string{"chr", "total"}))

		w := httptest.NewRecorder()
		service.Payout(w, payoutRequest("tara"))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "TARA", resp["charity"])
		assert.Equal(t, "OFFMOCK-TARA", resp["ref"])
	})

	t.Run("unknown charity is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.Payout(w, payoutRequest("NOPE"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("totals failure is a server error", func(t *testing.T) {
		dbMock.ExpectQuery("SELECT data->>'chr' AS chr").
			WillReturnError(assert.AnError)

		w := httptest.NewRecorder()
		service.Payout(w, payoutRequest("MEDA"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestPayoutService_BuildPacs008(t *testing.T) {
	service := NewPayoutService(testConfig(), nil)
	wallet := config.Wallet{Name: "MEDA", Address: "rMeda"}

	doc, err := service.buildPacs008(wallet, "OFFMOCK-MEDA", 125)
	assert.NoError(t, err)
	assert.NotNil(t, doc)
	assert.NotEmpty(t, doc.GrpHdr.MsgId)
	assert.Equal(t, "1", string(doc.GrpHdr.NbOfTxs))
	assert.Equal(t, "USD", string(doc.GrpHdr.TtlIntrBkSttlmAmt.Ccy))
	assert.Equal(t, 125.0, doc.GrpHdr.TtlIntrBkSttlmAmt.Value)
	assert.Len(t, doc.CdtTrfTxInf, 1)
	assert.Equal(t, "OFFMOCK-MEDA", string(doc.CdtTrfTxInf[0].PmtId.EndToEndId))
	assert.Equal(t, "MEDA", string(*doc.CdtTrfTxInf[0].Cdtr.Nm))
	assert.Equal(t, "Eunoia Atlas Platform", string(*doc.CdtTrfTxInf[0].Dbtr.Nm))
}

func TestPayoutService_SendToOffRamp(t *testing.T) {
	service := NewPayoutService(testConfig(), nil)

	t.Run("marshals and queues the message", func(t *testing.T) {
		doc, err := service.buildPacs008(config.Wallet{Name: "MEDA"}, "OFFMOCK-MEDA", 10)
		assert.NoError(t, err)
		assert.NoError(t, service.sendToOffRamp(doc))
	})

	t.Run("unmarshalable document is an error", func(t *testing.T) {
		err := service.sendToOffRamp(make(chan int))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal XML")
	})
}
