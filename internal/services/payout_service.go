package services

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"

	"github.com/eunoia-atlas/backend/internal/config"
)

// PayoutService acknowledges off-ramp requests for a charity's accumulated
// balance. The settlement rail itself is a stub: a pacs.008 credit transfer
// message is constructed and logged for the (mock) off-ramp partner, and the
// caller receives a queued acknowledgment.
type PayoutService struct {
	cfg   *config.Config
	store *RecordStore
}

func NewPayoutService(cfg *config.Config, store *RecordStore) *PayoutService {
	return &PayoutService{cfg: cfg, store: store}
}

// Payout queues an off-ramp settlement for a charity
// @Summary Queue charity payout
// @Description Queue the charity's accumulated balance for off-ramp settlement
// @Tags payouts
// @Produce json
// @Security BearerAuth
// @Param charity path string true "Charity code"
// @Success 200 {object} object{charity=string,status=string,ref=string}
// @Failure 404 {object} ErrorResponse
// @Router /payout/{charity} [post]
func (ps *PayoutService) Payout(w http.ResponseWriter, r *http.Request) {
	charity := chi.URLParam(r, "charity")
	wallet, ok := ps.cfg.Charity(charity)
	if !ok {
		SendErrorResponse(w, fmt.Sprintf("Unknown charity: %s", charity), http.StatusNotFound, nil)
		return
	}

	ref := "OFFMOCK-" + wallet.Name

	totals, err := ps.store.TotalsByCharity(r.Context())
	if err != nil {
		log.Printf("[PAYOUT] Totals lookup for %s failed: %v", wallet.Name, err)
		SendErrorResponse(w, "Failed to compute payout amount", http.StatusInternalServerError, nil)
		return
	}

	doc, err := ps.buildPacs008(wallet, ref, totals[wallet.Name])
	if err != nil {
		log.Printf("[PAYOUT] Building settlement message for %s failed: %v", wallet.Name, err)
		SendErrorResponse(w, "Failed to build settlement message", http.StatusInternalServerError, nil)
		return
	}

	if err := ps.sendToOffRamp(doc); err != nil {
		log.Printf("[PAYOUT] Off-ramp handoff for %s failed: %v", wallet.Name, err)
		SendErrorResponse(w, "Failed to queue payout", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"charity": wallet.Name,
		"status":  "queued",
		"ref":     ref,
	})
}

// buildPacs008 creates the FIToFICustomerCreditTransfer message handed to the
// off-ramp partner for the charity's accumulated balance.
func (ps *PayoutService) buildPacs008(wallet config.Wallet, ref string, amount float64) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	msgID := uuid.New().String()
	now := time.Now()
	settlementDate := now

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgID),
			CreDtTm: common.ISODateTime(now),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode("USD"),
				Value: amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(ref)}[0],
					EndToEndId: common.Max35Text(ref),
					TxId:       &[]common.Max35Text{common.Max35Text(msgID)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode("USD"),
					Value: amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier("EUNOIAAT")}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text("Eunoia Atlas Platform")}[0],
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(wallet.Name)}[0],
				},
			},
		},
	}

	return doc, nil
}

func (ps *PayoutService) sendToOffRamp(doc any) error {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}

	// The off-ramp partner integration is mocked; the message is only logged.
	log.Printf("[PAYOUT] Queued off-ramp message:\n%s", string(xmlData))
	return nil
}
