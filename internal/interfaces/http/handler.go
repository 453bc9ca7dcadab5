package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/postmix/forwardd/internal/core/application"
	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/pkg/bitaps"
)

// CallbackRoute is the path the gateway posts transaction notifications to.
const CallbackRoute = "/callback"

type callbackHandler struct {
	forwardingSvc application.ForwardingService
	reconciler    application.TransactionReconciler
}

// NewCallbackHandler returns the http handler ingesting the gateway's
// transaction notifications. The inbound payload is the same raw batch shape
// served by the transactions listing endpoint.
func NewCallbackHandler(
	forwardingSvc application.ForwardingService,
	reconciler application.TransactionReconciler,
) http.Handler {
	return &callbackHandler{
		forwardingSvc: forwardingSvc,
		reconciler:    reconciler,
	}
}

type outcomeReply struct {
	Hash      string `json:"hash"`
	Created   bool   `json:"created"`
	Updated   bool   `json:"updated"`
	Confirmed bool   `json:"confirmed"`
	Error     string `json:"error,omitempty"`
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload := &bitaps.CallbackPayload{}
	if err := json.NewDecoder(req.Body).Decode(payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if len(payload.Address) <= 0 {
		http.Error(w, "missing address", http.StatusBadRequest)
		return
	}

	address, err := h.forwardingSvc.GetAddress(req.Context(), payload.Address)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			http.Error(w, "unknown address", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("failed to lookup callback address")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	outcomes := h.reconciler.Reconcile(req.Context(), address, payload.TxList)

	replies := make([]outcomeReply, 0, len(outcomes))
	for _, outcome := range outcomes {
		reply := outcomeReply{
			Hash:      outcome.Hash,
			Created:   outcome.Created,
			Updated:   outcome.Updated,
			Confirmed: outcome.Confirmed,
		}
		if outcome.Err != nil {
			reply.Error = outcome.Err.Error()
		}
		replies = append(replies, reply)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(replies); err != nil {
		log.WithError(err).Warn("failed to write callback reply")
	}
}
