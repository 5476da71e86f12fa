package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sliceline/sliceline-backend/api/middleware"
	"github.com/sliceline/sliceline-backend/api/responses"
	"github.com/sliceline/sliceline-backend/internal/notify"
	pkgerrors "github.com/sliceline/sliceline-backend/pkg/errors"
	"github.com/sliceline/sliceline-backend/pkg/logger"
	"github.com/sliceline/sliceline-backend/pkg/types"
)

const eventBufferSize = 16

// EventsStaff streams every engine event to a staff dashboard over SSE.
func EventsStaff(hub *notify.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := hub.SubscribeStaff(eventBufferSize)
		defer hub.Unsubscribe(sub)
		streamEvents(w, r, logg, sub)
	}
}

// EventsCustomer streams one customer's own events over SSE. Signed-in
// customers are keyed by user id, guests by their tracking token.
func EventsCustomer(hub *notify.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := ""
		if userID := middleware.UserIDFromContext(r.Context()); userID != nil {
			key = userID.String()
		} else if token := r.URL.Query().Get("token"); token != "" {
			key = token
		}
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in or provide a tracking token"))
			return
		}

		sub := hub.SubscribeCustomer(key, eventBufferSize)
		defer hub.Unsubscribe(sub)
		streamEvents(w, r, logg, sub)
	}
}

func streamEvents(w http.ResponseWriter, r *http.Request, logg *logger.Logger, sub *notify.Subscriber) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case envelope, open := <-sub.C:
			if !open {
				return
			}
			if err := writeSSE(w, envelope); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, envelope types.EventEnvelope) error {
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", envelope.Event, data)
	return err
}
