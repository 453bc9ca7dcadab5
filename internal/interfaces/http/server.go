package httpinterface

import (
	"net/http"
	"time"
)

// NewServer returns the callback HTTP server listening on the given address.
func NewServer(addr string, callbackHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(CallbackRoute, callbackHandler)

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}
