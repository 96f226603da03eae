package api

import (
	"net/http"

	"github.com/AlexZinkM/did-card/internal/handler"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(did *handler.DIDHandler, wallet *handler.WalletHandler, log *logrus.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger(log))

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Session endpoints
	r.HandleFunc("/state", did.GetState).Methods(http.MethodGet)
	r.HandleFunc("/session/connect", did.Connect).Methods(http.MethodPost)
	r.HandleFunc("/session/reinitialize", did.Reinitialize).Methods(http.MethodPost)
	r.HandleFunc("/session/disconnect", did.Disconnect).Methods(http.MethodPost)
	r.HandleFunc("/availability", did.Availability).Methods(http.MethodGet)

	// Record endpoints
	r.HandleFunc("/records", did.ListRecords).Methods(http.MethodGet)
	r.HandleFunc("/records", did.CreateRecord).Methods(http.MethodPost)
	r.HandleFunc("/records/refresh", did.RefreshRecords).Methods(http.MethodPost)
	r.HandleFunc("/records/{id}", did.GetRecord).Methods(http.MethodGet)
	r.HandleFunc("/records/{id}/verify", did.VerifyRecord).Methods(http.MethodPost)
	r.HandleFunc("/records/{id}/qr", did.GetQR).Methods(http.MethodGet)
	r.HandleFunc("/records/{id}/attest", did.AttestRecord).Methods(http.MethodPost)
	r.HandleFunc("/attestations/verify", did.VerifyAttestation).Methods(http.MethodPost)

	// Wallet endpoints
	if wallet != nil {
		r.HandleFunc("/wallet/generate", wallet.Generate).Methods(http.MethodPost)
	}

	return r
}

// requestLogger logs every request at debug level
func requestLogger(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Debug("request")
			next.ServeHTTP(w, r)
		})
	}
}
