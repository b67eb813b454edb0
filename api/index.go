package handler

import (
	"net/http"
	"sync"

	"reservo/config"
	"reservo/di"
	"reservo/shared/logger"
	reservoHTTP "reservo/transport/http"
)

var (
	once    sync.Once
	service *reservoHTTP.HTTP
)

// Handler serves the booking API from a serverless function. The service is
// built once per warm instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		cfg := config.Get()

		logger.Setup(cfg)

		service = di.InitializeService()
	})

	r.RequestURI = r.URL.String()

	service.ServeHTTP(w, r)
}
