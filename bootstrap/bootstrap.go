// Package bootstrap builds the app for serverless hosts, which import it from outside internal/.
package bootstrap

import (
	"net/http"

	"stablebricks-backend/internal/config"
	"stablebricks-backend/internal/interfaces/router"
)

// New loads the environment and returns the API as a net/http handler.
// Background jobs do not run here; deploy `stablebricks serve` for those.
func New() (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	return router.Handler(app.Fiber), nil
}
