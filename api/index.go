// Package handler is the serverless entry point. The platform calls Handler for
// every request; the engine is built once per instance.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	config "github.com/al-khabib/tashkent-city-transformers/configs"
	"github.com/al-khabib/tashkent-city-transformers/internal/app"
)

var (
	engine   *gin.Engine
	setupErr error
	once     sync.Once
)

// setupApp builds the engine from platform environment variables. Serverless
// instances do not run the refresh schedule.
func setupApp() (*gin.Engine, error) {
	once.Do(func() {
		cfg := config.LoadConfig()
		cfg.RefreshCron = ""

		a, err := app.New(context.Background(), cfg)
		if err != nil {
			log.Printf("[setupApp] failed to initialize: %v", err)
			setupErr = err
			return
		}
		engine = a.Engine
	})
	return engine, setupErr
}

// Handler serves one request.
func Handler(w http.ResponseWriter, r *http.Request) {
	e, err := setupApp()
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(gin.H{"success": false, "error": "engine unavailable: " + err.Error()})
		return
	}
	e.ServeHTTP(w, r)
}
