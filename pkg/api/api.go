package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/share"
	"github.com/rs/zerolog/log"
)

type LinkVaultAPI struct {
	config config.API
	engine *share.Engine

	tokenAuth *jwtauth.JWTAuth
}

func NewLinkVaultAPI(conf config.API, engine *share.Engine) *LinkVaultAPI {
	return &LinkVaultAPI{
		config:    conf,
		engine:    engine,
		tokenAuth: jwtauth.New("HS256", []byte(conf.JWTSecret), nil),
	}
}

func RunAPI(ctx context.Context, conf config.API, mux *chi.Mux) {
	log.Debug().Int("port", conf.Port).Msg("Starting API")

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", conf.Port),
		Handler: mux,
	}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("Error serving API")
			serverStopCtx()
		}
	}()

	go func() {
		<-ctx.Done() // Wait for the context to be canceled

		log.Debug().Msg("Stopping API")

		// Gracefully shutdown server
		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Error().Err(err).Msg("Error shutting down API")
		}

		cancel()
		serverStopCtx()
	}()

	log.Debug().Msg("Waiting for graceful shutdown")
	<-serverCtx.Done()

	log.Debug().Msg("API server stopped")
}
