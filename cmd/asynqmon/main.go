package main

import (
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"github.com/gcopy-dev/gcopy/internal/logger"
)

// Serves the queue dashboard for the mail worker. Only REDIS_ADDRESS is
// needed, so the full backend configuration is not loaded.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	log := logger.GetLogger()

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/asynqmon",
		RedisConnOpt: asynq.RedisClientOpt{Addr: redisAddr},
	})
	defer h.Close()

	addr := os.Getenv("ASYNQMON_ADDRESS")
	if addr == "" {
		addr = ":8090"
	}

	mux := http.NewServeMux()
	mux.Handle(h.RootPath()+"/", h)

	log.Info().Str("address", addr).Str("redis", redisAddr).Msg("Starting Asynqmon")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("Asynqmon failed")
	}
}
