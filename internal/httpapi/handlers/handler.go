package handlers

import (
	"io"
	"log"

	"redbird/internal/auth"
	"redbird/internal/config"
	"redbird/internal/service"
)

type Handler struct {
	cfg    config.Config
	svc    *service.Service
	auth   *auth.Authenticator
	logger *log.Logger
}

func New(cfg config.Config, svc *service.Service, authn *auth.Authenticator, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Handler{
		cfg:    cfg,
		svc:    svc,
		auth:   authn,
		logger: logger,
	}
}
