package handler

import (
	"relayhub/internal/app/hub"
	"relayhub/internal/configs"
)

type AppDeps struct {
	Dispatcher *hub.Dispatcher
	Config     *configs.AppConfig
}
