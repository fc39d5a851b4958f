package di

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mentorconnect-backend/application/ports"
	"mentorconnect-backend/application/services"
	"mentorconnect-backend/infrastructure/config"
)

// Container holds the wired application.
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Cache          ports.Cache
	Registry       *prometheus.Registry
	ThreadService  *services.ThreadService
	StudentService *services.StudentService
	Handler        http.Handler
}
