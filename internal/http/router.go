// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crowdship/internal/http/handlers"
	"crowdship/internal/http/middleware"
	"crowdship/internal/modules/runs"
	"crowdship/internal/service"
)

func NewRouter(runner *service.Runner, archive *runs.Store, log *slog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	simulationHandler := handlers.NewSimulationHandler(runner)
	r.POST("/api/simulations", simulationHandler.Run)

	runHandler := handlers.NewRunHandler(archive)
	r.GET("/api/runs", runHandler.List)
	r.GET("/api/runs/:id", runHandler.Get)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
