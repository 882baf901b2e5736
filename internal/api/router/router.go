package router

import (
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/api/handlers/catalog"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/api/handlers/job"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/api/middleware"
)

func Setup(jh *job.Handler, ch *catalog.Handler, log zerolog.Logger) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.Logger(log))
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/jobs", jh.Submit)            // start a batch
	api.GET("/jobs/:id", jh.Status)         // job state and summary
	api.GET("/jobs/:id/events", jh.Events)  // sequenced events, ?since=N
	api.POST("/jobs/:id/cancel", jh.Cancel) // stop at the next file
	api.GET("/catalog", ch.Catalog)         // gear, locations, templates
	api.GET("/inspect", ch.Inspect)         // ?path=[&compare=]

	return r
}
