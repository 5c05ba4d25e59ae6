package handlers

import (
	"time"

	"github.com/easystock/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var startTime = time.Now()

// RegisterRuntimeMetrics adds process, Go runtime, connection pool and
// queue gauges to reg.
func RegisterRuntimeMetrics(reg prometheus.Registerer, db *gorm.DB) error {
	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "easystock_uptime_seconds",
			Help: "Time since server start in seconds.",
		}, func() float64 {
			return time.Since(startTime).Seconds()
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "easystock_queue_async_enabled",
			Help: "Whether invite emails go through the Redis queue (1=yes, 0=no).",
		}, func() float64 {
			if q := services.GetTaskQueue(); q != nil && q.IsAsync() {
				return 1
			}
			return 0
		}),
	}
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		cs = append(cs, collectors.NewDBStatsCollector(sqlDB, "easystock"))
	}

	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Metrics serves the Prometheus exposition format for g.
// GET /metrics
func Metrics(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
