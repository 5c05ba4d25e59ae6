package services

import (
	"encoding/json"
	"time"

	"github.com/easystock/backend/internal/config"
	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/pkg/logger"
	"github.com/easystock/backend/pkg/metrics"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const logCleanupJob = "system_log_cleanup"

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("info", module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("warning", module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("error", module, action, message, userID, ip, userAgent, extra)
}

func writeLog(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	if globalDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := globalDB.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("[SystemLog] Failed to write entry")
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// CleanupOldLogs deletes logs older than the specified number of days
// Returns the number of deleted records
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// LogCleanupScheduler runs the retention cleanup on a cron schedule.
type LogCleanupScheduler struct {
	service *SystemLogService
	cfg     config.LogConfig
	metrics *metrics.CronJobMetrics
	cron    *cron.Cron
}

func NewLogCleanupScheduler(db *gorm.DB, cfg config.LogConfig, m *metrics.CronJobMetrics) *LogCleanupScheduler {
	return &LogCleanupScheduler{
		service: NewSystemLogService(db),
		cfg:     cfg,
		metrics: m,
	}
}

// Start runs one cleanup immediately and schedules the rest.
func (s *LogCleanupScheduler) Start() error {
	spec := s.cfg.CleanupSpec
	if spec == "" {
		spec = "@daily"
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return err
	}

	go s.Run()
	s.cron.Start()
	logger.Infof("[SystemLog] Cleanup scheduled (cron: %s, retention: %d days)", spec, s.cfg.RetentionDays)
	return nil
}

func (s *LogCleanupScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Run performs a single cleanup pass.
func (s *LogCleanupScheduler) Run() {
	if s.cfg.RetentionDays <= 0 {
		logger.Debug().Msg("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return
	}

	started := time.Now()
	deleted, err := s.service.CleanupOldLogs(s.cfg.RetentionDays)
	s.metrics.Observe(logCleanupJob, started, err)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to cleanup old logs: %v", err)
		return
	}

	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, s.cfg.RetentionDays)
	}
}
