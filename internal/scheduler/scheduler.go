package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/services"
)

// InitScheduler initializes the cron scheduler for background jobs
func InitScheduler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) {
	s := gocron.NewScheduler(time.UTC)
	marketData := services.NewMarketDataService(cfg, logger)

	// Quote refresh job
	s.Every(cfg.QuoteRefreshMinutes).Minutes().Do(func() {
		logger.Debug().Msg("Running quote refresh")
		if err := marketData.RefreshQuotes(db); err != nil {
			logger.Warn().Err(err).Msg("Quote refresh failed")
		}
	})

	// DCA reminder sweep. Runs well inside the shortest cadence; the
	// per-reminder notification stamp keeps each day to a single fire.
	s.Every(10).Minutes().Do(func() {
		sweepDueReminders(db, logger)
	})

	// Risk trigger sweep
	s.Every(cfg.RiskCheckMinutes).Minutes().Do(func() {
		sweepRiskTriggers(db, logger)
	})

	// Email dispatch job (every hour)
	s.Every(1).Hour().Do(func() {
		dispatchNotificationEmails(db, cfg, logger)
	})

	// Daily portfolio snapshot, shortly past midnight UTC
	s.Every(1).Day().At("00:05").Do(func() {
		snapshotPortfolios(db, logger)
	})

	s.StartAsync()
	logger.Info().Msg("Scheduler initialized and started")
}

// sweepDueReminders notifies every active reminder scheduled for today whose
// notify time has passed and that has not been notified yet today.
func sweepDueReminders(db *gorm.DB, logger zerolog.Logger) {
	now := time.Now().UTC()

	var reminders []models.DCAReminder
	if err := db.Where("active = ?", true).Find(&reminders).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to fetch reminders for sweep")
		return
	}

	for i := range reminders {
		r := &reminders[i]
		if !services.IsDueToday(r, now) {
			continue
		}
		if notifiedOn(r.LastNotifiedAt, now) {
			continue
		}
		if !notifyTimeReached(r.NotifyAt, now) {
			continue
		}

		notification := models.Notification{
			UserID:     r.UserID,
			ReminderID: r.ID,
			Kind:       models.NotificationDCADue,
			Symbol:     r.Symbol,
			Message:    services.ComposeDCADueMessage(r),
		}
		if err := db.Create(&notification).Error; err != nil {
			logger.Warn().Err(err).Str("reminder", r.ID).Msg("Failed to create notification")
			continue
		}

		r.LastNotifiedAt = &now
		if err := db.Save(r).Error; err != nil {
			logger.Warn().Err(err).Str("reminder", r.ID).Msg("Failed to stamp reminder")
			continue
		}

		logger.Info().Str("reminder", r.ID).Str("symbol", r.Symbol).Msg("DCA reminder due")
	}
}

// sweepRiskTriggers evaluates every monitoring reminder against the cached
// risk scores and fires crossed triggers.
func sweepRiskTriggers(db *gorm.DB, logger zerolog.Logger) {
	now := time.Now().UTC()

	var quotes []models.Quote
	if err := db.Find(&quotes).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to fetch quotes for risk sweep")
		return
	}
	scores := make(map[string]*float64, len(quotes))
	for i := range quotes {
		scores[quotes[i].Symbol] = quotes[i].RiskScore
	}

	var reminders []models.RiskReminder
	if err := db.Where("state = ?", models.RiskMonitoring).Find(&reminders).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to fetch risk reminders for sweep")
		return
	}

	for i := range reminders {
		r := &reminders[i]
		score := scores[r.Symbol]
		if score == nil {
			// Asset without risk coverage, nothing to evaluate.
			continue
		}
		if !services.EvaluateRisk(r, *score, now) {
			continue
		}

		if err := db.Save(r).Error; err != nil {
			logger.Warn().Err(err).Str("reminder", r.ID).Msg("Failed to save fired trigger")
			continue
		}

		notification := models.Notification{
			UserID:     r.UserID,
			ReminderID: r.ID,
			Kind:       models.NotificationRiskTrigger,
			Symbol:     r.Symbol,
			Message:    services.ComposeRiskTriggerMessage(r, *score),
		}
		if err := db.Create(&notification).Error; err != nil {
			logger.Warn().Err(err).Str("reminder", r.ID).Msg("Failed to create notification")
		}

		logger.Info().
			Str("reminder", r.ID).
			Str("symbol", r.Symbol).
			Float64("score", *score).
			Float64("threshold", r.Threshold).
			Msg("Risk trigger fired")
	}
}

// dispatchNotificationEmails emails unsent notifications to their owners
func dispatchNotificationEmails(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) {
	var notifications []models.Notification
	if err := db.Where("email_sent = ?", false).Find(&notifications).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to fetch unsent notifications")
		return
	}
	if len(notifications) == 0 {
		return
	}

	logger.Info().Int("count", len(notifications)).Msg("Found unsent notifications")

	notifier := services.NewNotificationService(cfg, logger)
	emails := make(map[uint]string)

	for i := range notifications {
		n := &notifications[i]

		email, ok := emails[n.UserID]
		if !ok {
			var user models.User
			if err := db.First(&user, n.UserID).Error; err == nil {
				email = user.Email
			}
			emails[n.UserID] = email
		}

		if err := notifier.SendEmail(*n, email); err != nil {
			logger.Warn().Err(err).Uint("notification_id", n.ID).Msg("Failed to send notification email")
			continue
		}

		n.EmailSent = true
		if err := db.Save(n).Error; err != nil {
			logger.Warn().Err(err).Uint("notification_id", n.ID).Msg("Failed to mark notification sent")
		}
	}
}

// snapshotPortfolios records daily aggregate metrics for every portfolio
func snapshotPortfolios(db *gorm.DB, logger zerolog.Logger) {
	now := time.Now().UTC()

	var portfolios []models.Portfolio
	if err := db.Find(&portfolios).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to fetch portfolios for snapshot")
		return
	}

	for i := range portfolios {
		p := &portfolios[i]

		var holdings []models.Holding
		if err := db.Where("portfolio_id = ?", p.ID).Find(&holdings).Error; err != nil {
			logger.Warn().Err(err).Str("portfolio", p.ID).Msg("Failed to fetch holdings for snapshot")
			continue
		}

		m := services.CalculatePortfolioMetrics(holdings)
		snapshot := models.PortfolioSnapshot{
			PortfolioID:               p.ID,
			TotalValue:                m.TotalValue,
			TotalCost:                 m.TotalCost,
			TotalProfitLoss:           m.TotalProfitLoss,
			TotalProfitLossPercentage: m.TotalProfitLossPercentage,
			DayChange:                 m.DayChange,
			DayChangePercentage:       m.DayChangePercentage,
			RecordedAt:                now,
		}
		if err := db.Create(&snapshot).Error; err != nil {
			logger.Warn().Err(err).Str("portfolio", p.ID).Msg("Failed to record snapshot")
		}
	}

	logger.Info().Int("count", len(portfolios)).Msg("Portfolio snapshots recorded")
}

// notifyTimeReached reports whether now has passed the reminder's "HH:MM"
// notify time. An empty or malformed time never holds a notification back.
func notifyTimeReached(notifyAt string, now time.Time) bool {
	if notifyAt == "" {
		return true
	}
	at, err := time.Parse("15:04", notifyAt)
	if err != nil {
		return true
	}
	return now.Hour()*60+now.Minute() >= at.Hour()*60+at.Minute()
}

// notifiedOn reports whether last falls on the same UTC calendar day as now.
func notifiedOn(last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	ly, lm, ld := last.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ly == ny && lm == nm && ld == nd
}
