package jobs

import (
	"rental-marketplace-backend/internal/logger"
)

// ProcessScheduledNotifications delivers scheduled notifications that have come due
func (jr *JobRunner) ProcessScheduledNotifications() {
	jr.runWithRecovery("ProcessScheduledNotifications", func() {
		ctx, cancel := jobContext()
		defer cancel()

		count, err := jr.services.Notifications.ProcessScheduled(ctx, jr.now())
		if err != nil {
			logger.Error("Failed to process scheduled notifications", "error", err)
			return
		}
		logger.Info("Scheduled notifications processed", "count", count)
	})
}

// SendInstallmentReminders reminds customers of installments due within a day
func (jr *JobRunner) SendInstallmentReminders() {
	jr.runWithRecovery("SendInstallmentReminders", func() {
		ctx, cancel := jobContext()
		defer cancel()

		count, err := jr.services.Invoices.RemindInstallments(ctx, jr.now())
		if err != nil {
			logger.Error("Failed to send installment reminders", "error", err, "sent", count)
			return
		}
		logger.Info("Installment reminders sent", "count", count)
	})
}
