package jobs

import (
	"rental-marketplace-backend/internal/logger"
)

// UpdateLateFees recomputes late fees and overdue status of open invoices
func (jr *JobRunner) UpdateLateFees() {
	jr.runWithRecovery("UpdateLateFees", func() {
		ctx, cancel := jobContext()
		defer cancel()

		// Failures are per invoice; the count still covers the invoices that saved
		updated, err := jr.services.Invoices.UpdateLateFees(ctx, jr.now())
		if err != nil {
			logger.Error("Some invoices failed to update", "error", err, "updated", updated)
			return
		}
		logger.Info("Late fees updated", "updated", updated)
	})
}
