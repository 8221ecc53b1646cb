package jobs

import (
	"context"
	"time"

	"lendhub-backend/internal/logger"
)

// SendPaymentReminders leaves a reminder notification and email for every
// pending payment due within the configured lead window.
func (jr *JobRunner) SendPaymentReminders() {
	jr.runWithRecovery("SendPaymentReminders", func() error {
		ctx := context.Background()
		leadDays := jr.config.Scheduler.ReminderLeadDays

		reminded, err := jr.payments.RemindUpcomingPayments(ctx, time.Now(), leadDays)
		if err != nil {
			return err
		}
		logger.Info("Payment reminders sent", "count", reminded, "lead_days", leadDays)
		return nil
	})
}

// SettleDuePayments completes pending AUTOMATIC_DEBIT payments whose due
// date has arrived, cascading into loan balances.
func (jr *JobRunner) SettleDuePayments() {
	jr.runWithRecovery("SettleDuePayments", func() error {
		ctx := context.Background()

		settled, err := jr.payments.SettleDueAutomaticDebits(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.Info("Automatic debits settled", "count", settled)
		return nil
	})
}
