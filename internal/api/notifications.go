package api

import (
	"context"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/notify"

	"go.uber.org/zap"
)

// notifyTimeout bounds a best-effort delivery attempt.
const notifyTimeout = 15 * time.Second

func (s *WithdrawService) notifyCreated(ctx context.Context, withdraw *models.Withdraw, account *models.Account, pix *models.PixDetail) {
	if withdraw.Scheduled && withdraw.ScheduledFor != nil {
		s.notify(ctx, notify.ScheduleConfirmation{
			To:           pix.Key,
			WithdrawId:   withdraw.Id,
			AccountName:  account.Name,
			Method:       withdraw.Method,
			Amount:       withdraw.Amount,
			PixKey:       pix.Key,
			ScheduledFor: *withdraw.ScheduledFor,
		})
		return
	}

	s.notify(ctx, notify.WithdrawConfirmation{
		To:          pix.Key,
		WithdrawId:  withdraw.Id,
		AccountName: account.Name,
		Method:      withdraw.Method,
		Amount:      withdraw.Amount,
		PixKey:      pix.Key,
	})
}

func (s *WithdrawService) notifySettled(ctx context.Context, withdraw *models.Withdraw, account *models.Account, pix *models.PixDetail) {
	if pix == nil {
		return
	}
	s.notify(ctx, notify.WithdrawConfirmation{
		To:           pix.Key,
		WithdrawId:   withdraw.Id,
		AccountName:  account.Name,
		Method:       withdraw.Method,
		Amount:       withdraw.Amount,
		PixKey:       pix.Key,
		Scheduled:    true,
		ScheduledFor: withdraw.ScheduledFor,
	})
}

func (s *WithdrawService) notifySettlementFailure(ctx context.Context, withdraw *models.Withdraw, account *models.Account, pix *models.PixDetail, cause error) {
	accountName := "cliente"
	if account != nil {
		accountName = account.Name
	}
	var scheduledFor time.Time
	if withdraw.ScheduledFor != nil {
		scheduledFor = *withdraw.ScheduledFor
	}

	s.notify(ctx, notify.ScheduleError{
		To:           pix.Key,
		WithdrawId:   withdraw.Id,
		AccountName:  accountName,
		Method:       withdraw.Method,
		Amount:       withdraw.Amount,
		PixKey:       pix.Key,
		ScheduledFor: scheduledFor,
		ErrorMessage: UserMessage(cause),
	})
}

// notify sends msg, records the outcome and never returns an error.
func (s *WithdrawService) notify(ctx context.Context, msg notify.Message) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(sendCtx, msg); err != nil {
		notificationsSent.WithLabelValues(msg.Kind().String(), "failed").Inc()
		zap.L().Warn("Failed to send withdraw notification",
			zap.String("kind", msg.Kind().String()),
			zap.String("withdraw_id", msg.Reference()),
			zap.Error(err))
		return
	}

	notificationsSent.WithLabelValues(msg.Kind().String(), "sent").Inc()
	zap.L().Info("Withdraw notification sent",
		zap.String("kind", msg.Kind().String()),
		zap.String("withdraw_id", msg.Reference()))
}

func (s *WithdrawService) journalPayout(ctx context.Context, withdraw *models.Withdraw, account *models.Account, pix *models.PixDetail) {
	if s.journal == nil {
		return
	}
	journalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.journal.RecordPayout(journalCtx, withdraw, account, pix); err != nil {
		zap.L().Warn("Failed to journal payout",
			zap.String("withdraw_id", withdraw.Id),
			zap.Error(err))
	}
}

func (s *WithdrawService) loadPixDetail(ctx context.Context, withdrawId string) *models.PixDetail {
	pix, err := s.store.GetPixDetail(ctx, withdrawId)
	if err != nil {
		zap.L().Warn("Failed to load pix detail",
			zap.String("withdraw_id", withdrawId),
			zap.Error(err))
		return nil
	}
	return pix
}
