package usecase

import (
	"context"
	"testing"
	"time"

	domainInbound "github.com/AzielCF/az-remind/domains/inbound"
	"github.com/AzielCF/az-remind/pkg/intent"
	"github.com/AzielCF/az-remind/reminders/domain"
	"github.com/stretchr/testify/require"
)

func (f *fixture) today() string {
	return f.clk.DateKey(time.Now())
}

func TestHandleEvent_CompletionButtonResolvesExecution(t *testing.T) {
	f := newFixture(t)
	service := f.newInbound()
	reminder := f.seedReminder(t, "919876543210", "08:00", "09:00")
	execution := f.seedExecution(t, reminder, f.today(), time.Now().UTC().Add(-time.Hour))

	err := service.HandleEvent(context.Background(), domainInbound.Event{
		From:      "919876543210",
		Kind:      domainInbound.KindButtonReply,
		PayloadID: intent.CompletionButtonID,
	})
	require.NoError(t, err)

	fresh, err := f.executionRepo.GetFresh(context.Background(), execution.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusCompleted, fresh.Status)
	require.Equal(t, domain.FollowUpCancelledByUser, fresh.FollowUpStatus)

	stored, err := f.reminderRepo.GetByID(context.Background(), reminder.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
	require.Equal(t, domain.DailyStatusCompleted, stored.DailyStatus)

	// Completion earns a confirmation message.
	calls := f.courier.sent()
	require.Len(t, calls, 1)
	require.Equal(t, f.cfg.ConfirmationText, calls[0].Body)

	logs, err := f.messageLog.ListByPhone(context.Background(), "919876543210", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2) // inbound reply + outbound confirmation
}

func TestHandleEvent_PlainTextReplyIsNotCompletion(t *testing.T) {
	f := newFixture(t)
	service := f.newInbound()
	reminder := f.seedReminder(t, "919876543210", "08:00", "09:00")
	execution := f.seedExecution(t, reminder, f.today(), time.Now().UTC().Add(-time.Hour))

	err := service.HandleEvent(context.Background(), domainInbound.Event{
		From: "919876543210",
		Kind: domainInbound.KindText,
		Text: "on my way",
	})
	require.NoError(t, err)

	fresh, err := f.executionRepo.GetFresh(context.Background(), execution.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusReplied, fresh.Status)
	require.Equal(t, domain.FollowUpCancelledByUser, fresh.FollowUpStatus)

	stored, err := f.reminderRepo.GetByID(context.Background(), reminder.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DailyStatusReplied, stored.DailyStatus)
	require.Equal(t, "on my way", stored.ReplyText)

	require.Empty(t, f.courier.sent(), "no confirmation for a plain reply")
}

func TestHandleEvent_DuplicateDeliveryConverges(t *testing.T) {
	f := newFixture(t)
	service := f.newInbound()
	reminder := f.seedReminder(t, "919876543210", "08:00", "09:00")
	execution := f.seedExecution(t, reminder, f.today(), time.Now().UTC().Add(-time.Hour))

	event := domainInbound.Event{
		From:      "919876543210",
		Kind:      domainInbound.KindButtonReply,
		PayloadID: intent.CompletionButtonID,
	}
	require.NoError(t, service.HandleEvent(context.Background(), event))
	require.NoError(t, service.HandleEvent(context.Background(), event))

	fresh, err := f.executionRepo.GetFresh(context.Background(), execution.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusCompleted, fresh.Status)

	require.Len(t, f.courier.sent(), 1, "duplicate delivery must not re-send the confirmation")
}

func TestHandleEvent_UnknownSenderIsDropped(t *testing.T) {
	f := newFixture(t)
	service := f.newInbound()
	f.seedReminder(t, "919876543210", "08:00", "09:00")

	err := service.HandleEvent(context.Background(), domainInbound.Event{
		From: "15550001111",
		Kind: domainInbound.KindText,
		Text: "hello?",
	})
	require.NoError(t, err, "unknown senders are logged and dropped, never errored")

	// The message still lands in the audit trail.
	logs, err := f.messageLog.ListByPhone(context.Background(), "15550001111", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, domain.DirectionInbound, logs[0].Direction)

	require.Empty(t, f.courier.sent())
}

func TestHandleEvent_SynthesizesExecutionBeforeRecordedSend(t *testing.T) {
	f := newFixture(t)
	service := f.newInbound()
	reminder := f.seedReminder(t, "919876543210", "08:00", "09:00")

	// No execution exists yet for today; the reply must still land.
	err := service.HandleEvent(context.Background(), domainInbound.Event{
		From: "919876543210",
		Kind: domainInbound.KindText,
		Text: "done",
	})
	require.NoError(t, err)

	execution, err := f.executionRepo.GetByReminderAndDate(context.Background(), reminder.ID, f.today())
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusCompleted, execution.Status)
	require.Equal(t, domain.FollowUpCancelledByUser, execution.FollowUpStatus)
}

func TestHandleEvent_SuffixPhoneMatch(t *testing.T) {
	f := newFixture(t)
	service := f.newInbound()
	reminder := f.seedReminder(t, "919876543210", "08:00", "09:00")
	execution := f.seedExecution(t, reminder, f.today(), time.Now().UTC().Add(-time.Hour))

	// Gateway reports the number without the country code.
	err := service.HandleEvent(context.Background(), domainInbound.Event{
		From: "9876543210",
		Kind: domainInbound.KindText,
		Text: "yes all done",
	})
	require.NoError(t, err)

	fresh, err := f.executionRepo.GetFresh(context.Background(), execution.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusCompleted, fresh.Status)
}

func TestHandleEvent_ResolvesAllMatchingExecutions(t *testing.T) {
	f := newFixture(t)
	service := f.newInbound()
	first := f.seedReminder(t, "919876543210", "08:00", "09:00")
	second := f.seedReminder(t, "919876543210", "10:00", "11:00")
	sentAt := time.Now().UTC().Add(-time.Hour)
	firstExecution := f.seedExecution(t, first, f.today(), sentAt)
	secondExecution := f.seedExecution(t, second, f.today(), sentAt)

	err := service.HandleEvent(context.Background(), domainInbound.Event{
		From: "919876543210",
		Kind: domainInbound.KindText,
		Text: "completed",
	})
	require.NoError(t, err)

	// One sender, two open executions: nothing says which one they meant,
	// so both resolve.
	for _, id := range []string{firstExecution.ID, secondExecution.ID} {
		fresh, err := f.executionRepo.GetFresh(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, domain.ExecutionStatusCompleted, fresh.Status)
	}
}
