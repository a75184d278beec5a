package validations

import (
	"context"
	"testing"

	domainReminder "github.com/AzielCF/az-remind/domains/reminder"
	pkgError "github.com/AzielCF/az-remind/pkg/error"
	"github.com/stretchr/testify/assert"
)

func validCreate() domainReminder.CreateRequest {
	return domainReminder.CreateRequest{
		Phone:        "9876543210",
		Title:        "Morning walk",
		Message:      "Time for your morning walk!",
		ReminderTime: "08:00",
		FollowUpTime: "09:00",
	}
}

func TestValidateCreateReminder(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateCreateReminder(ctx, validCreate()))

	missingPhone := validCreate()
	missingPhone.Phone = ""
	assert.Error(t, ValidateCreateReminder(ctx, missingPhone))

	badTime := validCreate()
	badTime.ReminderTime = "8am"
	assert.Error(t, ValidateCreateReminder(ctx, badTime))

	hourOutOfRange := validCreate()
	hourOutOfRange.ReminderTime = "24:00"
	assert.Error(t, ValidateCreateReminder(ctx, hourOutOfRange))

	noFollowUp := validCreate()
	noFollowUp.FollowUpTime = ""
	assert.NoError(t, ValidateCreateReminder(ctx, noFollowUp), "follow-up time is optional")
}

func TestValidateCreateReminder_ReturnsTypedError(t *testing.T) {
	request := validCreate()
	request.Title = ""
	err := ValidateCreateReminder(context.Background(), request)

	var generic pkgError.GenericError
	assert.ErrorAs(t, err, &generic)
	assert.Equal(t, 400, generic.StatusCode())
}

func TestValidateUpdateReminder(t *testing.T) {
	ctx := context.Background()
	title := "New title"
	badTime := "25:00"
	emptyFollowUp := ""
	badStatus := "snoozed"
	goodStatus := "completed"

	assert.NoError(t, ValidateUpdateReminder(ctx, domainReminder.UpdateRequest{ID: "r1", Title: &title}))
	assert.Error(t, ValidateUpdateReminder(ctx, domainReminder.UpdateRequest{Title: &title}), "id is required")
	assert.Error(t, ValidateUpdateReminder(ctx, domainReminder.UpdateRequest{ID: "r1", ReminderTime: &badTime}))
	assert.NoError(t, ValidateUpdateReminder(ctx, domainReminder.UpdateRequest{ID: "r1", FollowUpTime: &emptyFollowUp}), "clearing the follow-up is allowed")
	assert.Error(t, ValidateUpdateReminder(ctx, domainReminder.UpdateRequest{ID: "r1", DailyStatus: &badStatus}))
	assert.NoError(t, ValidateUpdateReminder(ctx, domainReminder.UpdateRequest{ID: "r1", DailyStatus: &goodStatus}))
}

func TestValidateBlockFollowUp(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ValidateBlockFollowUp(ctx, domainReminder.BlockFollowUpRequest{Phone: "9876543210"}))
	assert.Error(t, ValidateBlockFollowUp(ctx, domainReminder.BlockFollowUpRequest{}))
}
