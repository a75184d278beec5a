package validations

import (
	"context"
	"regexp"

	domainReminder "github.com/AzielCF/az-remind/domains/reminder"
	pkgError "github.com/AzielCF/az-remind/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// hhmmRule validates a 24h "HH:MM" wall-clock string.
var hhmmRule = validation.Match(hhmmPattern).Error("must be a 24h HH:MM time")

func ValidateCreateReminder(ctx context.Context, request domainReminder.CreateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Phone, validation.Required),
		validation.Field(&request.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&request.Message, validation.Required),
		validation.Field(&request.ReminderTime, validation.Required, hhmmRule),
		validation.Field(&request.FollowUpTime, hhmmRule),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateUpdateReminder(ctx context.Context, request domainReminder.UpdateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ID, validation.Required),
		validation.Field(&request.Phone, validation.NilOrNotEmpty),
		validation.Field(&request.Title, validation.NilOrNotEmpty),
		validation.Field(&request.Message, validation.NilOrNotEmpty),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	if request.ReminderTime != nil && !hhmmPattern.MatchString(*request.ReminderTime) {
		return pkgError.ValidationError("reminder_time: must be a 24h HH:MM time.")
	}
	if request.FollowUpTime != nil && *request.FollowUpTime != "" && !hhmmPattern.MatchString(*request.FollowUpTime) {
		return pkgError.ValidationError("follow_up_time: must be a 24h HH:MM time.")
	}
	if request.DailyStatus != nil {
		switch *request.DailyStatus {
		case "pending", "sent", "replied", "completed", "missed", "failed":
		default:
			return pkgError.ValidationError("daily_status: must be one of pending, sent, replied, completed, missed, failed.")
		}
	}
	return nil
}

func ValidateBlockFollowUp(ctx context.Context, request domainReminder.BlockFollowUpRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Phone, validation.Required),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
