package rest

import (
	domainReminder "github.com/AzielCF/az-remind/domains/reminder"
	"github.com/AzielCF/az-remind/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Reminder struct {
	Service domainReminder.IReminderUsecase
}

func InitRestReminder(app fiber.Router, service domainReminder.IReminderUsecase) Reminder {
	handler := Reminder{Service: service}

	group := app.Group("/api/reminders")
	group.Get("/", handler.List)
	group.Post("/", handler.Create)
	group.Get("/:id", handler.Get)
	group.Put("/:id", handler.Update)
	group.Delete("/:id", handler.Delete)
	group.Post("/block-followup", handler.BlockFollowUp)

	return handler
}

func (handler *Reminder) List(c *fiber.Ctx) error {
	views, err := handler.Service.ListWithTodayStatus(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Reminders retrieved",
		Results: views,
	})
}

func (handler *Reminder) Create(c *fiber.Ctx) error {
	var request domainReminder.CreateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	reminder, err := handler.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Reminder created",
		Results: reminder,
	})
}

func (handler *Reminder) Get(c *fiber.Ctx) error {
	reminder, err := handler.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Reminder retrieved",
		Results: reminder,
	})
}

func (handler *Reminder) Update(c *fiber.Ctx) error {
	var request domainReminder.UpdateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	request.ID = c.Params("id")

	reminder, err := handler.Service.Update(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Reminder updated",
		Results: reminder,
	})
}

func (handler *Reminder) Delete(c *fiber.Ctx) error {
	err := handler.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Reminder deleted",
	})
}

func (handler *Reminder) BlockFollowUp(c *fiber.Ctx) error {
	var request domainReminder.BlockFollowUpRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	utils.SanitizePhone(&request.Phone)

	response, err := handler.Service.BlockFollowUp(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Follow-ups blocked",
		Results: response,
	})
}
