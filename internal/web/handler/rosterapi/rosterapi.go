// Package rosterapi exposes the roster lifecycle over HTTP: planning,
// publishing, actuals recording, self check-out, and deletion. The heavy
// lifting lives in rosterctl; this package translates requests and maps the
// controller's errors onto the API error codes.
package rosterapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/db/controller/rosterctl"
	"github.com/rosterbase/rosterbase/internal/db/models"
	"github.com/rosterbase/rosterbase/internal/roster"
	"github.com/rosterbase/rosterbase/internal/web/handler"
)

const (
	// Path is the base path for roster management.
	Path = handler.APIPath + "/rosters"

	// DateFormat is the wire format for roster dates.
	DateFormat = "2006-01-02"
)

// Service provides the roster endpoints.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
	validator   *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.authService = authService
	s.validator = validator.New()

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermRosterView),
		s.List,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, auth.PermRosterView),
		s.Get,
	)
	// Creating and editing are distinct permissions; which one applies is
	// only known once the (store, date, shift) triple has been resolved, so
	// Upsert itself runs the second, specific check.
	app.Post(Path,
		auth.RequireAnyPermission(authService, auth.PermRosterCreate, auth.PermRosterModify),
		s.Upsert,
	)
	app.Post(Path+"/:id/publish",
		auth.RequirePermission(authService, auth.PermRosterPublish),
		s.Publish,
	)
	app.Patch(Path+"/:id/actuals",
		auth.RequirePermission(authService, auth.PermActualsRecord),
		s.RecordActuals,
	)
	app.Delete(Path+"/:id/actuals/:slotId",
		auth.RequirePermission(authService, auth.PermActualsClear),
		s.ClearActuals,
	)
	app.Post(Path+"/:id/check-out",
		auth.RequirePermission(authService, auth.PermRosterCheckOut),
		s.CheckOut,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermRosterDelete),
		s.Delete,
	)

	return nil
}

// slotInput is one planned slot in an upsert payload.
type slotInput struct {
	PlannedUserID *uint64  `json:"plannedUserId"`
	TaskIDs       []uint64 `json:"taskIds"`
	StartTime     string   `json:"startTime" validate:"required"`
	EndTime       string   `json:"endTime"   validate:"required"`
}

// upsertInput is the create/replace payload. The (store, date, shift) triple
// identifies the roster; the slot set replaces whatever was planned before.
type upsertInput struct {
	StoreID    uint64      `json:"storeId"    validate:"required"`
	RosterDate string      `json:"rosterDate" validate:"required"`
	ShiftName  string      `json:"shiftName"  validate:"required,max=100"`
	Slots      []slotInput `json:"slots"      validate:"required,dive"`
}

// actualsInput is the actuals overlay payload for one slot. The same shape is
// accepted standalone or as an element of a bulk payload.
type actualsInput struct {
	SlotID               uint64   `json:"slotId"`
	ActualUserID         *uint64  `json:"actualUserId"`
	ActualStartTime      *string  `json:"actualStartTime"`
	ActualEndTime        *string  `json:"actualEndTime"`
	ActualTasksCompleted []uint64 `json:"actualTasksCompleted"`
	AttendanceStatus     string   `json:"attendanceStatus"`
	SubstitutionReason   string   `json:"substitutionReason"`
	ActualNotes          string   `json:"actualNotes"`
}

func (in *actualsInput) toControllerInput() rosterctl.ActualsInput {
	return rosterctl.ActualsInput{
		SlotID:               in.SlotID,
		ActualUserID:         in.ActualUserID,
		ActualStartTime:      in.ActualStartTime,
		ActualEndTime:        in.ActualEndTime,
		ActualTasksCompleted: in.ActualTasksCompleted,
		AttendanceStatus:     roster.AttendanceStatus(in.AttendanceStatus),
		SubstitutionReason:   in.SubstitutionReason,
		ActualNotes:          in.ActualNotes,
	}
}

// respondError maps controller errors onto the API error taxonomy.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, rosterctl.ErrRosterNotFound):
		return handler.NotFound(c, "roster not found")
	case errors.Is(err, rosterctl.ErrSlotNotFound):
		return handler.NotFound(c, "roster slot not found")
	case errors.Is(err, rosterctl.ErrDeletionInProgress):
		return handler.Fail(c, fiber.StatusConflict, handler.CodeOperationInProgress, err.Error())
	case errors.Is(err, rosterctl.ErrNotSlotOwner):
		return handler.Fail(c, fiber.StatusForbidden, handler.CodePermissionDenied, err.Error())
	case errors.Is(err, rosterctl.ErrShiftNameEmpty),
		errors.Is(err, rosterctl.ErrNoSlots),
		errors.Is(err, rosterctl.ErrInvalidTransition),
		errors.Is(err, rosterctl.ErrInvalidAttendance),
		errors.Is(err, roster.ErrBadTimeOfDay):
		return handler.ValidationError(c, err.Error())
	default:
		log.Error().Err(err).Msg("roster operation failed")

		return handler.InternalError(c)
	}
}

// rosterIDParam parses the :id path parameter.
func rosterIDParam(c *fiber.Ctx) (uint64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, errors.New("invalid roster id")
	}

	return uint64(id), nil
}

// slotInRoster checks that a slot belongs to the roster addressed by the
// request path, so actuals routes cannot reach across rosters.
func (s *Service) slotInRoster(rosterID, slotID uint64) (bool, error) {
	var count int64

	err := s.db.Model(&models.RosterSlot{}).
		Where("id = ? AND roster_id = ?", slotID, rosterID).
		Count(&count).Error
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	return count > 0, nil
}

// List returns the rosters of a store. A date range (from/to) lists all
// matching rosters; date plus shift resolves a single roster with the
// permissive shift-name matching.
func (s *Service) List(c *fiber.Ctx) error {
	storeID := c.QueryInt("storeId", 0)
	if storeID <= 0 {
		return handler.ValidationError(c, "storeId query parameter is required")
	}

	if shift := c.Query("shift"); shift != "" {
		date, err := time.Parse(DateFormat, c.Query("date"))
		if err != nil {
			return handler.ValidationError(c, "date must be YYYY-MM-DD")
		}

		r, err := rosterctl.FindByShift(s.db, uint64(storeID), date, shift)
		if err != nil {
			return respondError(c, err)
		}

		return handler.OK(c, r)
	}

	from, err := time.Parse(DateFormat, c.Query("from"))
	if err != nil {
		return handler.ValidationError(c, "from must be YYYY-MM-DD")
	}

	to, err := time.Parse(DateFormat, c.Query("to", c.Query("from")))
	if err != nil {
		return handler.ValidationError(c, "to must be YYYY-MM-DD")
	}

	rosters, err := rosterctl.List(s.db, uint64(storeID), from, to)
	if err != nil {
		return respondError(c, err)
	}

	return handler.OK(c, rosters)
}

// Get returns one roster with its slots.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := rosterIDParam(c)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	r, err := rosterctl.Get(s.db, id)
	if err != nil {
		return respondError(c, err)
	}

	return handler.OK(c, r)
}

// Upsert creates a roster or replaces its slot set.
func (s *Service) Upsert(c *fiber.Ctx) error {
	var in upsertInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	date, err := time.Parse(DateFormat, in.RosterDate)
	if err != nil {
		return handler.ValidationError(c, "rosterDate must be YYYY-MM-DD")
	}

	exists, err := rosterctl.Exists(s.db, in.StoreID, date, in.ShiftName)
	if err != nil {
		return respondError(c, err)
	}

	required := auth.PermRosterCreate
	if exists {
		required = auth.PermRosterModify
	}

	if resp := s.requirePermission(c, required); resp != nil {
		return resp()
	}

	slots := make([]rosterctl.SlotInput, 0, len(in.Slots))
	for _, slot := range in.Slots {
		slots = append(slots, rosterctl.SlotInput{
			PlannedUserID: slot.PlannedUserID,
			TaskIDs:       slot.TaskIDs,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
		})
	}

	current, _ := handler.CurrentUser(c)

	r, err := rosterctl.Upsert(s.db, current.ID, rosterctl.UpsertInput{
		StoreID:    in.StoreID,
		RosterDate: date,
		ShiftName:  in.ShiftName,
		Slots:      slots,
	})
	if err != nil {
		return respondError(c, err)
	}

	return handler.OK(c, r)
}

// Publish moves a draft roster to published.
func (s *Service) Publish(c *fiber.Ctx) error {
	id, err := rosterIDParam(c)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	current, _ := handler.CurrentUser(c)

	r, err := rosterctl.Publish(s.db, current.ID, id)
	if err != nil {
		return respondError(c, err)
	}

	return handler.OK(c, r)
}

// Delete removes a roster and its slots. A delete racing another delete of
// the same roster reports OPERATION_IN_PROGRESS rather than deleting twice.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := rosterIDParam(c)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	current, _ := handler.CurrentUser(c)

	if err := rosterctl.Delete(s.db, current.ID, id); err != nil {
		return respondError(c, err)
	}

	return handler.OK(c, nil)
}

// RecordActuals applies actuals overlays to the roster's slots. The body is
// either a single overlay or {"actuals": [...]} for best-effort bulk; bulk
// responses carry the success count and the per-slot failures, and partial
// success is still a 200.
func (s *Service) RecordActuals(c *fiber.Ctx) error {
	rosterID, err := rosterIDParam(c)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	var bulk struct {
		Actuals []actualsInput `json:"actuals"`
	}

	if err := c.BodyParser(&bulk); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	current, _ := handler.CurrentUser(c)

	if bulk.Actuals == nil {
		var in actualsInput

		if err := c.BodyParser(&in); err != nil {
			return handler.ValidationError(c, "invalid request body")
		}

		if resp := s.requireSlotInRoster(c, rosterID, in.SlotID); resp != nil {
			return resp()
		}

		// An explicit attendance status bypasses derivation, which only the
		// manager override permission allows.
		if in.AttendanceStatus != "" {
			if resp := s.requirePermission(c, auth.PermActualsOverride); resp != nil {
				return resp()
			}
		}

		slot, err := rosterctl.RecordActuals(s.db, current.ID, in.toControllerInput())
		if err != nil {
			return respondError(c, err)
		}

		return handler.OK(c, slot)
	}

	if len(bulk.Actuals) == 0 {
		return handler.ValidationError(c, "actuals cannot be empty")
	}

	// The override check runs once; denied items are skipped best-effort like
	// any other per-item failure.
	var overrideDenied func() error

	for i := range bulk.Actuals {
		if bulk.Actuals[i].AttendanceStatus != "" {
			overrideDenied = s.requirePermission(c, auth.PermActualsOverride)

			break
		}
	}

	items := make([]rosterctl.ActualsInput, 0, len(bulk.Actuals))

	var result rosterctl.BulkResult

	for i := range bulk.Actuals {
		item := &bulk.Actuals[i]

		if item.AttendanceStatus != "" && overrideDenied != nil {
			result.Errors = append(result.Errors, rosterctl.BulkError{
				SlotID:  item.SlotID,
				Message: "setting attendanceStatus requires the attendance override permission",
			})

			continue
		}

		ok, err := s.slotInRoster(rosterID, item.SlotID)
		if err != nil {
			log.Error().Err(err).Msg("slot lookup failed")

			return handler.InternalError(c)
		}

		if !ok {
			result.Errors = append(result.Errors, rosterctl.BulkError{
				SlotID:  item.SlotID,
				Message: rosterctl.ErrSlotNotFound.Error(),
			})

			continue
		}

		items = append(items, item.toControllerInput())
	}

	bulkResult, err := rosterctl.RecordActualsBulk(s.db, current.ID, items)
	if err != nil {
		return respondError(c, err)
	}

	bulkResult.Errors = append(bulkResult.Errors, result.Errors...)

	return handler.OK(c, bulkResult)
}

// ClearActuals removes the whole actuals overlay from one slot.
func (s *Service) ClearActuals(c *fiber.Ctx) error {
	rosterID, err := rosterIDParam(c)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	slotID, err := c.ParamsInt("slotId")
	if err != nil || slotID <= 0 {
		return handler.ValidationError(c, "invalid slot id")
	}

	if resp := s.requireSlotInRoster(c, rosterID, uint64(slotID)); resp != nil {
		return resp()
	}

	current, _ := handler.CurrentUser(c)

	if err := rosterctl.ClearActuals(s.db, current.ID, uint64(slotID)); err != nil {
		return respondError(c, err)
	}

	return handler.OK(c, nil)
}

// CheckOut lets a user end their own slot on this roster. With no explicit
// slotId in the body, the caller's slot is resolved from their planned or
// actual assignment.
func (s *Service) CheckOut(c *fiber.Ctx) error {
	rosterID, err := rosterIDParam(c)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	var in struct {
		SlotID        uint64 `json:"slotId"`
		ActualEndTime string `json:"actualEndTime"`
	}

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if in.ActualEndTime == "" {
		return handler.ValidationError(c, "actualEndTime is required")
	}

	current, ok := handler.CurrentUser(c)
	if !ok {
		return handler.Fail(c, fiber.StatusUnauthorized, handler.CodeUnauthorized, "authentication required")
	}

	slotID := in.SlotID
	if slotID == 0 {
		var slot models.RosterSlot

		err := s.db.Where("roster_id = ? AND (planned_user_id = ? OR actual_user_id = ?)",
			rosterID, current.ID, current.ID).
			Order("id ASC").
			First(&slot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, rosterctl.ErrNotSlotOwner)
		}

		if err != nil {
			log.Error().Err(err).Msg("slot lookup failed")

			return handler.InternalError(c)
		}

		slotID = slot.ID
	} else if resp := s.requireSlotInRoster(c, rosterID, slotID); resp != nil {
		return resp()
	}

	slot, err := rosterctl.CheckOut(s.db, current.ID, slotID, in.ActualEndTime)
	if err != nil {
		return respondError(c, err)
	}

	return handler.OK(c, slot)
}

// requirePermission runs a second, specific permission check for routes whose
// coarse middleware gate is not enough. The returned responder is non-nil
// when the request must stop.
func (s *Service) requirePermission(c *fiber.Ctx, permission string) func() error {
	current, ok := handler.CurrentUser(c)
	if !ok {
		return func() error {
			return handler.Fail(c, fiber.StatusUnauthorized, handler.CodeUnauthorized,
				"authentication required")
		}
	}

	decision, err := s.authService.CanPerformAction(&current, permission, nil)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", current.ID).Str("permission", permission).
			Msg("failed to check permission")

		return func() error { return handler.InternalError(c) }
	}

	if !decision.Allowed {
		return func() error {
			return handler.Fail(c, fiber.StatusForbidden, handler.CodePermissionDenied, decision.Reason)
		}
	}

	return nil
}

// requireSlotInRoster returns a non-nil responder when the slot does not
// belong to the addressed roster.
func (s *Service) requireSlotInRoster(c *fiber.Ctx, rosterID, slotID uint64) func() error {
	ok, err := s.slotInRoster(rosterID, slotID)
	if err != nil {
		log.Error().Err(err).Msg("slot lookup failed")

		return func() error { return handler.InternalError(c) }
	}

	if !ok {
		return func() error { return handler.NotFound(c, "roster slot not found") }
	}

	return nil
}
