package webhook

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hipanai/jobpipeline/internal/domain"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// CallbackPayload is the verified, decoded body of an approval webhook
// delivery: `{action, job_id, user, channel, message_ts, edited_text?}`.
type CallbackPayload struct {
	Action     string `json:"action" validate:"required"`
	JobID      string `json:"job_id" validate:"required"`
	User       string `json:"user" validate:"required"`
	Channel    string `json:"channel" validate:"required"`
	MessageTS  string `json:"message_ts" validate:"required"`
	EditedText string `json:"edited_text"`
}

// Validate checks payload against its struct tags.
func (p CallbackPayload) Validate() error {
	if err := getValidator().Struct(p); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// CallbackResult is the outcome of processing one approval callback. It is
// always returned rather than an error for action-level failures — the
// handler surfaces failures in-band instead of raising past the request
// boundary, per the callback contract.
type CallbackResult struct {
	Success           bool
	JobID             string
	Action            string
	Status            domain.Status
	ApprovedAt        *time.Time
	TriggerSubmission bool
	// NeedsEditUI is set when action is "edit" with no edited_text: the
	// caller should open a modal/edit UI rather than apply a change.
	NeedsEditUI bool
	Error       string
}

// Handler dispatches verified approval callbacks onto the Sheet Store,
// updates the original channel message, and emits the submission trigger
// on approval.
type Handler struct {
	Sheet    domain.SheetStore
	Notifier domain.ApprovalNotifier
	Trigger  domain.SubmissionTrigger
}

// Process applies payload's action to the named job, persisting the
// resulting state and updating the channel message. It never returns an
// error for a recognized action; failures are reported on the result.
func (h *Handler) Process(ctx domain.Context, payload CallbackPayload) CallbackResult {
	switch payload.Action {
	case "approve":
		return h.approve(ctx, payload)
	case "reject":
		return h.reject(ctx, payload)
	case "edit":
		return h.edit(ctx, payload)
	default:
		return CallbackResult{
			Success: false,
			JobID:   payload.JobID,
			Action:  payload.Action,
			Error:   fmt.Sprintf("unknown action: %s", payload.Action),
		}
	}
}

func (h *Handler) approve(ctx domain.Context, payload CallbackPayload) CallbackResult {
	job, err := h.Sheet.GetByID(ctx, payload.JobID)
	if err != nil {
		return CallbackResult{Success: false, JobID: payload.JobID, Action: payload.Action, Error: err.Error()}
	}

	now := time.Now().UTC()
	job.Status = domain.StatusApproved
	job.ApprovedAt = &now
	job.SlackMessageTS = payload.MessageTS

	if err := h.Sheet.UpdateOne(ctx, job); err != nil {
		return CallbackResult{Success: false, JobID: payload.JobID, Action: payload.Action, Error: err.Error()}
	}

	if err := h.Notifier.UpdateMessage(ctx, payload.Channel, payload.MessageTS, job); err != nil {
		job.AppendFailure("approval_notifier", err)
	}

	if err := h.Trigger.Emit(ctx, job.ID); err != nil {
		job.AppendFailure("submission_trigger", err)
	}

	return CallbackResult{
		Success:           true,
		JobID:             job.ID,
		Action:            payload.Action,
		Status:            domain.StatusApproved,
		ApprovedAt:        &now,
		TriggerSubmission: true,
	}
}

func (h *Handler) reject(ctx domain.Context, payload CallbackPayload) CallbackResult {
	job, err := h.Sheet.GetByID(ctx, payload.JobID)
	if err != nil {
		return CallbackResult{Success: false, JobID: payload.JobID, Action: payload.Action, Error: err.Error()}
	}

	job.Status = domain.StatusRejected
	job.SlackMessageTS = payload.MessageTS

	if err := h.Sheet.UpdateOne(ctx, job); err != nil {
		return CallbackResult{Success: false, JobID: payload.JobID, Action: payload.Action, Error: err.Error()}
	}

	if err := h.Notifier.UpdateMessage(ctx, payload.Channel, payload.MessageTS, job); err != nil {
		job.AppendFailure("approval_notifier", err)
	}

	return CallbackResult{Success: true, JobID: job.ID, Action: payload.Action, Status: domain.StatusRejected}
}

func (h *Handler) edit(ctx domain.Context, payload CallbackPayload) CallbackResult {
	if payload.EditedText == "" {
		return CallbackResult{
			Success:     true,
			JobID:       payload.JobID,
			Action:      payload.Action,
			Status:      domain.StatusPendingApproval,
			NeedsEditUI: true,
		}
	}

	job, err := h.Sheet.GetByID(ctx, payload.JobID)
	if err != nil {
		return CallbackResult{Success: false, JobID: payload.JobID, Action: payload.Action, Error: err.Error()}
	}

	job.ProposalText = payload.EditedText
	job.Status = domain.StatusPendingApproval

	if err := h.Sheet.UpdateOne(ctx, job); err != nil {
		return CallbackResult{Success: false, JobID: payload.JobID, Action: payload.Action, Error: err.Error()}
	}

	return CallbackResult{Success: true, JobID: job.ID, Action: payload.Action, Status: domain.StatusPendingApproval}
}
