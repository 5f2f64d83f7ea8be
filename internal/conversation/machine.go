package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"replypilot/backend/internal/billing"
	"replypilot/backend/internal/metrics"
	"replypilot/backend/internal/models"
	"replypilot/backend/internal/repository"
	"replypilot/backend/pkg/logger"
)

// Replies the owner can receive. Deterministic so the conversational
// channel behaves the same on every run, including on internal failure.
const (
	replyFallback       = "Something went wrong on our end. Please try again in a moment."
	replyUnknownNumber  = "This number isn't linked to a ReplyPilot account. Visit your dashboard to connect it."
	replyNothingPending = "There's no review waiting on you right now. Text STATUS for an overview."
	replyApproved       = "Got it. Your reply is approved and will be posted shortly."
	replyEditPrompt     = "Text your reply and we'll post it word-for-word."
	replyCustomSaved    = "Your reply is saved and will be posted shortly."
	replyIgnored        = "Okay, we won't reply to that review."
	replyPaused         = "Monitoring paused. Text RESUME to pick back up."
	replyResumed        = "Monitoring resumed. We'll text you about new reviews."
	replyCancelPrompt   = "This cancels your subscription. Reply YES to confirm or NO to keep it."
	replyCancelDone     = "Your subscription is cancelled. Sorry to see you go."
	replyCancelKept     = "No changes made. Your subscription is still active."
	replyStopped        = "You're opted out and monitoring is paused. Text RESUME to opt back in."
	replyCompetitorAsk  = "Reply with the competitor's name and we'll start tracking them."
	replyHelp           = "Commands: APPROVE, EDIT, IGNORE, PAUSE, RESUME, STATUS, BILLING, CANCEL, HELP, STOP."
	replyUnknown        = "Sorry, I didn't catch that. " + replyHelp
)

// Machine executes parsed commands against per-phone conversation state
type Machine struct {
	contexts   repository.ContextRepository
	businesses repository.BusinessRepository
	reviews    repository.ReviewRepository
	drafts     repository.DraftRepository
	billing    billing.Portal
	log        *logger.Logger
}

// NewMachine creates a conversation state machine
func NewMachine(
	contexts repository.ContextRepository,
	businesses repository.BusinessRepository,
	reviews repository.ReviewRepository,
	drafts repository.DraftRepository,
	portal billing.Portal,
	log *logger.Logger,
) *Machine {
	return &Machine{
		contexts:   contexts,
		businesses: businesses,
		reviews:    reviews,
		drafts:     drafts,
		billing:    portal,
		log:        log,
	}
}

// Result is the outcome of handling one inbound message
type Result struct {
	Reply      string
	Command    CommandType
	BusinessID uint
}

// Handle processes one inbound SMS and returns the reply to send back.
// It never returns an empty reply: internal failures resolve to the
// deterministic fallback message so the channel cannot hang.
func (m *Machine) Handle(ctx context.Context, phone, body string) Result {
	business, err := m.businesses.GetByPhone(phone)
	if err != nil {
		return Result{Reply: replyUnknownNumber, Command: CmdUnknown}
	}

	convCtx, err := m.contexts.GetOrCreate(phone, business.ID)
	if err != nil {
		m.log.LogError(err, "failed to load conversation context", "phone", phone)
		return Result{Reply: replyFallback, Command: CmdUnknown, BusinessID: business.ID}
	}

	cmd := Parse(body, convCtx.State)
	metrics.CommandsProcessed.WithLabelValues(string(cmd.Type)).Inc()

	reply := m.execute(ctx, business, convCtx, cmd)

	if err := m.contexts.Save(convCtx); err != nil {
		m.log.LogError(err, "failed to persist conversation context", "phone", phone)
		return Result{Reply: replyFallback, Command: cmd.Type, BusinessID: business.ID}
	}
	return Result{Reply: reply, Command: cmd.Type, BusinessID: business.ID}
}

func (m *Machine) execute(ctx context.Context, business *models.Business, convCtx *models.ConversationContext, cmd Command) string {
	switch cmd.Type {
	case CmdApprove:
		return m.handleApprove(convCtx)
	case CmdEdit:
		return m.handleEdit(convCtx)
	case CmdCustomReply:
		return m.handleCustomReply(convCtx, cmd.Argument)
	case CmdIgnore:
		return m.handleIgnore(convCtx)
	case CmdPause:
		return m.setPaused(business, true, replyPaused)
	case CmdResume:
		return m.handleResume(business)
	case CmdStatus:
		return m.handleStatus(business, convCtx)
	case CmdBilling:
		return m.handleBilling(ctx, business)
	case CmdCancel:
		convCtx.State = models.StateAwaitingCancelConfirm
		return replyCancelPrompt
	case CmdCancelConfirm:
		return m.handleCancelConfirm(ctx, business, convCtx)
	case CmdCancelDeny:
		convCtx.State = models.StateIdle
		return replyCancelKept
	case CmdStop:
		return m.handleStop(business, convCtx)
	case CmdCompetitorAdd:
		return m.handleCompetitorAdd(business, convCtx, cmd.Argument)
	case CmdHelp:
		return replyHelp
	default:
		return replyUnknown
	}
}

func (m *Machine) handleApprove(convCtx *models.ConversationContext) string {
	if convCtx.PendingReviewID == nil {
		return replyNothingPending
	}

	draft, err := m.drafts.GetLatestByReviewID(*convCtx.PendingReviewID)
	if err != nil {
		m.log.LogError(err, "failed to load draft for approval", "review_id", *convCtx.PendingReviewID)
		return replyFallback
	}

	now := time.Now()
	draft.Status = models.DraftApproved
	draft.ApprovedAt = &now
	if err := m.drafts.Save(draft); err != nil {
		m.log.LogError(err, "failed to approve draft", "draft_id", draft.ID)
		return replyFallback
	}

	convCtx.PendingReviewID = nil
	convCtx.State = models.StateIdle
	return replyApproved
}

func (m *Machine) handleEdit(convCtx *models.ConversationContext) string {
	if convCtx.PendingReviewID == nil {
		return replyNothingPending
	}
	convCtx.State = models.StateAwaitingCustomReply
	return replyEditPrompt
}

func (m *Machine) handleCustomReply(convCtx *models.ConversationContext, text string) string {
	if convCtx.PendingReviewID == nil {
		// Waiting state without a pending review should be unreachable;
		// recover to idle rather than trap the conversation.
		convCtx.State = models.StateIdle
		return replyNothingPending
	}

	draft, err := m.drafts.GetLatestByReviewID(*convCtx.PendingReviewID)
	if err != nil {
		m.log.LogError(err, "failed to load draft for custom reply", "review_id", *convCtx.PendingReviewID)
		return replyFallback
	}

	now := time.Now()
	draft.Text = text
	draft.Status = models.DraftApproved
	draft.ApprovedAt = &now
	if err := m.drafts.Save(draft); err != nil {
		m.log.LogError(err, "failed to save custom reply", "draft_id", draft.ID)
		return replyFallback
	}

	convCtx.PendingReviewID = nil
	convCtx.State = models.StateIdle
	return replyCustomSaved
}

func (m *Machine) handleIgnore(convCtx *models.ConversationContext) string {
	if convCtx.PendingReviewID == nil {
		convCtx.State = models.StateIdle
		return replyNothingPending
	}

	draft, err := m.drafts.GetLatestByReviewID(*convCtx.PendingReviewID)
	if err != nil {
		m.log.LogError(err, "failed to load draft to reject", "review_id", *convCtx.PendingReviewID)
		return replyFallback
	}
	draft.Status = models.DraftRejected
	if err := m.drafts.Save(draft); err != nil {
		m.log.LogError(err, "failed to reject draft", "draft_id", draft.ID)
		return replyFallback
	}

	convCtx.PendingReviewID = nil
	convCtx.State = models.StateIdle
	return replyIgnored
}

func (m *Machine) setPaused(business *models.Business, paused bool, reply string) string {
	business.MonitoringPaused = paused
	if err := m.businesses.Save(business); err != nil {
		m.log.LogError(err, "failed to update monitoring flag", "business_id", business.ID)
		return replyFallback
	}
	return reply
}

func (m *Machine) handleResume(business *models.Business) string {
	business.MonitoringPaused = false
	business.SMSOptOut = false
	if err := m.businesses.Save(business); err != nil {
		m.log.LogError(err, "failed to resume monitoring", "business_id", business.ID)
		return replyFallback
	}
	return replyResumed
}

func (m *Machine) handleStatus(business *models.Business, convCtx *models.ConversationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: monitoring %s.", business.Name, statusWord(business))

	if convCtx.PendingReviewID != nil {
		fmt.Fprintf(&b, " A review is waiting on your approval.")
	}

	sources, err := m.businesses.ListSources(business.ID)
	if err != nil {
		m.log.LogError(err, "failed to list sources for status", "business_id", business.ID)
		return b.String()
	}
	var revoked []string
	for _, s := range sources {
		if s.CredentialsRevoked {
			revoked = append(revoked, s.Platform)
		}
	}
	if len(revoked) > 0 {
		fmt.Fprintf(&b, " Action needed: reconnect %s from your dashboard.", strings.Join(revoked, ", "))
	}
	return b.String()
}

func statusWord(business *models.Business) string {
	if business.MonitoringPaused {
		return "paused"
	}
	return "active"
}

func (m *Machine) handleBilling(ctx context.Context, business *models.Business) string {
	link, err := m.billing.PortalLink(ctx, business.ID)
	if err != nil {
		m.log.LogError(err, "failed to fetch billing portal link", "business_id", business.ID)
		return replyFallback
	}
	return "Manage your billing here: " + link
}

// handleCancelConfirm cancels with the billing provider first; local state
// is only persisted once the external call succeeds.
func (m *Machine) handleCancelConfirm(ctx context.Context, business *models.Business, convCtx *models.ConversationContext) string {
	convCtx.State = models.StateIdle

	if err := m.billing.CancelSubscription(ctx, business.ID); err != nil {
		m.log.LogError(err, "subscription cancellation failed", "business_id", business.ID)
		return replyFallback
	}

	business.Cancelled = true
	if err := m.businesses.Save(business); err != nil {
		m.log.LogError(err, "failed to persist cancellation", "business_id", business.ID)
		return replyFallback
	}
	return replyCancelDone
}

func (m *Machine) handleStop(business *models.Business, convCtx *models.ConversationContext) string {
	business.SMSOptOut = true
	business.MonitoringPaused = true
	if err := m.businesses.Save(business); err != nil {
		m.log.LogError(err, "failed to record opt-out", "business_id", business.ID)
		return replyFallback
	}
	convCtx.PendingReviewID = nil
	convCtx.State = models.StateIdle
	return replyStopped
}

func (m *Machine) handleCompetitorAdd(business *models.Business, convCtx *models.ConversationContext, name string) string {
	if name == "" {
		convCtx.State = models.StateAwaitingCompetitorAdd
		return replyCompetitorAsk
	}

	competitor := &models.Competitor{BusinessID: business.ID, Name: name}
	if err := m.businesses.AddCompetitor(competitor); err != nil {
		m.log.LogError(err, "failed to add competitor", "business_id", business.ID)
		return replyFallback
	}
	convCtx.State = models.StateIdle
	return fmt.Sprintf("Now tracking %s.", name)
}
