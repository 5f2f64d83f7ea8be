package conversation

import (
	"strings"

	"replypilot/backend/internal/models"
)

// CommandType identifies a parsed inbound SMS command
type CommandType string

const (
	CmdApprove       CommandType = "APPROVE"
	CmdEdit          CommandType = "EDIT"
	CmdIgnore        CommandType = "IGNORE"
	CmdPause         CommandType = "PAUSE"
	CmdResume        CommandType = "RESUME"
	CmdStatus        CommandType = "STATUS"
	CmdBilling       CommandType = "BILLING"
	CmdCancel        CommandType = "CANCEL"
	CmdHelp          CommandType = "HELP"
	CmdStop          CommandType = "STOP"
	CmdCancelConfirm CommandType = "CANCEL_CONFIRM"
	CmdCancelDeny    CommandType = "CANCEL_DENY"
	CmdCustomReply   CommandType = "CUSTOM_REPLY"
	CmdCompetitorAdd CommandType = "COMPETITOR_ADD"
	CmdUnknown       CommandType = "UNKNOWN"
)

// Command is one parsed inbound message. Argument carries free-form text
// (a custom reply or a competitor name) with its original casing.
type Command struct {
	Type     CommandType
	Argument string
}

// exactCommands is the fixed dictionary matched after normalization
var exactCommands = map[string]CommandType{
	"APPROVE": CmdApprove,
	"EDIT":    CmdEdit,
	"IGNORE":  CmdIgnore,
	"PAUSE":   CmdPause,
	"RESUME":  CmdResume,
	"STATUS":  CmdStatus,
	"BILLING": CmdBilling,
	"CANCEL":  CmdCancel,
	"HELP":    CmdHelp,
	"STOP":    CmdStop,
}

// typoCommands maps common single-edit misspellings to their command
var typoCommands = map[string]CommandType{
	"APROVE":   CmdApprove,
	"APPROV":   CmdApprove,
	"APPOVE":   CmdApprove,
	"APPROVED": CmdApprove,
	"EDTI":     CmdEdit,
	"EIDT":     CmdEdit,
	"IGNOR":    CmdIgnore,
	"INGORE":   CmdIgnore,
	"PUASE":    CmdPause,
	"RESUM":    CmdResume,
	"STAUS":    CmdStatus,
	"STATS":    CmdStatus,
	"BILING":   CmdBilling,
	"CANCLE":   CmdCancel,
	"CANCEL.":  CmdCancel,
	"HLEP":     CmdHelp,
}

var yesTokens = map[string]bool{
	"YES": true, "Y": true, "YEAH": true, "YEP": true, "CONFIRM": true,
}

var noTokens = map[string]bool{
	"NO": true, "N": true, "NOPE": true, "KEEP": true,
}

// captureOverrides are the only commands honored while a capture state is
// waiting for free text. Everything else, including YES/NO, is taken
// verbatim as the captured text.
var captureOverrides = map[string]CommandType{
	"IGNORE": CmdIgnore,
	"STOP":   CmdStop,
}

// Parse interprets an inbound body against the current conversation state.
// Normalization (trim + uppercase) applies to matching only; free-form
// arguments keep the sender's original text.
func Parse(rawBody string, state models.ConversationState) Command {
	trimmed := strings.TrimSpace(rawBody)
	upper := strings.ToUpper(trimmed)

	switch state {
	case models.StateAwaitingCustomReply:
		if cmd, ok := captureOverrides[upper]; ok {
			return Command{Type: cmd}
		}
		return Command{Type: CmdCustomReply, Argument: trimmed}

	case models.StateAwaitingCompetitorAdd:
		if cmd, ok := captureOverrides[upper]; ok {
			return Command{Type: cmd}
		}
		return Command{Type: CmdCompetitorAdd, Argument: trimmed}

	case models.StateAwaitingCancelConfirm:
		if yesTokens[upper] {
			return Command{Type: CmdCancelConfirm}
		}
		// Ambiguous input never cancels a subscription.
		return Command{Type: CmdCancelDeny}
	}

	// Idle: YES/NO only ever mean something while a cancel confirmation is
	// pending, so here they fall through to UNKNOWN.
	if yesTokens[upper] || noTokens[upper] {
		return Command{Type: CmdUnknown}
	}

	if cmd, ok := exactCommands[upper]; ok {
		return Command{Type: cmd}
	}
	if cmd, ok := typoCommands[upper]; ok {
		return Command{Type: cmd}
	}

	if cmd, ok := parseCompound(trimmed, upper); ok {
		return cmd
	}

	return Command{Type: CmdUnknown}
}

// parseCompound handles multi-word verb phrases, currently the competitor
// vocabulary: "COMPETITOR ADD <name>" (and the bare forms that prompt for
// the name).
func parseCompound(trimmed, upper string) (Command, bool) {
	fields := strings.Fields(upper)
	if len(fields) == 0 || fields[0] != "COMPETITOR" {
		return Command{}, false
	}

	if len(fields) == 1 {
		return Command{Type: CmdCompetitorAdd}, true
	}
	if fields[1] != "ADD" {
		return Command{}, false
	}

	// Recover the argument with original casing by slicing off the two
	// leading verb tokens from the raw text.
	rawFields := strings.Fields(trimmed)
	arg := strings.Join(rawFields[2:], " ")
	return Command{Type: CmdCompetitorAdd, Argument: arg}, true
}
