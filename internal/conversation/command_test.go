package conversation

import (
	"testing"

	"replypilot/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseIdleCommands(t *testing.T) {
	tests := []struct {
		name string
		body string
		want CommandType
	}{
		{"approve", "APPROVE", CmdApprove},
		{"lowercase", "approve", CmdApprove},
		{"surrounding whitespace", "  Edit  ", CmdEdit},
		{"ignore", "ignore", CmdIgnore},
		{"pause", "PAUSE", CmdPause},
		{"resume", "Resume", CmdResume},
		{"status", "STATUS", CmdStatus},
		{"billing", "billing", CmdBilling},
		{"cancel", "CANCEL", CmdCancel},
		{"help", "HELP", CmdHelp},
		{"stop", "STOP", CmdStop},
		{"gibberish", "what is this", CmdUnknown},
		{"empty", "   ", CmdUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.body, models.StateIdle)
			assert.Equal(t, tt.want, cmd.Type)
		})
	}
}

func TestParseTypoTolerance(t *testing.T) {
	assert.Equal(t, CmdApprove, Parse("APROVE", models.StateIdle).Type)
	assert.Equal(t, CmdApprove, Parse("approved", models.StateIdle).Type)
	assert.Equal(t, CmdCancel, Parse("cancle", models.StateIdle).Type)
	assert.Equal(t, CmdStatus, Parse("stats", models.StateIdle).Type)
	assert.Equal(t, CmdHelp, Parse("hlep", models.StateIdle).Type)
}

func TestParseYesNoOnlyMeaningfulDuringCancelConfirm(t *testing.T) {
	// Idle YES/NO must not accidentally trigger anything.
	assert.Equal(t, CmdUnknown, Parse("YES", models.StateIdle).Type)
	assert.Equal(t, CmdUnknown, Parse("no", models.StateIdle).Type)

	assert.Equal(t, CmdCancelConfirm, Parse("YES", models.StateAwaitingCancelConfirm).Type)
	assert.Equal(t, CmdCancelConfirm, Parse("yeah", models.StateAwaitingCancelConfirm).Type)
	assert.Equal(t, CmdCancelDeny, Parse("NO", models.StateAwaitingCancelConfirm).Type)
}

func TestParseCancelConfirmFailsSafe(t *testing.T) {
	// Anything other than an explicit yes keeps the subscription.
	for _, body := range []string{"maybe", "APPROVE", "sure?", "", "cancel"} {
		cmd := Parse(body, models.StateAwaitingCancelConfirm)
		assert.Equal(t, CmdCancelDeny, cmd.Type, "body %q", body)
	}
}

func TestParseCustomReplyCapture(t *testing.T) {
	cmd := Parse("  Thanks so much for the kind words, Maria!  ", models.StateAwaitingCustomReply)
	assert.Equal(t, CmdCustomReply, cmd.Type)
	assert.Equal(t, "Thanks so much for the kind words, Maria!", cmd.Argument)

	// Command words are captured verbatim, not interpreted...
	cmd = Parse("STATUS", models.StateAwaitingCustomReply)
	assert.Equal(t, CmdCustomReply, cmd.Type)
	assert.Equal(t, "STATUS", cmd.Argument)

	// ...except the capture overrides.
	assert.Equal(t, CmdIgnore, Parse("IGNORE", models.StateAwaitingCustomReply).Type)
	assert.Equal(t, CmdStop, Parse("stop", models.StateAwaitingCustomReply).Type)
}

func TestParseCompetitorAdd(t *testing.T) {
	cmd := Parse("COMPETITOR ADD Luigi's Pizzeria", models.StateIdle)
	assert.Equal(t, CmdCompetitorAdd, cmd.Type)
	assert.Equal(t, "Luigi's Pizzeria", cmd.Argument)

	// Bare verb prompts for the name.
	cmd = Parse("competitor", models.StateIdle)
	assert.Equal(t, CmdCompetitorAdd, cmd.Type)
	assert.Empty(t, cmd.Argument)

	// The name arrives as free text while the capture state is active.
	cmd = Parse("Luigi's Pizzeria", models.StateAwaitingCompetitorAdd)
	assert.Equal(t, CmdCompetitorAdd, cmd.Type)
	assert.Equal(t, "Luigi's Pizzeria", cmd.Argument)

	assert.Equal(t, CmdUnknown, Parse("COMPETITOR REMOVE Joe", models.StateIdle).Type)
}
