package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"io"
	"net/http"
	"time"

	"replypilot/backend/internal/conversation"
	"replypilot/backend/internal/models"
	"replypilot/backend/internal/repository"
	"replypilot/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const inboundDedupTTL = 24 * time.Hour

// DedupGuard is the fast-path duplicate check in front of the notification
// log. FirstSeen returns false when the key was already claimed.
type DedupGuard interface {
	FirstSeen(key string, ttl time.Duration) bool
}

// twiml is the gateway reply markup wrapped around outbound message text
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// WebhookController handles SMS gateway callbacks
type WebhookController struct {
	machine       *conversation.Machine
	logs          repository.NotificationLogRepository
	dedup         DedupGuard
	webhookSecret string
	log           *logger.Logger
}

// NewWebhookController creates a webhook controller
func NewWebhookController(
	machine *conversation.Machine,
	logs repository.NotificationLogRepository,
	dedup DedupGuard,
	webhookSecret string,
	log *logger.Logger,
) *WebhookController {
	return &WebhookController{
		machine:       machine,
		logs:          logs,
		dedup:         dedup,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// RegisterRoutes registers the webhook routes
func (c *WebhookController) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/webhooks/sms")
	{
		group.POST("/inbound", c.InboundSMS)
		group.POST("/status", c.DeliveryStatus)
	}
}

// InboundSMS processes one owner message. Duplicate gateway deliveries of
// the same MessageSid are acknowledged without re-running the command.
func (c *WebhookController) InboundSMS(ctx *gin.Context) {
	if !c.verifySignature(ctx) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	from := ctx.PostForm("From")
	body := ctx.PostForm("Body")
	messageSid := ctx.PostForm("MessageSid")

	if from == "" || body == "" {
		// Malformed payload: reply with the generic fallback, touch nothing.
		c.respondTwiML(ctx, "Sorry, we couldn't read that message. Please try again.")
		return
	}

	if c.isDuplicate(messageSid) {
		c.log.Info("duplicate inbound message ignored", "gateway_message_id", messageSid)
		c.respondTwiML(ctx, "")
		return
	}

	result := c.machine.Handle(ctx.Request.Context(), from, body)

	entry := &models.NotificationLog{
		BusinessID:       result.BusinessID,
		Direction:        models.DirectionInbound,
		Phone:            from,
		Body:             body,
		ParsedCommand:    string(result.Command),
		DeliveryStatus:   models.DeliveryDelivered,
		GatewayMessageID: messageSid,
	}
	if err := c.logs.Create(entry); err != nil {
		c.log.LogError(err, "failed to record inbound message", "gateway_message_id", messageSid)
	}

	c.respondTwiML(ctx, result.Reply)
}

// DeliveryStatus updates the notification log for a delivery callback.
// Always acknowledges 200; the gateway retries nothing useful on error.
func (c *WebhookController) DeliveryStatus(ctx *gin.Context) {
	messageSid := ctx.PostForm("MessageSid")
	status := ctx.PostForm("MessageStatus")

	if messageSid != "" && status != "" {
		if err := c.logs.UpdateDeliveryStatus(messageSid, status); err != nil {
			c.log.LogError(err, "failed to update delivery status",
				"gateway_message_id", messageSid, "status", status)
		}
	}
	ctx.Status(http.StatusOK)
}

// isDuplicate checks the fast-path guard first, then the durable log
func (c *WebhookController) isDuplicate(messageSid string) bool {
	if messageSid == "" {
		return false
	}
	if !c.dedup.FirstSeen("sms:inbound:"+messageSid, inboundDedupTTL) {
		return true
	}
	seen, err := c.logs.ExistsByGatewayMessageID(messageSid)
	if err != nil {
		c.log.LogError(err, "duplicate check failed", "gateway_message_id", messageSid)
		return false
	}
	return seen
}

// verifySignature checks the HMAC signature header when a webhook secret is
// configured. Startup refuses to run in production without one.
func (c *WebhookController) verifySignature(ctx *gin.Context) bool {
	if c.webhookSecret == "" {
		return true
	}

	provided := ctx.GetHeader("X-Webhook-Signature")
	if provided == "" {
		return false
	}

	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		return false
	}
	ctx.Request.Body = io.NopCloser(bytes.NewReader(payload))

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(provided), []byte(expected))
}

func (c *WebhookController) respondTwiML(ctx *gin.Context, message string) {
	ctx.XML(http.StatusOK, twiml{Message: message})
}
