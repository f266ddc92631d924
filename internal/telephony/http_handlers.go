package telephony

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"convohub-platform/pkg/logger"
)

// WebhookHandler converts Twilio webhooks to internal types and delegates to
// the ingestor.
//
// No business logic here.
//
// Tenant scoping:
//   - merchant_id is resolved from the dialed/receiving number by an injected
//     resolver, keeping persistence assumptions out of the adapter.
//
// Error posture: once merchant resolution and parsing succeed, the handler
// always acknowledges. Persistence failures are logged; failing the webhook
// would only make the provider redeliver a payload we already cannot store.

type WebhookHandler struct {
	Ingestor *Ingestor

	// MerchantIDResolver resolves which merchant owns the receiving number.
	MerchantIDResolver func(c *gin.Context, toNumber string) (string, error)
}

func (h WebhookHandler) HandleInboundSMS(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Ingestor == nil || h.MerchantIDResolver == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook handler not configured"})
		return
	}

	form, err := ParseTwilioSMS(c.Request)
	if err != nil {
		log.Warn("twilio sms parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	merchantID, err := h.MerchantIDResolver(c, form.To)
	if err != nil {
		log.Warn("merchant resolution failed", "to", form.To, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown destination"})
		return
	}

	if _, err := h.Ingestor.IngestSMS(c.Request.Context(), merchantID, form); err != nil {
		log.Error("sms ingest failed", "message_sid", form.MessageSid, "err", err)
	}

	h.writeTwiML(c, "")
}

func (h WebhookHandler) HandleVoiceStatus(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Ingestor == nil || h.MerchantIDResolver == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook handler not configured"})
		return
	}

	form, err := ParseTwilioVoice(c.Request)
	if err != nil {
		log.Warn("twilio voice parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	merchantID, err := h.MerchantIDResolver(c, form.To)
	if err != nil {
		log.Warn("merchant resolution failed", "to", form.To, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown destination"})
		return
	}

	if _, err := h.Ingestor.IngestVoiceEvent(c.Request.Context(), merchantID, form); err != nil {
		log.Error("voice ingest failed", "call_sid", form.CallSid, "err", err)
	}

	h.writeTwiML(c, "")
}

func (h WebhookHandler) writeTwiML(c *gin.Context, reply string) {
	twiml, err := RenderAckTwiML(reply)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
