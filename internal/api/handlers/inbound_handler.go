package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api/response"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
)

const maxFormMemory = 10 << 20

// Webhook fields that only authenticate the delivery and are not kept with
// the payload.
var signatureFields = []string{"timestamp", "token", "signature"}

// Processor runs one payload through the ingestion pipeline.
type Processor interface {
	Process(ctx context.Context, payload inbound.Payload) pipeline.Result
}

// InboundHandler accepts deliveries from the email relay, the booking widget
// and raw MIME forwarders.
type InboundHandler struct {
	processor  Processor
	signingKey string
	security   *logger.SecurityLogger
}

// NewInboundHandler creates a new InboundHandler. An empty signingKey turns
// off webhook signature checks; rejected webhooks are recorded on security,
// which may be nil.
func NewInboundHandler(processor Processor, signingKey string, security *logger.SecurityLogger) *InboundHandler {
	return &InboundHandler{
		processor:  processor,
		signingKey: signingKey,
		security:   security,
	}
}

// Email handles POST /inbound/email, a Mailgun-style form or multipart
// webhook.
func (h *InboundHandler) Email(c echo.Context) error {
	req := c.Request()
	if err := req.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return response.BadRequest(c, "invalid form body")
	}

	if h.signingKey != "" {
		if err := VerifySignature(h.signingKey, req.FormValue("timestamp"), req.FormValue("token"), req.FormValue("signature")); err != nil {
			h.security.WebhookRejected(c.RealIP(), c.Path(), err.Error())
			return response.Unauthorized(c, err.Error())
		}
	}

	payload := make(inbound.Payload, len(req.Form)+2)
	for key, values := range req.Form {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}
	// The relay's delivery time is the best receipt timestamp there is.
	if ts := req.FormValue("timestamp"); ts != "" {
		payload["receivedAt"] = ts
	}
	for _, key := range signatureFields {
		delete(payload, key)
	}
	if req.MultipartForm != nil && len(req.MultipartForm.File) > 0 {
		var names []string
		for _, files := range req.MultipartForm.File {
			for _, f := range files {
				names = append(names, f.Filename)
			}
		}
		payload["attachments"] = names
	}
	if _, ok := payload["source"]; !ok {
		payload["source"] = inbound.SourceEmail
	}

	return h.respond(c, payload)
}

// Form handles POST /inbound/form, a JSON post from the booking widget.
func (h *InboundHandler) Form(c echo.Context) error {
	payload := inbound.Payload{}
	if err := c.Bind(&payload); err != nil {
		return response.BadRequest(c, "invalid JSON body")
	}
	if _, ok := payload["source"]; !ok {
		payload["source"] = inbound.SourceWidget
	}
	return h.respond(c, payload)
}

// Raw handles POST /inbound/raw, an RFC 822 message body. The to query
// parameter overrides the message's own recipient.
func (h *InboundHandler) Raw(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BadRequest(c, "failed to read body")
	}
	if strings.TrimSpace(string(body)) == "" {
		return response.BadRequest(c, "empty message body")
	}

	payload := inbound.Payload{
		"raw":    string(body),
		"source": inbound.SourceEmail,
	}
	if to := strings.TrimSpace(c.QueryParam("to")); to != "" {
		payload["to"] = to
	}
	return h.respond(c, payload)
}

// respond runs the pipeline detached from the request, so a client that
// hangs up cannot leave a delivery half-processed. Business outcomes answer
// 200; only a run that could not record its outcome asks for a retry.
func (h *InboundHandler) respond(c echo.Context, payload inbound.Payload) error {
	res := h.processor.Process(context.WithoutCancel(c.Request().Context()), payload)
	if res.Outcome == pipeline.OutcomeFailed {
		return c.JSON(http.StatusServiceUnavailable, response.APIResponse{
			Success: false,
			Data:    res,
			Message: "message could not be recorded, retry later",
		})
	}
	return response.Success(c, res)
}

// VerifySignature checks a Mailgun webhook signature: the hex HMAC-SHA256 of
// timestamp+token under the signing key.
func VerifySignature(signingKey, timestamp, token, signature string) error {
	if timestamp == "" || token == "" || signature == "" {
		return errBadSignature
	}
	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(timestamp + token))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errBadSignature
	}
	return nil
}
