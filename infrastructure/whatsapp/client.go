package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AzielCF/az-remind/core/config"
	pkgError "github.com/AzielCF/az-remind/pkg/error"
	"github.com/AzielCF/az-remind/reminders/domain"
	"github.com/sirupsen/logrus"
)

// Client talks to the WhatsApp Cloud API messages endpoint. It implements
// domain.Courier. Business-initiated messages outside the 24h window need
// templates; reminders here ride on plain text plus reply buttons, which is
// sufficient once the user has opted in by messaging the number.
type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
}

func NewClient(cfg config.WhatsappConfig) *Client {
	return &Client{
		baseURL:       cfg.APIBaseURL,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

type textPayload struct {
	Body string `json:"body"`
}

type replyButton struct {
	Type  string        `json:"type"`
	Reply domain.Button `json:"reply"`
}

type interactivePayload struct {
	Type   string      `json:"type"`
	Body   textPayload `json:"body"`
	Action struct {
		Buttons []replyButton `json:"buttons"`
	} `json:"action"`
}

type outboundMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *textPayload        `json:"text,omitempty"`
	Interactive      *interactivePayload `json:"interactive,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText delivers one message, optionally with quick-reply buttons. A
// non-2xx provider response is reported through the SendResult, not the
// error; the error is reserved for transport-level failures.
func (c *Client) SendText(ctx context.Context, to, body string, buttons []domain.Button) (domain.SendResult, error) {
	if c.phoneNumberID == "" || c.accessToken == "" {
		return domain.SendResult{ErrorText: "whatsapp credentials missing"},
			pkgError.DeliveryError("whatsapp credentials missing")
	}

	msg := outboundMessage{
		MessagingProduct: "whatsapp",
		To:               to,
	}
	if len(buttons) > 0 {
		msg.Type = "interactive"
		msg.Interactive = &interactivePayload{Type: "button", Body: textPayload{Body: body}}
		for _, b := range buttons {
			msg.Interactive.Action.Buttons = append(msg.Interactive.Action.Buttons, replyButton{Type: "reply", Reply: b})
		}
	} else {
		msg.Type = "text"
		msg.Text = &textPayload{Body: body}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return domain.SendResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Errorf("[WHATSAPP] Send to %s failed at transport level", to)
		return domain.SendResult{ErrorText: err.Error()}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.Errorf("[WHATSAPP] API error for %s: status=%d body=%s", to, resp.StatusCode, string(raw))
		return domain.SendResult{
			Raw:       string(raw),
			ErrorText: fmt.Sprintf("whatsapp api status %d", resp.StatusCode),
		}, nil
	}

	var parsed sendResponse
	_ = json.Unmarshal(raw, &parsed)
	messageID := ""
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}

	logrus.Debugf("[WHATSAPP] Sent message %s to %s", messageID, to)
	return domain.SendResult{Success: true, MessageID: messageID, Raw: string(raw)}, nil
}
