package notifications

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/goattech/giftflow/pkg/config"
)

// TwilioClient sends SMS via Twilio
type TwilioClient struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioClient creates a Twilio SMS client
func NewTwilioClient(cfg *config.TwilioConfig) *TwilioClient {
	return &TwilioClient{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		from: cfg.FromNumber,
	}
}

// SendSMS sends a single text message
func (c *TwilioClient) SendSMS(to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	return nil
}
