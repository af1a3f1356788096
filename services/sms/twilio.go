package smssvc

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Amanroy9658/collegerp/core"
)

type twilioService struct {
	client *twilio.RestClient
	from   string
	logger core.Logger
}

var _ core.SMSService = (*twilioService)(nil)

func NewTwilioService(conf *core.Config, logger core.Logger) *twilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Twilio.AccountSID,
		Password: conf.Twilio.AuthToken,
	})
	return &twilioService{
		client: client,
		from:   conf.Twilio.FromNumber,
		logger: logger,
	}
}

func (svc twilioService) SendMessages(messages ...*core.SMSMessage) {
	for _, msg := range messages {
		msg := msg
		go svc.send(msg)
	}
}

func (svc twilioService) send(msg *core.SMSMessage) {
	if msg.To == "" || msg.Body == "" {
		return
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(svc.from)
	params.SetBody(msg.Body)

	res, err := svc.client.Api.CreateMessage(params)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending SMS: %v", err), err)
		return
	}
	if res.ErrorMessage != nil {
		svc.logger.Error(fmt.Sprintf("sending SMS - code: %v - message: %s", res.ErrorCode, *res.ErrorMessage))
	}
}
