package whatsappsvc

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Amanroy9658/collegerp/core"
)

var (
	SentLinks = make([]string, 0)
	mu        sync.Mutex
)

// linkService delivers messages as WhatsApp click-to-chat links. There is no
// server-side transport: the generated link is the deliverable and is
// surfaced through the log for an operator (or frontend) to hand off.
type linkService struct {
	baseURL       string
	logger        core.Logger
	disableOutput bool
	sync          bool
}

var _ core.LinkMessageService = (*linkService)(nil)

func NewLinkService(conf *core.Config, logger core.Logger) *linkService {
	return &linkService{
		baseURL: conf.WhatsappLinkBaseURL,
		logger:  logger,
	}
}

// NewLinkServiceMock records synchronously into SentLinks without writing
// output; for tests.
func NewLinkServiceMock(conf *core.Config) core.LinkMessageService {
	return &linkService{
		baseURL:       conf.WhatsappLinkBaseURL,
		disableOutput: true,
		sync:          true,
	}
}

func (svc linkService) SendMessages(messages ...*core.LinkMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.send(msg)
		} else {
			go svc.send(msg)
		}
	}
}

func (svc linkService) send(msg *core.LinkMessage) {
	if msg.Phone == "" || msg.Body == "" {
		return
	}
	link := svc.BuildLink(*msg)
	if !svc.disableOutput {
		svc.logger.Info(fmt.Sprintf("WhatsApp link generated: %s", link))
	}
	mu.Lock()
	SentLinks = append(SentLinks, link)
	mu.Unlock()
}

// BuildLink returns a wa.me click-to-chat URL for the message.
// Phone numbers are stripped to digits per the wa.me format.
func (svc linkService) BuildLink(msg core.LinkMessage) string {
	phone := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, msg.Phone)

	q := make(url.Values)
	q.Set("text", msg.Body)
	return fmt.Sprintf("%s/%s?%s", strings.TrimRight(svc.baseURL, "/"), phone, q.Encode())
}
