package smssvc

import (
	"log"
	"sync"

	"github.com/Amanroy9658/collegerp/core"
)

var (
	SentMessages = make([]core.SMSMessage, 0)
	mu           sync.Mutex
)

// consoleService is the disabled-channel fallback: it drops the would-be
// text message to the log, reporting a synthetic success.
type consoleService struct {
	disableOutput bool
	sync          bool
}

var _ core.SMSService = (*consoleService)(nil)

func NewConsoleService() core.SMSService {
	return &consoleService{}
}

// NewConsoleServiceMock sends synchronously and records into SentMessages
// without writing output; for tests.
func NewConsoleServiceMock() core.SMSService {
	return &consoleService{disableOutput: true, sync: true}
}

func (svc consoleService) SendMessages(messages ...*core.SMSMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.send(msg)
		} else {
			go svc.send(msg)
		}
	}
}

func (svc consoleService) send(msg *core.SMSMessage) {
	if msg.To == "" || msg.Body == "" {
		return
	}
	if !svc.disableOutput {
		log.Printf("SMS channel disabled; message dropped to log\r\nTo: %s\r\n\r\n%s\r\n", msg.To, msg.Body)
	}
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}
