package core

type (
	SMSMessage struct {
		To   string // E.164 phone number
		Body string
	}

	// SMSService is any service that can send text messages.
	SMSService interface {
		// SendMessages sends messages concurrently.
		SendMessages(messages ...*SMSMessage)
	}

	LinkMessage struct {
		Phone string
		Body  string
	}

	// LinkMessageService is any service that can deliver a message as a
	// click-to-chat link (e.g. WhatsApp).
	LinkMessageService interface {
		SendMessages(messages ...*LinkMessage)
	}
)
