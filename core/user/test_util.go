package user

import (
	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/course"
)

// NewServiceMock wires a Service for tests; callers are expected to pass
// synchronous (recording) notification services so dispatch is observable.
func NewServiceMock(
	repo Repository,
	courses course.Service,
	mailSvc core.EmailService,
	smsSvc core.SMSService,
	linkSvc core.LinkMessageService,
	conf *core.Config,
) Service {
	return &service{
		repo:    repo,
		courses: courses,
		mailSvc: mailSvc,
		smsSvc:  smsSvc,
		linkSvc: linkSvc,
		conf:    conf,
	}
}
