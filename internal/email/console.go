package email

import (
	"context"
	"log"
)

// consoleService logs messages instead of sending them. Dev default.
type consoleService struct{}

var _ Service = (*consoleService)(nil)

func NewConsoleService() Service {
	return &consoleService{}
}

func (consoleService) Send(_ context.Context, msg *Message) error {
	log.Printf("email (console) to=%s template=%s\n%s", msg.To, msg.Template, renderBody(msg))
	return nil
}
