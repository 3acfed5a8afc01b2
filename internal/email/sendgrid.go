package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/nextplay-sports/platform-api/internal/apperr"
	"github.com/nextplay-sports/platform-api/internal/config"
)

type sendgridService struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

var _ Service = (*sendgridService)(nil)

func NewSendgridService(cfg *config.Config) Service {
	return &sendgridService{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   sgmail.NewEmail(cfg.EmailFromName, cfg.EmailFromAddr),
	}
}

func (svc *sendgridService) Send(_ context.Context, msg *Message) error {
	to := sgmail.NewEmail(msg.ToName, msg.To)
	m := sgmail.NewSingleEmail(svc.from, subjectFor(msg.Template), to, renderBody(msg), "")
	resp, err := svc.client.Send(m)
	if err != nil {
		return apperr.External("sendgrid", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return apperr.External("sendgrid", fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body))
	}
	return nil
}
