// Package email sends templated transactional mail. The template catalog is
// a fixed enum; rendering details live with the provider.
package email

import (
	"context"
	"fmt"
)

type Template string

const (
	TemplateEvalComplete      Template = "eval_complete"
	TemplateMembershipRenewal Template = "membership_renewal"
	TemplateCoachWelcome      Template = "coach_welcome"
	TemplatePasswordReset     Template = "password_reset"
)

type Message struct {
	To        string
	ToName    string
	Template  Template
	Variables map[string]string
}

// Service is any backend that can deliver a templated message.
type Service interface {
	Send(ctx context.Context, msg *Message) error
}

// subjects for the fixed catalog; providers that render remotely ignore the
// body and pass Variables through.
var subjects = map[Template]string{
	TemplateEvalComplete:      "Your evaluation is ready",
	TemplateMembershipRenewal: "Your membership is about to renew",
	TemplateCoachWelcome:      "Welcome aboard, set up your coach account",
	TemplatePasswordReset:     "Reset your password",
}

func subjectFor(t Template) string {
	if s, ok := subjects[t]; ok {
		return s
	}
	return string(t)
}

func renderBody(msg *Message) string {
	body := fmt.Sprintf("Hi %s,\n\n", msg.ToName)
	switch msg.Template {
	case TemplateEvalComplete:
		body += fmt.Sprintf("Your evaluation has been completed by %s. View it here: %s\n", msg.Variables["coach_name"], msg.Variables["link"])
	case TemplateMembershipRenewal:
		body += fmt.Sprintf("Your %s membership renews in %s day(s). Manage it here: %s\n", msg.Variables["tier"], msg.Variables["days"], msg.Variables["link"])
	case TemplateCoachWelcome:
		body += fmt.Sprintf("Your coach application was approved. Set your password here: %s\n", msg.Variables["setup_link"])
	case TemplatePasswordReset:
		body += fmt.Sprintf("Reset your password here: %s\n", msg.Variables["setup_link"])
	default:
		for k, v := range msg.Variables {
			body += fmt.Sprintf("%s: %s\n", k, v)
		}
	}
	return body
}
