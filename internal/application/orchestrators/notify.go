package orchestrators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"practice/internal/domain/outbox"
)

// OutboxStoreForEnqueue defines the store interface needed to queue an email.
type OutboxStoreForEnqueue interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// EmailPayload is the JSON stored on an outbox entry of type email.
type EmailPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Notifier queues notification emails on the outbox for the background worker.
// A nil *Notifier sends nothing.
type Notifier struct {
	Outbox     OutboxStoreForEnqueue
	ReplyTo    string
	PracticeTo string // copied on every booking notice when set
	GenerateID func() string
	Now        func() time.Time
}

// Enqueue stores payload as a pending email entry.
// POST: a pending outbox entry exists for payload
func (n *Notifier) Enqueue(ctx context.Context, payload EmailPayload) error {
	if n == nil {
		return nil
	}
	if payload.ReplyTo == "" {
		payload.ReplyTo = n.ReplyTo
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}
	e := outbox.Entry{
		ID:         newID(n.GenerateID),
		ActionType: outbox.ActionTypeEmail,
		Payload:    string(raw),
		Status:     outbox.StatusPending,
		CreatedAt:  nowOrDefault(n.Now),
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := n.Outbox.Save(ctx, e); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	slog.Info("outbox_event", "event", "email_enqueued", "entry_id", e.ID, "subject", payload.Subject)
	return nil
}

// recipients returns the client address plus the practice inbox when configured.
func (n *Notifier) recipients(client string) []string {
	to := []string{client}
	if n.PracticeTo != "" && n.PracticeTo != client {
		to = append(to, n.PracticeTo)
	}
	return to
}

var appointmentEmail = template.Must(template.New("appointment").Parse(
	`<p>Hello {{.Name}},</p>
<p>{{.Lead}}</p>
<table>
<tr><td>Service</td><td>{{.Therapy}}</td></tr>
<tr><td>When</td><td>{{.When}}</td></tr>
</table>
{{if .Notes}}<p>Your note: {{.Notes}}</p>{{end}}
<p>Reply to this email if anything needs to change.</p>`))

type appointmentEmailData struct {
	Name    string
	Lead    string
	Therapy string
	When    string
	Notes   string
}

func renderAppointmentEmail(data appointmentEmailData) (string, error) {
	var buf bytes.Buffer
	if err := appointmentEmail.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
