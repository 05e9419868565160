package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier emails status-change notices to the admin distribution
// list through a plain SMTP relay.
type SMTPNotifier struct {
	addr string
	from string
	to   []string

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier constructs an SMTP notifier for the given relay address
// (host:port) and recipients.
func NewSMTPNotifier(addr, from string, to []string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from, to: to, send: smtp.SendMail}
}

func (n *SMTPNotifier) StatusChanged(ctx context.Context, notice StatusChangeNotice) error {
	if len(n.to) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Paperwork #%d status changed: %s -> %s",
		notice.PaperworkID, notice.OldStatus, notice.NewStatus)

	var body strings.Builder
	fmt.Fprintf(&body, "Candidate: %s\r\n", notice.CandidateName)
	fmt.Fprintf(&body, "Record: #%d\r\n", notice.PaperworkID)
	fmt.Fprintf(&body, "Previous status: %s\r\n", notice.OldStatus)
	fmt.Fprintf(&body, "New status: %s\r\n", notice.NewStatus)
	if notice.Reason != "" {
		fmt.Fprintf(&body, "Reason: %s\r\n", notice.Reason)
	}
	fmt.Fprintf(&body, "Changed by: %s\r\n", notice.ChangedBy)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, strings.Join(n.to, ", "), subject, body.String())

	if err := n.send(n.addr, nil, n.from, n.to, []byte(msg)); err != nil {
		return fmt.Errorf("send status change mail: %w", err)
	}
	return nil
}
