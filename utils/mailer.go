package utils

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/tans1/anonymous-feedback-backend/config"
)

const (
	notificationSubject = "🌟 New Feedback on Your Anonymous Post 🌟"
	excerptLimit        = 100
	mailBoundary        = "np-anonfeedback-alt"
)

// Mailer sends best-effort notification mail over SMTP. Failures are the
// caller's to log and discard; nothing here blocks the response path.
type Mailer struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	fromName    string
	useTLS      bool
	frontendURL string
}

// NewMailer builds a Mailer from configuration.
func NewMailer(cfg config.AppConfig) *Mailer {
	return &Mailer{
		host:        cfg.SMTPHost,
		port:        cfg.SMTPPort,
		username:    cfg.SMTPUsername,
		password:    cfg.SMTPPassword,
		from:        cfg.SMTPFrom,
		fromName:    cfg.SMTPFromName,
		useTLS:      cfg.SMTPTLS,
		frontendURL: cfg.FrontendURL,
	}
}

// Enabled reports whether SMTP is configured at all.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != "" && m.from != ""
}

// SendCommentNotification mails the post author an excerpt of a new comment
// and a link to the admin view.
func (m *Mailer) SendCommentNotification(to, postTitle, comment string) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp not configured")
	}
	msg := m.buildNotification(to, postTitle, truncateExcerpt(comment))
	return m.send(to, msg)
}

// truncateExcerpt limits a comment to the excerpt length, appending an
// ellipsis when cut.
func truncateExcerpt(s string) string {
	if len(s) > excerptLimit {
		return s[:excerptLimit] + "..."
	}
	return s
}

func (m *Mailer) buildNotification(to, postTitle, excerpt string) string {
	adminURL := m.frontendURL + "/admin"

	text := fmt.Sprintf(`Hello,

You have received a new comment on your post. Here is a snippet of the comment:

"%s"

You can view the full post and comment here: %s
Thank you for using our service!

Best regards,
`, excerpt, adminURL)

	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: #4CAF50;">%s</h2>
  <p>Hello,</p>
  <p>You have received a new comment on your %s. Here is a snippet of the comment:</p>
  <blockquote style="font-style: italic; color: #555;">"%s"</blockquote>
  <p>You can view the full post and comment here: <a href="%s" style="color: #4CAF50;">View Post</a></p>
  <p>Thank you for using our service!</p>
  <p>Best regards,</p>
</div>`, notificationSubject, postTitle, excerpt, adminURL)

	fromName := m.fromName
	if fromName == "" {
		fromName = "Anonymous Feedback"
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", mime.QEncoding.Encode("UTF-8", fromName), m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", notificationSubject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mailBoundary)
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", mailBoundary, text)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", mailBoundary, html)
	fmt.Fprintf(&msg, "--%s--\r\n", mailBoundary)
	return msg.String()
}

func (m *Mailer) send(to, msg string) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if !m.useTLS {
		return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
	}

	// STARTTLS with timeouts
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))
	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.username != "" {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}
