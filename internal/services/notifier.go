package services

import (
	"fmt"

	"studio-gallery-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Notifier delivers best-effort operator notifications after committed
// state changes. Implementations must never block the caller or surface
// failures into the request path; losses are logged and accepted.
type Notifier interface {
	GalleryUnlocked(gallery *models.Gallery, clientIP string)
	BundleDownloaded(gallery *models.Gallery, photoCount int)
}

// MailNotifier sends operator notifications over SMTP
type MailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

// NewMailNotifier creates a new SMTP notifier
func NewMailNotifier(host string, port int, username, password, from, to string) *MailNotifier {
	return &MailNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
	}
}

// GalleryUnlocked notifies the operator that a client unlocked a gallery
func (n *MailNotifier) GalleryUnlocked(gallery *models.Gallery, clientIP string) {
	subject := "Gallery unlocked"
	body := fmt.Sprintf("Gallery %s was unlocked from %s.", gallery.ID, clientIP)
	go n.send(subject, body)
}

// BundleDownloaded notifies the operator that a client downloaded all photos
func (n *MailNotifier) BundleDownloaded(gallery *models.Gallery, photoCount int) {
	subject := "Gallery downloaded"
	body := fmt.Sprintf("All %d photos of gallery %s were downloaded.", photoCount, gallery.ID)
	go n.send(subject, body)
}

func (n *MailNotifier) send(subject, body string) {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to send notification mail")
	}
}

// NoopNotifier drops all notifications. Used when mail is not configured.
type NoopNotifier struct{}

// GalleryUnlocked implements Notifier
func (NoopNotifier) GalleryUnlocked(*models.Gallery, string) {}

// BundleDownloaded implements Notifier
func (NoopNotifier) BundleDownloaded(*models.Gallery, int) {}
