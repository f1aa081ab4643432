// Package notify delivers desktop notifications for expired timers.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/warpdl/stickers/pkg/logger"
)

// DefaultMessage is the body of a timer notification.
const DefaultMessage = "Time's up!"

// Notifier shows a user-visible notification.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends notifications through the OS notification service.
type Desktop struct {
	log logger.Logger
}

// NewDesktop returns a Desktop notifier. appName is shown as the sender
// where the platform supports it.
func NewDesktop(appName string, l logger.Logger) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Desktop{log: l}
}

func (d *Desktop) Notify(title, body string) error {
	if err := beeep.Notify(title, body, ""); err != nil {
		d.log.Warning("desktop notification %q failed: %v", title, err)
		return err
	}
	return nil
}

// Log writes notifications to a logger. It is used when no notification
// service is available.
type Log struct {
	L logger.Logger
}

func (n Log) Notify(title, body string) error {
	n.L.Info("notification: %s: %s", title, body)
	return nil
}

// Fallback tries Primary and falls back to Secondary on error.
type Fallback struct {
	Primary, Secondary Notifier
}

func (f Fallback) Notify(title, body string) error {
	if err := f.Primary.Notify(title, body); err != nil {
		return f.Secondary.Notify(title, body)
	}
	return nil
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

// Message is one recorded notification.
type Message struct {
	Title, Body string
}

func (r *Recorder) Notify(title, body string) error {
	r.mu.Lock()
	r.sent = append(r.sent, Message{Title: title, Body: body})
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

var (
	_ Notifier = (*Desktop)(nil)
	_ Notifier = Log{}
	_ Notifier = Fallback{}
	_ Notifier = (*Recorder)(nil)
)
