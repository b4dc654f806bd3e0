package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender runs a platform notification command
type commandSender struct {
	build func(title, message string) *exec.Cmd
}

func (c commandSender) Send(title, message string) error {
	return c.build(title, message).Run()
}

func linuxSender() NotificationSender {
	return commandSender{build: func(title, message string) *exec.Cmd {
		return exec.Command("notify-send", title, message)
	}}
}

func macSender() NotificationSender {
	return commandSender{build: func(title, message string) *exec.Cmd {
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return exec.Command("osascript", "-e", script)
	}}
}

func windowsSender() NotificationSender {
	return commandSender{build: func(title, message string) *exec.Cmd {
		script := fmt.Sprintf(`
			[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
			$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
			$text = $template.GetElementsByTagName("text")
			$text.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
			$text.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
			$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
			[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("udacimak").Show($toast)
		`, psQuote(title), psQuote(message))
		return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	}}
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Notifier prints a message and optionally raises a desktop notification
type Notifier struct {
	out    io.Writer
	sender NotificationSender
}

// NewNotifier picks a sender for the current platform. When desktop is
// false only the console message is printed.
func NewNotifier(desktop bool) *Notifier {
	n := &Notifier{out: os.Stdout}
	if !desktop {
		return n
	}
	switch runtime.GOOS {
	case "linux":
		n.sender = linuxSender()
	case "darwin":
		n.sender = macSender()
	case "windows":
		n.sender = windowsSender()
	}
	return n
}

// NewNotifierWith builds a notifier with an explicit writer and sender
func NewNotifierWith(out io.Writer, sender NotificationSender) *Notifier {
	return &Notifier{out: out, sender: sender}
}

// SendSuccess reports a finished render
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

// SendError reports a failed render
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender == nil {
		return
	}
	// desktop notifications are best effort
	_ = n.sender.Send(title, message)
}
