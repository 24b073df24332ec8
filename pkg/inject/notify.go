package inject

import (
	"github.com/rpaops/filterrelay/pkg/browser"
	"github.com/rpaops/filterrelay/pkg/logging"
)

// Severity selects the notification color.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// notifyScript renders one transient message and removes it after 3 s.
const notifyScript = `([message, color]) => {
	const el = document.createElement('div');
	el.className = 'filterrelay-notification';
	el.textContent = message;
	el.style.backgroundColor = color;
	document.body.appendChild(el);
	setTimeout(() => {
		if (el.parentNode) el.parentNode.removeChild(el);
	}, 3000);
	return true;
}`

// Notifier shows transient, auto-dismissing messages on the host page.
// No user action is ever required.
type Notifier struct {
	driver browser.Driver
	log    *logging.Logger
}

// NewNotifier creates a notifier over the given driver.
func NewNotifier(driver browser.Driver, log *logging.Logger) *Notifier {
	return &Notifier{driver: driver, log: log}
}

// Show renders the message at the given severity. Best-effort: a page that
// cannot render the notice only costs a log line.
func (n *Notifier) Show(message string, severity Severity) {
	color := "#27ae60"
	switch severity {
	case SeverityError:
		color = "#e74c3c"
	case SeverityInfo:
		color = "#3498db"
	}

	if _, err := n.driver.Evaluate(notifyScript, message, color); err != nil {
		n.log.Warnf("notification %q failed: %v", message, err)
		return
	}
	n.log.Debugf("notified (%s): %s", severity, message)
}
