// Package notify sends fire-and-forget HTTP notifications when a session run
// finishes. The primary use case is ntfy.sh, but any HTTP webhook works.
package notify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

// requestPreview is how many characters of the request go into a message.
const requestPreview = 40

// Notifier posts plain-text HTTP notifications for finished runs.
type Notifier struct {
	url        string
	title      string
	onComplete bool
	onError    bool
	client     *http.Client
}

// New creates a Notifier. projectName is used as the X-Title header; if empty,
// "AgentDesk" is used instead.
func New(notifURL, projectName string, onComplete, onError bool) *Notifier {
	title := "AgentDesk"
	if projectName != "" {
		title = projectName
	}
	return &Notifier{
		url:        notifURL,
		title:      title,
		onComplete: onComplete,
		onError:    onError,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Hook is a session.RunHook. It fires an asynchronous POST when the run's
// outcome matches the configured notification flags.
func (n *Notifier) Hook(r session.RunReport) {
	switch {
	case r.Succeeded() && n.onComplete:
		go n.post(Message(r))
	case !r.Succeeded() && n.onError:
		go n.post(Message(r))
	}
}

// Message renders the notification body for a run.
func Message(r session.RunReport) string {
	req := r.Request
	if rs := []rune(req); len(rs) > requestPreview {
		req = string(rs[:requestPreview]) + "..."
	}
	if r.Succeeded() {
		return fmt.Sprintf("Request completed in %s (%d tokens): %s",
			r.Duration().Round(100*time.Millisecond), r.TotalTokens, req)
	}
	reason := r.Err.Error()
	var execErr *session.ExecutionError
	if errors.As(r.Err, &execErr) {
		reason = execErr.Err.Error()
	}
	return fmt.Sprintf("Request failed: %s (%s)", reason, req)
}

// post sends a plain-text POST to the configured URL. Errors are silently
// discarded so notification failures never interrupt the session.
func (n *Notifier) post(message string) {
	req, err := http.NewRequest(http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", n.title)
	resp, err := n.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
