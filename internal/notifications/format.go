package notifications

import (
	"fmt"
	"strings"
	"time"
)

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

// format renders an event. Recognised payload keys:
//
//	coverage_rejected:  document, job, item, message
//	coverage_malformed: document, job, message
//	internal_error:     document, error
//	batch_completed:    processed, rejected, failed, duration
func format(event Event, p Payload) (payload, bool) {
	switch event {
	case EventCoverageRejected:
		return payload{
			title:    fmt.Sprintf("Ink coverage rejected: %s", subject(p)),
			message:  p.text("message"),
			tags:     []string{"inkflow", "coverage", "rejected"},
			priority: "high",
		}, true
	case EventCoverageMalformed:
		msg := p.text("message")
		if doc := p.text("document"); doc != "" {
			msg = fmt.Sprintf("%s could not be read and was moved to invalid.\n%s", doc, msg)
		}
		return payload{
			title:   fmt.Sprintf("Ink coverage unreadable: %s", subject(p)),
			message: msg,
			tags:    []string{"inkflow", "coverage", "malformed"},
		}, true
	case EventInternalError:
		var b strings.Builder
		b.WriteString("Unexpected error")
		if doc := p.text("document"); doc != "" {
			b.WriteString(" while processing ")
			b.WriteString(doc)
		}
		b.WriteString(": ")
		if e := p.text("error"); e != "" {
			b.WriteString(e)
		} else {
			b.WriteString("unknown")
		}
		return payload{
			title:    "inkflow - Error",
			message:  b.String(),
			tags:     []string{"inkflow", "error", "alert"},
			priority: "high",
		}, true
	case EventBatchCompleted:
		processed, rejected, failed := p.count("processed"), p.count("rejected"), p.count("failed")
		if rejected == 0 && failed == 0 {
			return payload{}, false
		}
		duration, _ := p["duration"].(time.Duration)
		return payload{
			title: "inkflow - Batch Complete (with errors)",
			message: fmt.Sprintf("%d committed, %d rejected, %d failed in %s",
				processed, rejected, failed, duration.Round(time.Second)),
			tags: []string{"inkflow", "batch", "completed"},
		}, true
	case EventTest:
		return payload{
			title:    "inkflow - Test",
			message:  "Notification system test",
			tags:     []string{"inkflow", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func subject(p Payload) string {
	job, item := p.text("job"), p.text("item")
	switch {
	case job != "" && item != "":
		return job + "-" + item
	case job != "":
		return job
	default:
		return p.text("document")
	}
}

func (p Payload) text(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Payload) count(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
