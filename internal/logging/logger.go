package logging

import (
	"fmt"
	"sync"
	"time"
)

type Logger interface {
	Printf(message string, args ...interface{})
}

// Discard drops every message.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturingLogger keeps every message in memory so tests can assert on them.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() []CapturedMessage {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Messages returns just the formatted text of every captured message.
func (l *CapturingLogger) Messages() []string {
	out := l.Output()
	msgs := make([]string, len(out))
	for i, m := range out {
		msgs[i] = m.Message
	}
	return msgs
}
