package record

import (
	"bytes"
	"encoding/json"
)

// AuditLog is the ordered trace of statements one engine executed,
// with the logs of related engines nested where their cascades ran.
type AuditLog struct {
	Name    string
	Entries []AuditEntry
}

// AuditEntry is either one statement or one nested log.
type AuditEntry struct {
	SQL    string
	Nested *AuditLog
}

func newAuditLog(name string) *AuditLog {
	return &AuditLog{Name: name}
}

func (l *AuditLog) add(sql string) {
	l.Entries = append(l.Entries, AuditEntry{SQL: sql})
}

func (l *AuditLog) nest(child *AuditLog) {
	if child == nil || len(child.Entries) == 0 {
		return
	}
	l.Entries = append(l.Entries, AuditEntry{Nested: child})
}

// Statements returns the log's own statements, without nested logs.
func (l *AuditLog) Statements() []string {
	var out []string
	for _, e := range l.Entries {
		if e.Nested == nil {
			out = append(out, e.SQL)
		}
	}
	return out
}

// Len returns the number of entries, nested logs counting once.
func (l *AuditLog) Len() int {
	return len(l.Entries)
}

// MarshalJSON encodes the log as {"name": ["SQL", {"child": [...]}]}.
func (l *AuditLog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	name, err := json.Marshal(l.Name)
	if err != nil {
		return nil, err
	}
	buf.WriteByte('{')
	buf.Write(name)
	buf.WriteString(":[")
	for i, e := range l.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		var b []byte
		if e.Nested != nil {
			b, err = e.Nested.MarshalJSON()
		} else {
			b, err = json.Marshal(e.SQL)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}
