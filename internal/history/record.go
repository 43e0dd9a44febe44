// SPDX-License-Identifier: MPL-2.0

package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome column of a record.
type Status string

const (
	StatusRunning Status = "-"
	StatusOK      Status = "OK"
	StatusErr     Status = "ERR"
)

const (
	fieldCount = 7
	noDuration = "-"
)

// ErrMalformedRecord is returned for history lines that cannot be parsed.
var ErrMalformedRecord = errors.New("malformed history record")

// Record is one run.
type Record struct {
	Timestamp time.Time
	// Duration is zero while the run is in progress.
	Duration  time.Duration
	RunName   string
	Status    Status
	// Revision is the commit of a remote project or the content id of a script.
	Revision  string
	SessionID uuid.UUID
	Command   string
}

// MalformedRecordError reports the offending line number.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed history record at line %d: %s", e.Line, e.Reason)
}

// Unwrap returns ErrMalformedRecord for errors.Is() compatibility.
func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// encode renders r as one history line without the trailing newline.
func (r Record) encode() string {
	duration := noDuration
	if r.Status != StatusRunning {
		duration = r.Duration.Round(time.Millisecond).String()
	}
	return strings.Join([]string{
		r.Timestamp.UTC().Format(time.RFC3339),
		duration,
		sanitize(r.RunName),
		string(r.Status),
		sanitize(r.Revision),
		r.SessionID.String(),
		sanitize(r.Command),
	}, "\t")
}

func decodeRecord(line string, lineNo int) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldCount {
		return Record{}, &MalformedRecordError{Line: lineNo, Reason: fmt.Sprintf("expected %d fields, found %d", fieldCount, len(fields))}
	}

	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return Record{}, &MalformedRecordError{Line: lineNo, Reason: "invalid timestamp"}
	}

	var duration time.Duration
	if fields[1] != noDuration {
		if duration, err = time.ParseDuration(fields[1]); err != nil {
			return Record{}, &MalformedRecordError{Line: lineNo, Reason: "invalid duration"}
		}
	}

	session, err := uuid.Parse(fields[5])
	if err != nil {
		return Record{}, &MalformedRecordError{Line: lineNo, Reason: "invalid session id"}
	}

	return Record{
		Timestamp: ts,
		Duration:  duration,
		RunName:   fields[2],
		Status:    Status(fields[3]),
		Revision:  fields[4],
		SessionID: session,
		Command:   fields[6],
	}, nil
}

// sanitize keeps a value on one line and inside its column.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		default:
			return r
		}
	}, s)
}
