package models

import (
	"errors"
	"strings"
	"unicode"
)

// CourseRecord links a course number to the three external handles provisioned
// for it on the chat platform. Records are immutable once created; the only
// mutation path is bulk deletion during teardown.
type CourseRecord struct {
	ID        int64
	Number    string // normalized upper-case course number, unique
	MessageID string // announcement message handle, unique
	ChannelID string // discussion channel handle, unique
	RoleID    string // access role handle, unique
	Name      string // display name
}

// Validate checks that every field the registry indexes on is present.
func (r *CourseRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.Number) == "":
		return errors.New("course number is required")
	case r.MessageID == "":
		return errors.New("message id is required")
	case r.ChannelID == "":
		return errors.New("channel id is required")
	case r.RoleID == "":
		return errors.New("role id is required")
	case r.Name == "":
		return errors.New("course name is required")
	}
	return nil
}

// NormalizeNumber maps a free-form course number to its canonical registry
// form: surrounding whitespace trimmed, upper-cased.
func NormalizeNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// SanitizeChannelName derives a channel (and role) name from a course number:
// all whitespace removed, lower-cased.
func SanitizeChannelName(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// LookupKind selects which external-handle index a registry lookup uses.
type LookupKind string

const (
	LookupMessage LookupKind = "message"
	LookupChannel LookupKind = "channel"
	LookupRole    LookupKind = "role"
)

// Valid reports whether k names one of the three external-handle indexes.
func (k LookupKind) Valid() bool {
	switch k {
	case LookupMessage, LookupChannel, LookupRole:
		return true
	}
	return false
}

func (k LookupKind) String() string { return string(k) }
