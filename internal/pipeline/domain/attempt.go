package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the medium of a contact attempt.
type Channel string

const (
	ChannelCall     Channel = "call"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelInPerson Channel = "in_person"
)

// Channels returns all channels in canonical enumeration order.
func Channels() []Channel {
	return []Channel{ChannelCall, ChannelWhatsApp, ChannelEmail, ChannelInPerson}
}

// IsValid reports whether c is a known channel.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelCall, ChannelWhatsApp, ChannelEmail, ChannelInPerson:
		return true
	}
	return false
}

// Result is the outcome of a contact attempt.
type Result string

const (
	ResultSuccess       Result = "success"
	ResultNoAnswer      Result = "no_answer"
	ResultBusy          Result = "busy"
	ResultInvalidNumber Result = "invalid_number"
	ResultNotAttending  Result = "not_attending"
	ResultReschedule    Result = "reschedule"
)

// Results returns all results in canonical enumeration order.
func Results() []Result {
	return []Result{ResultSuccess, ResultNoAnswer, ResultBusy, ResultInvalidNumber, ResultNotAttending, ResultReschedule}
}

// IsValid reports whether r is a known result.
func (r Result) IsValid() bool {
	switch r {
	case ResultSuccess, ResultNoAnswer, ResultBusy, ResultInvalidNumber, ResultNotAttending, ResultReschedule:
		return true
	}
	return false
}

// ContactAttempt is one logged outreach event. Attempts are immutable once
// recorded; corrections are modeled as additional attempts.
type ContactAttempt struct {
	ID           uuid.UUID
	CardID       uuid.UUID
	AgentID      uuid.UUID
	Channel      Channel
	Result       Result
	Timestamp    time.Time
	CallDuration *time.Duration // only meaningful for ChannelCall
	NextAction   string         // optional hint for the follow-up
}
