package eventping

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// NoDeparture is the literal the command layer passes when no time was given.
	NoDeparture = "null"
	// NoJoinLocator marks an unknown room URL.
	NoJoinLocator = "unknown"
)

// Formatter renders invitation text.
type Formatter struct {
	greeting   string
	parentName string
	location   *time.Location
	now        func() time.Time
}

// NewFormatter builds a formatter. A nil location means UTC and a nil clock
// means time.Now.
func NewFormatter(greeting, parentName string, location *time.Location, now func() time.Time) *Formatter {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Formatter{
		greeting:   greeting,
		parentName: cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(parentName))),
		location:   location,
		now:        now,
	}
}

// Format renders the direct message sent to one recipient.
func (f *Formatter) Format(leaderName, roleLabel, departure, joinLocator string) string {
	stamp := f.now().In(f.location)
	zone := stamp.Format("MST")

	var b strings.Builder
	b.WriteString(stamp.Format("January 2, 2006"))
	b.WriteByte('\n')
	b.WriteString(stamp.Format("15:04:05"))
	b.WriteString(" " + zone + "\n\n")
	if f.greeting != "" {
		b.WriteString(f.greeting)
		b.WriteString("\n\n")
	}
	b.WriteString("You have been called to arms by **" + leaderName + "**.\n\n")
	b.WriteString("Please join as a **" + roleLabel + "**.\n")
	b.WriteString(f.departureClause(departure))
	b.WriteString("\n\n")
	b.WriteString(f.joinClause(joinLocator))
	return b.String()
}

// departureClause labels departures UTC; the /eventping option takes UTC
// times and the configured location only applies to the header stamp.
func (f *Formatter) departureClause(departure string) string {
	departure = strings.TrimSpace(departure)
	if departure == "" || departure == NoDeparture {
		return "Please, arrive as soon as possible. Departure time not specified."
	}
	return "We depart at **" + departure + " UTC**."
}

func (f *Formatter) joinClause(locator string) string {
	locator = strings.TrimSpace(locator)
	if locator == "" || locator == NoJoinLocator {
		name := f.parentName
		if name == "" {
			name = "War Room"
		}
		return "Join the event via the server's " + name + " category."
	}
	return "Join the event here:\n" + locator
}
