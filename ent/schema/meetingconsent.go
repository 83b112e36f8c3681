package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// MeetingConsent holds the schema definition for the MeetingConsent
// entity — one row per attendee per meeting, recording whether that
// attendee consented to being recorded/transcribed (spec.md §4.10's
// consent-driven cleanup reads this table; C11's get_participants task
// derives its roster from it, there being no separate attendee table).
type MeetingConsent struct {
	ent.Schema
}

// Fields of the MeetingConsent. Composite primary key (meeting_id, user_id);
// there is no synthetic id column.
func (MeetingConsent) Fields() []ent.Field {
	return []ent.Field{
		field.String("meeting_id").
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.Bool("consent_given"),
		field.Time("consent_timestamp").
			Default(time.Now),
	}
}

// Edges of the MeetingConsent.
func (MeetingConsent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("meeting", Meeting.Type).
			Ref("consents").
			Field("meeting_id").
			Unique().
			Required().
			Immutable(),
	}
}
