package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Meeting holds the schema definition for the Meeting entity — one
// scheduled or ad-hoc call, identified by the video platform's room name
// rather than meetingscribe's own Room configuration row.
type Meeting struct {
	ent.Schema
}

// Fields of the Meeting.
func (Meeting) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("room_name").
			Comment("Video platform room name, distinct from room.id"),
		field.String("room_url").
			Optional(),
		field.String("host_room_url").
			Optional(),
		field.String("viewer_room_url").
			Optional(),
		field.Time("start_date"),
		field.Time("end_date"),
		field.String("user_id").
			Optional().
			Nillable(),
		field.String("room_id").
			Optional().
			Nillable(),
		field.Bool("is_locked").
			Default(false),
		field.Enum("recording_type").
			Values("cloud", "local").
			Default("cloud"),
		field.Enum("recording_trigger").
			Values("automatic", "automatic-2nd-participant", "manual").
			Default("automatic-2nd-participant"),
	}
}

// Edges of the Meeting.
func (Meeting) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("room", Room.Type).
			Ref("meetings").
			Field("room_id").
			Unique(),
		edge.To("consents", MeetingConsent.Type),
		edge.To("recordings", Recording.Type),
	}
}

// Indexes of the Meeting.
func (Meeting) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("room_id"),
	}
}
