package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Room holds the schema definition for the Room entity. No ent.Client is
// generated from this package (see pkg/store's doc comment) — the DSL
// below documents the relational model that pkg/store/room.go queries by
// hand against plain SQL.
type Room struct {
	ent.Schema
}

// Fields of the Room.
func (Room) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name"),
		field.String("user_id").
			Optional().
			Nillable(),
		field.String("webhook_url").
			Optional().
			Comment("Outgoing webhook target, fired once a transcript finishes"),
		field.String("webhook_secret").
			Optional().
			Comment("HMAC-SHA256 signing secret for outgoing webhook deliveries"),
		field.Bool("is_locked").
			Default(false),
		field.String("chat_channel").
			Optional().
			Comment("Slack channel id for the post-transcript chat notification"),
		field.Enum("recording_type").
			Values("cloud", "local").
			Default("cloud"),
		field.Enum("recording_trigger").
			Values("automatic", "automatic-2nd-participant", "manual").
			Default("automatic-2nd-participant"),
	}
}

// Edges of the Room.
func (Room) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("meetings", Meeting.Type),
		edge.To("transcripts", Transcript.Type),
	}
}

// Indexes of the Room.
func (Room) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
	}
}
