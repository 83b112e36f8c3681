package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Event holds the schema definition for the Event entity — the
// append-only log backing the WebSocket catch-up mechanism (C9). A
// reconnecting client resumes from its last-seen id via
// "WHERE transcript_id = $1 AND id > $2 ORDER BY id".
type Event struct {
	ent.Schema
}

// Fields of the Event.
func (Event) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id").
			Unique().
			Immutable(),
		field.String("transcript_id").
			Immutable(),
		field.String("channel").
			Immutable().
			Comment("PostgreSQL NOTIFY channel this event was (or would be) published on"),
		field.String("type").
			Immutable().
			Comment("One of the enumerated event names, e.g. TOPIC, STATUS, DAG_STATUS"),
		field.JSON("payload", map[string]interface{}{}).
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Event.
func (Event) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("transcript", Transcript.Type).
			Ref("events").
			Field("transcript_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Event.
func (Event) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("transcript_id", "id"),
		index.Fields("created_at"),
	}
}
