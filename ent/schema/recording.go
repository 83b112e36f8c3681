package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Recording holds the schema definition for the Recording entity — the
// object-storage-backed artifact a C12 intake webhook delivers, before any
// transcript processing begins.
type Recording struct {
	ent.Schema
}

// Fields of the Recording.
func (Recording) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("bucket_name"),
		field.String("object_key").
			Optional().
			Comment("Single-track object key; empty when track_keys is set instead"),
		field.JSON("track_keys", []string{}).
			Optional().
			Comment("Per-track object keys for a multitrack recording"),
		field.Time("recorded_at"),
		field.Enum("status").
			Values("started", "ready", "error", "orphan").
			Default("started").
			Comment("orphan: webhook arrived before its meeting row (spec.md §6, scenario S6)"),
		field.String("meeting_id").
			Optional().
			Nillable(),
	}
}

// Edges of the Recording.
func (Recording) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("meeting", Meeting.Type).
			Ref("recordings").
			Field("meeting_id").
			Unique(),
		edge.To("transcript", Transcript.Type).
			Unique(),
	}
}

// Indexes of the Recording. The bucket/object_key pair is the dedup key a
// retried webhook delivery is checked against (C12).
func (Recording) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("meeting_id"),
		index.Fields("bucket_name", "object_key").
			Unique(),
	}
}
