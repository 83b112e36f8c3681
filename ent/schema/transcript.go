package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Transcript holds the schema definition for the Transcript entity — the
// central row mutated by every stage of C11's DAG, from the moment C12's
// intake webhook creates it through finalize and cleanup.
type Transcript struct {
	ent.Schema
}

// Fields of the Transcript.
func (Transcript) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Enum("status").
			Values("idle", "processing", "ended", "error").
			Default("idle"),
		field.String("source_language").
			Optional().
			Comment("Detected/declared language of the source audio"),
		field.String("target_language").
			Default("en").
			Comment("Language summaries and titles are generated in"),
		field.Float("duration").
			Default(0).
			Comment("Seconds, set once mixdown completes"),
		field.String("title").
			Optional(),
		field.String("short_summary").
			Optional(),
		field.Text("long_summary").
			Optional(),
		field.Text("webvtt").
			Optional().
			Comment("Derived caption track, regenerated on every topics update"),
		field.JSON("waveform", []float64{}).
			Optional(),
		field.JSON("topics", []map[string]interface{}{}).
			Optional().
			Comment("Ordered list of detected topics, each carrying its own word span"),
		field.JSON("participants", []map[string]interface{}{}).
			Optional().
			Comment("Resolved from meeting_consent by C11's get_participants task"),
		field.String("workflow_run_id").
			Optional().
			Nillable(),
		field.Bool("audio_deleted").
			Default(false).
			Comment("Set when C10's consent cleanup removed the mixdown object"),
		field.String("zulip_message_id").
			Optional().
			Nillable().
			Comment("Chat message id returned by the post-finalize chat notification"),
		field.String("recording_id").
			Optional().
			Nillable(),
		field.String("room_id").
			Optional().
			Nillable(),
		field.String("user_id").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Transcript.
func (Transcript) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("recording", Recording.Type).
			Ref("transcript").
			Field("recording_id").
			Unique(),
		edge.From("room", Room.Type).
			Ref("transcripts").
			Field("room_id").
			Unique(),
		edge.To("events", Event.Type).
			Unique(false),
	}
}

// Indexes of the Transcript.
func (Transcript) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("recording_id"),
		index.Fields("room_id"),
		index.Fields("status"),
	}
}
