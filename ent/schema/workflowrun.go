package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WorkflowRun holds the schema definition for the WorkflowRun entity —
// one per transcript-processing attempt. A force-replay re-seeds this
// run's tasks rather than creating a new row (spec.md §4.11).
type WorkflowRun struct {
	ent.Schema
}

// Fields of the WorkflowRun.
func (WorkflowRun) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("transcript_id").
			Immutable(),
		field.Enum("status").
			Values("running", "completed", "failed").
			Default("running"),
		field.Bool("force_replay").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the WorkflowRun. transcript_id is a plain foreign key rather
// than a declared edge pair — Transcript.workflow_run_id is set after the
// run is created (spec.md §4.11), not the other way around, so there is
// no stable Ref() target on the Transcript side.
func (WorkflowRun) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("tasks", WorkflowTask.Type),
	}
}

// Indexes of the WorkflowRun.
func (WorkflowRun) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("transcript_id"),
	}
}
