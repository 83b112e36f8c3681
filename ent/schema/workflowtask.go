package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WorkflowTask holds the schema definition for the WorkflowTask entity —
// one row per DAG node per run. input_ref/output_ref point at
// object-storage payloads rather than embedding them, so a queue row
// stays small regardless of what a task actually processes (spec.md §6).
type WorkflowTask struct {
	ent.Schema
}

// Fields of the WorkflowTask.
func (WorkflowTask) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id").
			Unique().
			Immutable(),
		field.String("workflow_run_id").
			Immutable(),
		field.String("name").
			Comment(`DAG node name; fan-out nodes carry a "#index" suffix, e.g. "pad_track#2"`),
		field.Enum("status").
			Values("queued", "running", "completed", "failed").
			Default("queued"),
		field.JSON("parents", []string{}).
			Comment("Names of the tasks this one's claim query requires to be completed"),
		field.String("input_ref").
			Optional(),
		field.String("output_ref").
			Optional(),
		field.String("error").
			Optional(),
		field.Int("attempt").
			Default(0),
		field.Int("children_total").
			Optional().
			Nillable().
			Comment("Advisory fan-out width for a fan-in gate task; not load-bearing for dependency gating"),
		field.Int("children_completed").
			Default(0),
		field.String("claimed_by").
			Optional().
			Nillable().
			Comment("Worker id that holds this task's claim"),
		field.Time("claimed_at").
			Optional().
			Nillable(),
		field.Time("heartbeat_at").
			Optional().
			Nillable().
			Comment("Orphan-sweep staleness check"),
		field.Time("queued_at").
			Default(time.Now).
			Immutable(),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
	}
}

// Edges of the WorkflowTask.
func (WorkflowTask) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", WorkflowRun.Type).
			Ref("tasks").
			Field("workflow_run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the WorkflowTask.
func (WorkflowTask) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("workflow_run_id", "name").
			Unique(),
		// Claimable-subset and orphan-check partial indexes are created
		// directly in pkg/database/migrations rather than expressed here.
	}
}
