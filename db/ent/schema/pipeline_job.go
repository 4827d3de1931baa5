package schema

import (
	"encoding/json"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/db/ent/schema/utils"
)

type PipelineJob struct{ ent.Schema }

func (PipelineJob) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "pipeline_jobs"},
	}
}

func (PipelineJob) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		// explicit FK
		field.UUID("document_id", uuid.UUID{}),
		field.String("status").NotEmpty().
			Validate(utils.EnumValidator(constants.JobStatuses...)),
		field.Time("started_at").Default(time.Now),
		field.Time("completed_at").Optional().Nillable(),
		field.String("last_error").Optional().Nillable(),
		field.String("document_type").Optional().Nillable(),
		field.Float32("confidence").Optional().Nillable(),
		field.Bool("needs_review").Default(false),
		field.JSON("parse_result", json.RawMessage{}).Optional(),
		field.JSON("validation_result", json.RawMessage{}).Optional(),
		// caller-supplied payload from a manual confirmation, stored verbatim
		field.JSON("confirmed_data", json.RawMessage{}).Optional(),
		field.String("ocr_text").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
	}
}

func (PipelineJob) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("document", Document.Type).
			Ref("jobs").
			Field("document_id").
			Unique().
			Required(),
	}
}

func (PipelineJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("document_id", "status", "started_at"),
	}
}
