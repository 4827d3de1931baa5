package schema

import (
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

type Document struct {
	ent.Schema
}

func (Document) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "documents"},
	}
}

func (Document) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("filename").NotEmpty(),
		field.String("content_type").NotEmpty().
			Validate(utils.EnumValidator(constants.ContentTypes...)),
		field.String("storage_ref").NotEmpty(),
		field.Int("file_size").NonNegative(),
		field.Bytes("content_hash").NotEmpty().
			SchemaType(map[string]string{dialect.Postgres: "bytea"}),
		field.String("category").NotEmpty().
			Validate(utils.EnumValidator(constants.Categories...)),
		field.String("status").NotEmpty().
			Validate(utils.EnumValidator(constants.JobStatuses...)),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (Document) Edges() []ent.Edge {
	return []ent.Edge{
		// ONE document -> MANY extraction results (only one is current)
		edge.To("extractions", ExtractionResult.Type),
		// ONE document -> MANY pipeline jobs (at most one active)
		edge.To("jobs", PipelineJob.Type),
	}
}

func (Document) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("content_hash").Unique(),
		index.Fields("status", "created_at"),
	}
}
