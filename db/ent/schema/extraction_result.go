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
)

type ExtractionResult struct{ ent.Schema }

func (ExtractionResult) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "extraction_results"},
	}
}

func (ExtractionResult) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		// explicit FK
		field.UUID("document_id", uuid.UUID{}),
		field.String("text").
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.Int("text_length").NonNegative(),
		field.String("method").NotEmpty(),
		field.Float32("ocr_confidence").Optional().Nillable(),
		field.Int("pages").NonNegative(),
		field.Int64("duration_ms").NonNegative(),
		// superseded results stay for audit; only one row is current
		field.Bool("current").Default(true),
		field.Time("created_at").Default(time.Now),
	}
}

func (ExtractionResult) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("document", Document.Type).
			Ref("extractions").
			Field("document_id").
			Unique().
			Required(),
	}
}

func (ExtractionResult) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("document_id", "current"),
	}
}
