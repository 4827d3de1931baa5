// Command generate regenerates the ent client for the intake schema.
package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

func main() {
	cfg := &gen.Config{
		Target:   "gen/ent",
		Package:  "ent",
		Schema:   "ent/schema",
		Features: []gen.Feature{gen.FeatureUpsert},
	}
	if err := entc.Generate("./db/ent/schema", cfg); err != nil {
		log.Fatal(err)
	}
}
