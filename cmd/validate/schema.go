package main

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// schemaBase is only an identifier; nothing is fetched from it.
const schemaBase = "https://barter-engine.local/schemas/"

var (
	schemasOnce sync.Once
	schemas     map[definitionKind]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[definitionKind]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		files, err := fs.Glob(schemaFS, "schemas/*.schema.json")
		if err != nil {
			schemasErr = err
			return
		}
		for _, f := range files {
			data, err := schemaFS.ReadFile(f)
			if err != nil {
				schemasErr = fmt.Errorf("failed to read %s: %w", f, err)
				return
			}
			name := f[len("schemas/"):]
			if err := compiler.AddResource(schemaBase+name, bytes.NewReader(data)); err != nil {
				schemasErr = fmt.Errorf("failed to add schema %s: %w", name, err)
				return
			}
		}

		compiled := map[definitionKind]*jsonschema.Schema{}
		for kind, name := range map[definitionKind]string{
			kindTrader:  "character.schema.json",
			kindPlayer:  "character.schema.json",
			kindFaction: "faction.schema.json",
		} {
			s, err := compiler.Compile(schemaBase + name)
			if err != nil {
				schemasErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			compiled[kind] = s
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// validateSchema checks raw definition JSON against the schema for kind.
func validateSchema(kind definitionKind, data []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return all[kind].Validate(doc)
}
