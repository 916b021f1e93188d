// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sources

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/scorehub/ingest-hub/pkg/log"
)

// dataSourcesSchema describes the shape of data_sources.json. A file that
// fails this check is logged and treated as empty rather than aborting
// startup — persisted state is a cache, never the source of truth.
const dataSourcesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "host", "port"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"name": {"type": "string"},
			"host": {"type": "string", "minLength": 1},
			"port": {"type": "integer", "minimum": 1, "maximum": 65535},
			"enabled": {"type": "boolean"},
			"sport_overrides": {"type": "object"}
		}
	}
}`

var compiledDataSourcesSchema = mustCompile("data_sources.schema.json", dataSourcesSchema)

func mustCompile(name, schema string) *jsonschema.Schema {
	sch, err := jsonschema.CompileString(name, schema)
	if err != nil {
		panic(fmt.Sprintf("sources: invalid embedded schema %s: %v", name, err))
	}
	return sch
}

// validateDataSources reports whether raw conforms to dataSourcesSchema,
// logging the first violation when it does not.
func validateDataSources(raw []byte) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warnf("sources: data_sources.json is not valid JSON: %v", err)
		return false
	}
	if err := compiledDataSourcesSchema.Validate(v); err != nil {
		log.Warnf("sources: data_sources.json failed schema validation: %v", err)
		return false
	}
	return true
}
