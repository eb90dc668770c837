package weather

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed snapshot.schema.json
var snapshotSchemaJSON []byte

var (
	snapshotSchemaOnce sync.Once
	snapshotSchema     *gojsonschema.Schema
	snapshotSchemaErr  error
)

// ValidateSnapshotJSON checks a client supplied snapshot before it is fed back
// into prompt synthesis.
func ValidateSnapshotJSON(raw []byte) error {
	snapshotSchemaOnce.Do(func() {
		snapshotSchema, snapshotSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(snapshotSchemaJSON))
	})
	if snapshotSchemaErr != nil {
		return fmt.Errorf("load snapshot schema: %w", snapshotSchemaErr)
	}

	result, err := snapshotSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("invalid weather data: %s", strings.Join(problems, "; "))
}
