// Command schema-generator regenerates the embedded configuration schema.
// Run it from the repository root after changing config/types.go:
//
//	go run ./tools/schema-generator
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/daily/config"
)

func main() {
	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	outputPath := filepath.Join("schema", "daily.embedded.schema.json")
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	if err := os.WriteFile(outputPath, schemaBytes, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Regenerated %s", outputPath)
}
