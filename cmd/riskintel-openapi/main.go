// Package main generates the OpenAPI document for the riskintel HTTP
// surface using stub handlers — no database, pipeline, or credentials
// required.
//
// Usage:
//
//	go run ./cmd/riskintel-openapi > openapi.json
//	go run ./cmd/riskintel-openapi -yaml > openapi.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/riskintel/internal/httpapi"
)

func main() {
	outputFile := flag.String("output", "", "Output file path (default: stdout)")
	outputYAML := flag.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := flag.String("base-url", "https://riskintel.example.com", "Base URL for the API server")
	flag.Parse()

	router := chi.NewRouter()
	api := humachi.New(router, httpapi.NewHumaConfig(*baseURL))
	httpapi.Register(api, httpapi.StubHandlers())

	spec := api.OpenAPI()

	var data []byte
	var err error
	if *outputYAML {
		data, err = yaml.Marshal(spec)
	} else {
		data, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling OpenAPI spec: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "OpenAPI spec written to %s\n", *outputFile)
		return
	}
	fmt.Print(string(data))
}
