package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/happon/Crawl-Server/internal/importer"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// report is the machine-readable form of a run.
type report struct {
	RunID         string   `json:"run_id" yaml:"run_id"`
	Endpoint      string   `json:"endpoint" yaml:"endpoint"`
	Bundle        string   `json:"bundle" yaml:"bundle"`
	Outcome       string   `json:"outcome" yaml:"outcome"`
	ImportID      string   `json:"import_id,omitempty" yaml:"import_id,omitempty"`
	ImportName    string   `json:"import_name,omitempty" yaml:"import_name,omitempty"`
	UploadStatus  string   `json:"upload_status,omitempty" yaml:"upload_status,omitempty"`
	Validation    string   `json:"validation" yaml:"validation"`
	Operation     string   `json:"operation,omitempty" yaml:"operation,omitempty"`
	Argument      string   `json:"argument,omitempty" yaml:"argument,omitempty"`
	Reason        string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Warnings      []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode     string   `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	GraphQLErrors []string `json:"graphql_errors,omitempty" yaml:"graphql_errors,omitempty"`
	States        []string `json:"states" yaml:"states"`
}

func newReport(endpoint, bundlePath string, res *importer.Result) report {
	r := report{
		RunID:        res.RunID,
		Endpoint:     endpoint,
		Bundle:       bundlePath,
		Outcome:      string(res.Outcome),
		ImportID:     res.ImportID,
		ImportName:   res.ImportName,
		UploadStatus: res.UploadStatus,
		Validation:   string(res.Validation),
		Operation:    res.Capability.Operation,
		Argument:     res.Capability.Argument,
		Reason:       res.Capability.Reason,
	}
	for _, w := range res.Warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
		r.ErrorCode = res.Err.Code
		for _, e := range res.Err.GraphQLErrors {
			r.GraphQLErrors = append(r.GraphQLErrors, e.Message)
		}
	}
	for _, s := range res.States {
		r.States = append(r.States, string(s))
	}
	return r
}

func writeReport(w io.Writer, format string, r report) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
