package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nodeflow/nodeflow/internal/node"
)

// RunConfig holds the configuration for a single workflow run
type RunConfig struct {
	WorkflowPath string
	InputPath    string
	OutputPath   string
	InputFileExt string
}

// NewRunConfig creates a new run configuration
func NewRunConfig(workflowPath, inputPath, outputPath string) (*RunConfig, error) {
	config := &RunConfig{
		WorkflowPath: workflowPath,
		InputPath:    inputPath,
		OutputPath:   outputPath,
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate performs comprehensive validation of the run configuration
func (c *RunConfig) validate() error {
	// Validate workflow path
	if c.WorkflowPath == "" {
		return fmt.Errorf("workflow path is required")
	}
	if _, err := os.Stat(c.WorkflowPath); os.IsNotExist(err) {
		return fmt.Errorf("workflow file does not exist: %s", c.WorkflowPath)
	}

	// Validate input path if provided
	if c.InputPath != "" {
		fileInfo, err := os.Stat(c.InputPath)
		if err != nil {
			return fmt.Errorf("input path does not exist: %w", err)
		}
		if fileInfo.IsDir() {
			return fmt.Errorf("input must be a file, not a directory: %s", c.InputPath)
		}
		c.InputFileExt = strings.ToLower(filepath.Ext(c.InputPath))
		switch c.InputFileExt {
		case ".json", ".yaml", ".yml":
		default:
			return fmt.Errorf("unsupported input file type: %s", c.InputFileExt)
		}
	}

	// Validate output path
	if c.OutputPath != "" {
		fileInfo, err := os.Stat(c.OutputPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to access output path: %w", err)
			}
			// Create output directory if it doesn't exist
			if err := os.MkdirAll(c.OutputPath, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		} else if !fileInfo.IsDir() {
			return fmt.Errorf("output must be a directory, not a file: %s", c.OutputPath)
		}
	}

	return nil
}

// LoadInput reads the input record from the configured input file.
// A run without an input file starts from an empty record.
func (c *RunConfig) LoadInput() (node.Record, error) {
	if c.InputPath == "" {
		return node.Record{}, nil
	}

	data, err := os.ReadFile(c.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	record := node.Record{}
	switch c.InputFileExt {
	case ".json":
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to parse input file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to parse input file: %w", err)
		}
	}

	return record, nil
}
