package eval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nodeflow/nodeflow/internal/node"
)

// TaskMetadata describes an evaluation task file
type TaskMetadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
	NumSamples  int    `yaml:"num_samples" json:"num_samples"`
	PaperLink   string `yaml:"paper_link" json:"paper_link"`
}

// Task is an evaluation task definition: metadata plus inline samples
type Task struct {
	Metadata TaskMetadata  `yaml:"metadata" json:"metadata"`
	Samples  []node.Record `yaml:"samples" json:"samples"`
}

// TaskInfo is the catalog entry for one task file
type TaskInfo struct {
	TaskMetadata
	FileName string `json:"file_name"`
}

// LoadTask reads a task definition from a YAML file
func LoadTask(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var task Task
	if err := yaml.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task file %s: %w", filepath.Base(path), err)
	}

	if task.Metadata.Name == "" {
		task.Metadata.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &task, nil
}

// ListTasks scans a directory for task YAML files and returns their
// catalog entries
func ListTasks(dir string) ([]TaskInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("tasks directory not found: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks directory: %w", err)
	}

	infos := make([]TaskInfo, 0, len(paths))
	for _, path := range paths {
		task, err := LoadTask(path)
		if err != nil {
			return nil, err
		}
		infos = append(infos, TaskInfo{
			TaskMetadata: task.Metadata,
			FileName:     filepath.Base(path),
		})
	}

	return infos, nil
}

// FindTask loads the task with the given name from a directory
func FindTask(dir, name string) (*Task, error) {
	path := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("task %s not found: %w", name, err)
	}
	return LoadTask(path)
}

// Sampler returns a sampler over the task's inline samples. Requests for
// more inputs than the task holds wrap around.
func (t *Task) Sampler() Sampler {
	return &taskSampler{samples: t.Samples}
}

type taskSampler struct {
	samples []node.Record
}

func (s *taskSampler) Sample(_ context.Context, n int) ([]node.Record, error) {
	if len(s.samples) == 0 {
		return nil, fmt.Errorf("task has no samples")
	}

	out := make([]node.Record, n)
	for i := range out {
		out[i] = s.samples[i%len(s.samples)]
	}
	return out, nil
}
