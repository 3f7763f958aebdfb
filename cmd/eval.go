package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nodeflow/nodeflow/internal/eval"
	"github.com/nodeflow/nodeflow/internal/services/completion"
	"github.com/nodeflow/nodeflow/internal/utils"
	"github.com/nodeflow/nodeflow/internal/validator"
	"github.com/nodeflow/nodeflow/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	evalWorkflowPath string
	evalTaskPath     string
	evalOutputVar    string
	evalNumSamples   int
	evalConcurrency  int
	evalOutputFolder string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a workflow output over sampled task inputs",
	Long: `Run a workflow repeatedly against inputs sampled from a task file
and report per-sample results for one leaf output variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validator.ValidateEnvVars(); err != nil {
			return fmt.Errorf("environment validation failed: %w", err)
		}

		def, err := workflow.LoadFromFile(evalWorkflowPath)
		if err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}

		task, err := eval.LoadTask(evalTaskPath)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}

		svc, err := completion.NewService()
		if err != nil {
			return fmt.Errorf("failed to initialize completion service: %w", err)
		}

		runner, err := workflow.NewRunner(svc)
		if err != nil {
			return fmt.Errorf("failed to initialize runner: %w", err)
		}

		launcher := eval.NewLauncher(runner)
		if evalConcurrency > 0 {
			launcher.SetConcurrency(evalConcurrency)
		}

		req := eval.Request{
			EvalName:       task.Metadata.Name,
			OutputVariable: evalOutputVar,
			NumSamples:     evalNumSamples,
		}

		report, err := launcher.Launch(context.Background(), def, req, task.Sampler())
		if err != nil {
			return fmt.Errorf("eval launch failed: %w", err)
		}

		results, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}

		if evalOutputFolder != "" {
			runDir := filepath.Join(evalOutputFolder,
				fmt.Sprintf("%s-%s", task.Metadata.Name, time.Now().Format("20060102-150405")))
			if err := os.MkdirAll(runDir, 0755); err != nil {
				return fmt.Errorf("failed to create eval directory: %w", err)
			}
			reportPath := filepath.Join(runDir, "report.json")
			if err := os.WriteFile(reportPath, results, 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			utils.LogInfo("Report written to %s", reportPath)
		} else {
			fmt.Println(string(results))
		}

		if report.Failed > 0 {
			utils.LogWarning("Eval finished with %d failed samples", report.Failed)
		} else {
			utils.LogSuccess("Eval finished: %d/%d samples succeeded", report.Succeeded, report.NumSamples)
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVarP(&evalWorkflowPath, "workflow", "w", "", "Path to workflow YAML file (required)")
	evalCmd.Flags().StringVarP(&evalTaskPath, "task", "t", "", "Path to eval task YAML file (required)")
	evalCmd.Flags().StringVarP(&evalOutputVar, "output-variable", "a", "", "Leaf output address to evaluate, e.g. solver-answer (required)")
	evalCmd.Flags().IntVarP(&evalNumSamples, "samples", "s", 0, "Number of samples to run (default 10)")
	evalCmd.Flags().IntVarP(&evalConcurrency, "concurrency", "c", 0, "Maximum samples running at once")
	evalCmd.Flags().StringVarP(&evalOutputFolder, "output-folder", "o", "", "Folder to write the eval report into")
	_ = evalCmd.MarkFlagRequired("workflow")
	_ = evalCmd.MarkFlagRequired("task")
	_ = evalCmd.MarkFlagRequired("output-variable")
	rootCmd.AddCommand(evalCmd)
}
