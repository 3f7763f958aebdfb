package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nodeflow/nodeflow/internal/config"
	"github.com/nodeflow/nodeflow/internal/services/completion"
	"github.com/nodeflow/nodeflow/internal/utils"
	"github.com/nodeflow/nodeflow/internal/validator"
	"github.com/nodeflow/nodeflow/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	workflowFilePath string
	inputFilePath    string
	outputFolderPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workflow graph",
	Long:  `Execute a workflow graph defined in a YAML file against an input record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Validate that required environment variables are set
		if err := validator.ValidateEnvVars(); err != nil {
			return fmt.Errorf("environment validation failed: %w", err)
		}

		runConfig, err := config.NewRunConfig(workflowFilePath, inputFilePath, outputFolderPath)
		if err != nil {
			return fmt.Errorf("invalid run configuration: %w", err)
		}

		def, err := workflow.LoadFromFile(runConfig.WorkflowPath)
		if err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}

		input, err := runConfig.LoadInput()
		if err != nil {
			return fmt.Errorf("failed to load input: %w", err)
		}

		svc, err := completion.NewService()
		if err != nil {
			return fmt.Errorf("failed to initialize completion service: %w", err)
		}

		runner, err := workflow.NewRunner(svc)
		if err != nil {
			return fmt.Errorf("failed to initialize runner: %w", err)
		}

		utils.LogInfo("Running workflow %s", def.Name)
		outputs, err := runner.Run(context.Background(), def, input)
		if err != nil {
			return fmt.Errorf("workflow execution failed: %w", err)
		}

		results, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}

		if runConfig.OutputPath != "" {
			// Each run gets its own timestamped folder under the output path
			runDir := filepath.Join(runConfig.OutputPath,
				fmt.Sprintf("%s-%s", def.Name, time.Now().Format("20060102-150405")))
			if err := os.MkdirAll(runDir, 0755); err != nil {
				return fmt.Errorf("failed to create run directory: %w", err)
			}
			resultsPath := filepath.Join(runDir, "results.json")
			if err := os.WriteFile(resultsPath, results, 0644); err != nil {
				return fmt.Errorf("failed to write results: %w", err)
			}
			utils.LogInfo("Results written to %s", resultsPath)
		} else {
			fmt.Println(string(results))
		}

		utils.LogSuccess("Workflow completed successfully")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&workflowFilePath, "workflow", "w", "", "Path to workflow YAML file (required)")
	runCmd.Flags().StringVarP(&inputFilePath, "input", "i", "", "Path to input record file (JSON or YAML)")
	runCmd.Flags().StringVarP(&outputFolderPath, "output-folder", "o", "", "Folder to write run results into")
	_ = runCmd.MarkFlagRequired("workflow")
	rootCmd.AddCommand(runCmd)
}
