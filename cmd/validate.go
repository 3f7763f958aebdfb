package cmd

import (
	"fmt"

	"github.com/nodeflow/nodeflow/internal/utils"
	"github.com/nodeflow/nodeflow/internal/validator"
	"github.com/nodeflow/nodeflow/internal/workflow"

	"github.com/spf13/cobra"
)

var validateWorkflowPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate environment setup and workflow files",
	Long:  `Check that required environment variables are set and, optionally, that a workflow file is well formed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.LogInfo("Validating environment...")

		if err := validator.ValidateEnvVars(); err != nil {
			return fmt.Errorf("environment variables validation failed: %w", err)
		}
		utils.LogSuccess("Environment variables: OK")

		if validateWorkflowPath != "" {
			def, err := workflow.LoadFromFile(validateWorkflowPath)
			if err != nil {
				return fmt.Errorf("workflow validation failed: %w", err)
			}

			addresses, err := workflow.ResolveLeafOutputAddresses(def)
			if err != nil {
				return fmt.Errorf("workflow validation failed: %w", err)
			}

			utils.LogSuccess("Workflow %s: OK (%d nodes, %d leaf outputs)",
				def.Name, len(def.Nodes), len(addresses))
		}

		utils.LogSuccess("Validation completed successfully")
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateWorkflowPath, "workflow", "w", "", "Path to a workflow YAML file to validate")
	rootCmd.AddCommand(validateCmd)
}
