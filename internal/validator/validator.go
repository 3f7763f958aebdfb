// Package validator checks that the runtime environment is usable
// before any workflow is executed.
package validator

import (
	"fmt"
	"os"

	"github.com/nodeflow/nodeflow/internal/utils"
)

// requiredEnvVars lists required environment variables
var requiredEnvVars = []string{
	"OPENAI_API_KEY",
}

// ValidateEnvVars checks if all required environment variables are set
func ValidateEnvVars() error {
	for _, envVar := range requiredEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			return fmt.Errorf("environment variable %s not set", envVar)
		}

		// Don't print the actual value for security
		utils.LogVerbose("✓ %s is set", envVar)
	}

	return nil
}
