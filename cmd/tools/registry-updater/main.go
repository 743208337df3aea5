// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"chore-workers/internal/common/validation"
	"chore-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	exportPath := exportCmd.String("path", defaultRegistryPath, "File to write the built-in registry to")

	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	taskType := updateCmd.String("taskType", "", "Task type of the activity to update")
	field := updateCmd.String("field", "", "Field to update (status, version, timeout, retries, description)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		reg := registry.Default()
		reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
		if err := saveRegistry(reg, *exportPath); err != nil {
			fmt.Printf("Error exporting registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d activities to %s\n", len(reg.Activities), *exportPath)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *taskType == "" || *field == "" || *value == "" {
			fmt.Println("Error: taskType, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(*updatePath, *taskType, *field, *value, time.Now()); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *taskType, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		if err := validateRegistry(reg); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))

	case "help":
		fallthrough
	default:
		help()
	}
}

func updateActivity(path, taskType, field, value string, now time.Time) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	idx := -1
	for i := range reg.Activities {
		if reg.Activities[i].TaskType == taskType {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("activity with task type %s not found", taskType)
	}

	a := &reg.Activities[idx]
	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "description":
		a.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid retries value: %q", value)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = now.UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

// validateRegistry checks that every bulk-operation task type is present
// exactly once and that each input schema compiles.
func validateRegistry(reg *registry.ActivityRegistry) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	seen := make(map[string]bool)
	for _, a := range reg.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q missing id or taskType", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		seen[a.TaskType] = true

		if _, err := time.ParseDuration(a.Timeout); a.Timeout != "" && err != nil {
			return fmt.Errorf("activity %s has invalid timeout %q", a.TaskType, a.Timeout)
		}
		res := validation.ValidateJSON([]byte("{}"), a.InputSchema)
		for _, e := range res.Errors {
			if e.Code == "SCHEMA_ERROR" {
				return fmt.Errorf("activity %s has an invalid input schema: %s", a.TaskType, e.Message)
			}
		}
	}

	for _, required := range []string{registry.TaskParseBulkRequest, registry.TaskDetectConflicts, registry.TaskAnalyzeImpact} {
		if !seen[required] {
			return fmt.Errorf("registry is missing task type %s", required)
		}
	}
	return nil
}

// saveRegistry handles saving the registry to file
func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  export    Write the built-in activity registry to a file
  update    Update one field of an activity, selected by task type
  validate  Validate a registry file
  help      Show this help message

Examples:
  registry-updater export -path configs/activity-registry.json
  registry-updater update -taskType detect-conflicts -field timeout -value 20s
  registry-updater validate -path configs/activity-registry.json

Point registry.path in config.yaml at the file to make the workers use it.
` + "\n")
}
