// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"investor-match-workers/pkg/registry"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var registryPath string

	root := &cobra.Command{
		Use:          "registry-updater",
		Short:        "Maintain the activity registry read by the worker manager",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "path to registry file")

	root.AddCommand(addCmd(&registryPath))
	root.AddCommand(updateCmd(&registryPath))
	root.AddCommand(validateCmd(&registryPath))
	root.AddCommand(listCmd(&registryPath))
	return root
}

func addCmd(path *string) *cobra.Command {
	var a registry.Activity

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new activity",
		Example: `  registry-updater add --id rank-investors --displayName "Rank Investors" \
    --description "Ranks investors for a startup" --category investor --taskType rank-investors`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.TaskType == "" {
				a.TaskType = a.ID
			}
			reg, err := registry.LoadOrNew(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Add(a); err != nil {
				return err
			}
			if err := registry.Save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", a.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.ID, "id", "", "activity ID (e.g. rank-investors)")
	f.StringVar(&a.DisplayName, "displayName", "", "display name")
	f.StringVar(&a.Description, "description", "", "description")
	f.StringVar(&a.Category, "category", "", "category (e.g. investor)")
	f.StringVar(&a.TaskType, "taskType", "", "Camunda task type, defaults to the ID")
	f.StringVar(&a.Version, "version", "1.0.0", "version")
	f.StringVar(&a.ImplementationStatus, "status", registry.StatusPlanned, "planned, in-progress, completed or verified")
	f.StringVar(&a.Timeout, "timeout", "10s", "job timeout")
	f.IntVar(&a.Retries, "retries", 0, "job retries")
	f.StringSliceVar(&a.ErrorCodes, "errorCodes", nil, "BPMN error codes")
	f.StringSliceVar(&a.Tags, "tags", nil, "tags")
	for _, name := range []string{"id", "displayName", "description", "category"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func updateCmd(path *string) *cobra.Command {
	var id, field, value string

	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Update one field of an existing activity",
		Example: "  registry-updater update --id rank-investors --field status --value completed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(id, field, value); err != nil {
				return err
			}
			if err := registry.Save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "activity ID to update")
	cmd.Flags().StringVar(&field, "field", "", "status, version, displayName, description, category, taskType, timeout or retries")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	for _, name := range []string{"id", "field", "value"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func validateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}
}

func listCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			return printActivities(cmd.OutOrStdout(), reg.Activities)
		},
	}
}

func printActivities(out io.Writer, activities []registry.Activity) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES")
	for _, a := range activities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, a.Retries)
	}
	return w.Flush()
}
