package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	projectName     string
	projectRepoURL  string
	projectPlanPath string
	progressLimit   int
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage tracked projects",
}

func init() {
	projectAddCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectAddCmd.Flags().StringVar(&projectRepoURL, "repo", "", "repository URL (required)")
	projectAddCmd.Flags().StringVar(&projectPlanPath, "plan", "", "path to the plan document within the repo")
	_ = projectAddCmd.MarkFlagRequired("name")
	_ = projectAddCmd.MarkFlagRequired("repo")

	projectProgressCmd.Flags().IntVar(&progressLimit, "limit", 10, "number of snapshots to show")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectGetCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectTasksCmd)
	projectCmd.AddCommand(projectProgressCmd)
	projectCmd.AddCommand(projectSkillsCmd)
}

var projectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a repository for tracking",
	Example: `  repotrackr project add --name demo --repo https://github.com/acme/demo.git
  repotrackr project add --name demo --repo git@github.com:acme/demo.git --plan docs/plan.md`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		payload, err := json.Marshal(map[string]string{
			"name":      projectName,
			"repo_url":  projectRepoURL,
			"plan_path": projectPlanPath,
		})
		if err != nil {
			return err
		}
		body, err := apiPost("/api/v1/projects", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		body, err := apiGet("/api/v1/projects")
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var projectGetCmd = &cobra.Command{
	Use:   "get <project-id>",
	Short: "Show one project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiGet("/api/v1/projects/" + args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Stop tracking a project and drop its data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := apiDelete("/api/v1/projects/" + args[0]); err != nil {
			return err
		}
		cmd.Println("deleted")
		return nil
	},
}

var projectTasksCmd = &cobra.Command{
	Use:   "tasks <project-id>",
	Short: "Show the project's extracted tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiGet("/api/v1/projects/" + args[0] + "/tasks")
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var projectProgressCmd = &cobra.Command{
	Use:   "progress <project-id>",
	Short: "Show the project's progress snapshots, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiGet(fmt.Sprintf("/api/v1/projects/%s/progress?limit=%d", args[0], progressLimit))
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var projectSkillsCmd = &cobra.Command{
	Use:   "skills <project-id>",
	Short: "Show the project's extracted skills",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiGet("/api/v1/projects/" + args[0] + "/skills")
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var processCmd = &cobra.Command{
	Use:   "process <project-id>",
	Short: "Trigger a processing run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiPost("/api/v1/projects/"+args[0]+"/process", nil)
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}
