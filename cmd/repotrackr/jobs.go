package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var popularLimit int

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and retry pipeline jobs",
}

func init() {
	jobCmd.AddCommand(jobGetCmd)
	jobCmd.AddCommand(jobRetryCmd)

	skillsPopularCmd.Flags().IntVar(&popularLimit, "limit", 20, "number of skills to show")
	skillsCmd.AddCommand(skillsPopularCmd)
	skillsCmd.AddCommand(skillsCategoriesCmd)
}

var jobGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show a job's status and result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiGet("/api/v1/jobs/" + args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var jobRetryCmd = &cobra.Command{
	Use:   "retry <job-id>",
	Short: "Re-queue a failed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiPost("/api/v1/jobs/"+args[0]+"/retry", nil)
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Query skills across all projects",
}

var skillsPopularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Show the most frequent skills",
	RunE: func(cmd *cobra.Command, _ []string) error {
		body, err := apiGet(fmt.Sprintf("/api/v1/skills/popular?limit=%d", popularLimit))
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}

var skillsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show skill categories and usage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		body, err := apiGet("/api/v1/skills/categories")
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	},
}
