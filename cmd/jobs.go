package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List ingestion jobs and their status",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().String("status", "", "filter by status (scheduled, in_progress, done, failed)")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	jobStore := jobs.NewStore(database)
	ctx := context.Background()

	var list []jobs.Job
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		list, err = jobStore.ListByStatus(ctx, jobs.Status(status))
	} else {
		list, err = jobStore.List(ctx)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No ingestion jobs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tUPDATED\tSOURCE\tERROR")
	for _, job := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			job.ID, job.Status, job.UpdatedAt.Local().Format(time.DateTime),
			job.SourceURL, job.Error)
	}
	return w.Flush()
}
