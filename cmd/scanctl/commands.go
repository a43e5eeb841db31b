package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/scanhub/internal/api/model"
	"github.com/cuongbtq/scanhub/internal/api/storage"
	"github.com/cuongbtq/scanhub/internal/dispatch"
	"github.com/cuongbtq/scanhub/internal/importer"
	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/params"
	"github.com/cuongbtq/scanhub/internal/worker/executor"
	"github.com/cuongbtq/scanhub/shared/rabbitmq"
)

func kindNames() string {
	names := make([]string, 0, len(jobs.Kinds()))
	for _, kind := range jobs.Kinds() {
		names = append(names, string(kind))
	}
	return strings.Join(names, ", ")
}

func (a *app) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <kind> [key=value...]",
		Short: "Validate job params and print the coerced values",
		Long:  "Validate job params against the schema of a job kind.\n\nKinds: " + kindNames(),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseKeyValues(args[1:])
			if err != nil {
				return err
			}

			values, err := jobs.Validate(jobs.Kind(args[0]), input)
			if err != nil {
				return printValidationError(cmd.ErrOrStderr(), err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(values)
		},
	}
}

func (a *app) newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <kind> [key=value...]",
		Short: "Validate job params and enqueue the job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseKeyValues(args[1:])
			if err != nil {
				return err
			}

			// fail fast before connecting anywhere
			kind := jobs.Kind(args[0])
			if _, err := jobs.Validate(kind, input); err != nil {
				return printValidationError(cmd.ErrOrStderr(), err)
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			dbClient, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer dbClient.Close()

			rabbitClient, err := rabbitmq.NewClient(cfg.RabbitMQ.ClientConfig(), a.logger.Logger)
			if err != nil {
				return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
			}
			defer rabbitClient.Close()

			dispatcher := dispatch.NewDispatcher(storage.NewStorage(dbClient.GetDB()), rabbitClient, a.logger.Logger)
			job, err := dispatcher.Dispatch(cmd.Context(), kind, input)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Job enqueued successfully: %s\n", job.JobID)
			return nil
		},
	}
}

func (a *app) newJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect recorded jobs",
	}

	var (
		kind   string
		status string
		limit  int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbClient, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer dbClient.Close()

			list, err := storage.NewStorage(dbClient.GetDB()).ListJobs(cmd.Context(), storage.JobFilter{
				Kind:     kind,
				Status:   strings.ToUpper(status),
				PageSize: limit,
			})
			if err != nil {
				return err
			}
			if len(list) > limit {
				list = list[:limit]
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "JOB ID\tKIND\tSTATUS\tCREATED\tERROR")
			for _, job := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					job.JobID, job.Kind, job.Status,
					job.CreatedAt.Format(time.RFC3339),
					truncate(job.ErrorMessage.String, 60),
				)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&kind, "kind", "", "Only list jobs of this kind")
	listCmd.Flags().StringVar(&status, "status", "", "Only list jobs in this status")
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs to list")

	getCmd := &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbClient, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer dbClient.Close()

			job, err := storage.NewStorage(dbClient.GetDB()).GetJobByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printJob(cmd.OutOrStdout(), job)
			return nil
		},
	}

	jobsCmd.AddCommand(listCmd, getCmd)
	return jobsCmd
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <nmap|masscan> <path>",
		Short: "Import an nmap or masscan output file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := jobs.Validate(jobs.KindImport, map[string]any{
				"type": args[0],
				"path": args[1],
			})
			if err != nil {
				return printValidationError(cmd.ErrOrStderr(), err)
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			dbClient, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer dbClient.Close()

			store := importer.NewStore(dbClient.GetDB())
			importExecutor := executor.NewImportExecutor(map[string]executor.FileImporter{
				jobs.ImportNmap:    importer.NewNmapImporter(store),
				jobs.ImportMasscan: importer.NewMasscanImporter(store, cfg.Tools.Masscan, cfg.Tools.TempDir),
			})

			if err := importExecutor.Perform(cmd.Context(), values); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", args[1])
			return nil
		},
	}
}

func (a *app) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbClient, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer dbClient.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			applied, err := dbClient.Migrate(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Database is up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(out, "Applied %s\n", version)
			}
			return nil
		},
	}
}

// printValidationError writes one line per failing field
func printValidationError(w io.Writer, err error) error {
	var errs params.Errors
	if !errors.As(err, &errs) {
		return err
	}

	for _, field := range errs.Fields() {
		fmt.Fprintf(w, "  %s: %s\n", field, strings.Join(errs[field], ", "))
	}
	return errors.New("invalid params")
}

func printJob(w io.Writer, job *model.Job) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Job ID:\t%s\n", job.JobID)
	fmt.Fprintf(tw, "Kind:\t%s\n", job.Kind)
	fmt.Fprintf(tw, "Status:\t%s\n", job.Status)
	fmt.Fprintf(tw, "Params:\t%s\n", job.Params)
	fmt.Fprintf(tw, "Created:\t%s\n", job.CreatedAt.Format(time.RFC3339))
	if job.WorkerID.Valid {
		fmt.Fprintf(tw, "Worker:\t%s\n", job.WorkerID.String)
	}
	if job.StartedAt.Valid {
		fmt.Fprintf(tw, "Started:\t%s\n", job.StartedAt.Time.Format(time.RFC3339))
	}
	if job.CompletedAt.Valid {
		fmt.Fprintf(tw, "Completed:\t%s\n", job.CompletedAt.Time.Format(time.RFC3339))
	}
	if job.ErrorMessage.Valid {
		fmt.Fprintf(tw, "Error:\t%s\n", job.ErrorMessage.String)
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
