package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"brief-copilot/db"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewPostingsCommand lists the job postings generated from briefs
func NewPostingsCommand(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "postings",
		Short: "List generated job postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			of, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("error accessing flag output for command %s: %w", cmd.Name(), err)
			}

			if err := opts.load(cmd); err != nil {
				return err
			}
			defer opts.close()

			database, err := db.New(opts.config.Data.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			if userID == "" {
				userID = opts.config.Backend.UserID
			}
			if userID == "" {
				userID = "local"
			}

			postings, err := database.ListJobPostings(userID)
			if err != nil {
				return err
			}
			if postings == nil {
				postings = []*db.JobPosting{}
			}

			out := cmd.OutOrStdout()
			switch of {
			case "":
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tBRIEF\tCREATED")
				for _, p := range postings {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.SourceBriefID, p.CreatedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			case "yaml":
				y, err := yaml.Marshal(postings)
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(y))
			case "json":
				j, err := json.MarshalIndent(postings, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(j))
			default:
				return fmt.Errorf("invalid output format: %s", of)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output format; available options are 'yaml' and 'json'")
	cmd.Flags().StringVar(&userID, "user", "", "Owner of the postings (default backend.user_id)")
	return cmd
}
