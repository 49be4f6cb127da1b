package main

import (
	"fmt"
	"path/filepath"

	"brief-copilot/db"
	"brief-copilot/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ExportFlags select what the export command writes and where
type ExportFlags struct {
	Format string
	Out    string
	UserID string
}

func (f *ExportFlags) BindFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&f.Format, "format", "f", "json", "Export format: json or markdown")
	flagSet.StringVarP(&f.Out, "out", "o", "", "Output file (default: a timestamped file in ~/Documents/Brief_Exports)")
	flagSet.StringVar(&f.UserID, "user", "", "Owner of the exported briefs; a single brief of another user is not found (default backend.user_id)")
}

func NewExportCommand(opts *rootOptions) *cobra.Command {
	f := &ExportFlags{}

	cmd := &cobra.Command{
		Use:   "export [brief-id]",
		Short: "Export one brief, or every brief of the user as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := utils.ParseExportFormat(f.Format)
			if err != nil {
				return err
			}
			if len(args) == 0 && format != utils.FormatJSON {
				return fmt.Errorf("exporting every brief only supports json")
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

			userID := f.UserID
			if userID == "" {
				userID = opts.config.Backend.UserID
			}
			if userID == "" {
				userID = "local"
			}

			out := f.Out
			if len(args) == 0 {
				if out == "" {
					if out, err = defaultExportPath("tous_les_briefs", format); err != nil {
						return err
					}
				}
				count, err := utils.ExportAllBriefs(database, userID, out)
				if err != nil {
					return err
				}
				opts.logger.Info("Exported %d briefs to %s", count, out)
				fmt.Fprintf(cmd.OutOrStdout(), "%d briefs exported to %s\n", count, out)
				return nil
			}

			b, err := database.GetBrief(args[0])
			if err != nil {
				return err
			}
			if b.UserID != userID {
				return fmt.Errorf("brief %s of user %s: %w", args[0], userID, db.ErrNotFound)
			}
			if out == "" {
				if out, err = defaultExportPath(b.Title, format); err != nil {
					return err
				}
			}

			if format == utils.FormatJSON {
				err = utils.ExportBriefToJSON(database, b.ID, out)
			} else {
				err = utils.ExportBriefToMarkdown(database, b.ID, out)
			}
			if err != nil {
				return err
			}
			opts.logger.Info("Exported brief %s to %s", b.ID, out)
			fmt.Fprintf(cmd.OutOrStdout(), "brief %s exported to %s\n", b.ID, out)
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}

func defaultExportPath(title string, format utils.ExportFormat) (string, error) {
	dir, err := utils.GetDefaultExportPath()
	if err != nil {
		return "", fmt.Errorf("failed to prepare export directory: %w", err)
	}
	return filepath.Join(dir, utils.GenerateExportFilename(title, format)), nil
}
