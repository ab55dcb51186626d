package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parcelbio/parcel/store"
)

var reportCmd = &cobra.Command{
	Use:   "report [JOB_ID]",
	Short: "Summarize past transfers from their journal",
	Long: `Read a transfer journal back and print what happened: per-job
outcomes with byte counts and integrity digests, plus every destination that
was skipped on conflict. With a JOB_ID argument, only that record is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	path := viper.GetString("journal")
	if path == "" {
		return fmt.Errorf("report needs a journal path (--journal or PARCEL_JOURNAL)")
	}

	journal, err := store.Open(path)
	if err != nil {
		return err
	}
	defer journal.Close()

	if len(args) == 1 {
		rec, err := journal.Job(args[0])
		if err != nil {
			return err
		}
		printRecord(rec)
		return nil
	}

	recs, err := journal.Jobs()
	if err != nil {
		return err
	}
	skips, err := journal.Skips()
	if err != nil {
		return err
	}

	var completed, failed int
	var bytes int64
	for _, rec := range recs {
		if rec.Outcome == store.OutcomeCompleted {
			completed++
			bytes += rec.Bytes
		} else {
			failed++
		}
	}

	fmt.Println(headerStyle.Render("Transfer Journal"))
	fmt.Printf("%s %d completed, %d failed, %d skipped (%s)\n",
		fieldStyle.Render("Jobs:"), completed, failed, len(skips), humanize.Bytes(uint64(bytes)))

	for _, rec := range recs {
		printRecord(rec)
	}
	for _, p := range skips {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Skipped %s, file already existed", p)))
	}
	return nil
}

func printRecord(rec *store.JobRecord) {
	status := fieldStyle.Render(string(rec.Outcome))
	if rec.Outcome == store.OutcomeFailed {
		status = warnStyle.Render(string(rec.Outcome))
	}

	fmt.Printf("%s  %s  %s  crc64=%016x", rec.ID, status, humanize.Bytes(uint64(rec.Bytes)), rec.Checksum)
	if rec.Error != "" {
		fmt.Printf("  %s", rec.Error)
	}
	fmt.Println()
}
