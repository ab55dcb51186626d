package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parcelbio/parcel/api"
	"github.com/parcelbio/parcel/engine"
	"github.com/parcelbio/parcel/provider"
	"github.com/parcelbio/parcel/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	fieldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var cpCmd = &cobra.Command{
	Use:   "cp SOURCE DEST",
	Short: "Copy a file or directory tree between local and remote storage",
	Long: `Copy data between your machine and remote storage.

Remote paths start with parcel:// (platform storage) or s3://. Copying a
remote directory into an existing local directory nests it one level under
the directory's name; add a trailing slash to the source to merge instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runCp,
}

func init() {
	cpCmd.Flags().Bool("force", false, "overwrite conflicting local files without prompting")
	cpCmd.Flags().Bool("skip-existing", false, "skip conflicting local files without prompting")
	rootCmd.AddCommand(cpCmd)
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "parcel://") || strings.HasPrefix(path, "s3://")
}

func runCp(cmd *cobra.Command, args []string) error {
	src, dest := args[0], args[1]
	ctx := cmd.Context()

	srcRemote, destRemote := isRemote(src), isRemote(dest)
	if srcRemote == destRemote {
		return fmt.Errorf("cp needs exactly one remote path (parcel:// or s3://); got %s and %s", src, dest)
	}

	transfer := &engine.Transfer{
		MaxWorkers: viper.GetInt("workers"),
		Verbosity:  progressVerbosity(),
		Confirm:    confirmOverwrite,
	}

	if journalPath := viper.GetString("journal"); journalPath != "" {
		journal, err := store.Open(journalPath)
		if err != nil {
			return err
		}
		defer journal.Close()
		transfer.Journal = journal
	}

	remotePath := src
	if destRemote {
		remotePath = dest
	}

	if strings.HasPrefix(remotePath, "s3://") {
		s3, err := provider.NewS3Provider(ctx, provider.S3Options{
			AccessKey:    viper.GetString("s3-access-key"),
			SecretKey:    viper.GetString("s3-secret-key"),
			SessionToken: viper.GetString("s3-session-token"),
			Region:       viper.GetString("s3-region"),
			EndpointURL:  viper.GetString("s3-endpoint"),
		})
		if err != nil {
			return err
		}
		transfer.Remote = s3
		transfer.Source = s3
		transfer.Dest = s3
	} else {
		client := api.NewClient(viper.GetString("api-url"), viper.GetString("token"), nil)
		httpProvider := provider.NewHTTPProvider(nil)
		transfer.Remote = client
		transfer.Source = httpProvider
		transfer.Dest = &provider.SignedURLWriter{Issuer: client, HTTP: httpProvider}
	}

	local := provider.NewLocalProvider()

	var summary *engine.Summary
	var err error
	if srcRemote {
		transfer.Dest = local
		summary, err = transfer.Download(ctx, src, dest, overwritePolicy(cmd))
	} else {
		transfer.Source = local
		summary, err = transfer.Upload(ctx, src, dest)
	}
	if err != nil {
		return err
	}

	printSummary(srcRemote, summary)
	return nil
}

func overwritePolicy(cmd *cobra.Command) engine.OverwritePolicy {
	force, _ := cmd.Flags().GetBool("force")
	skip, _ := cmd.Flags().GetBool("skip-existing")

	switch {
	case force:
		return engine.OverwriteForce
	case skip, !interactive():
		return engine.OverwriteSkip
	default:
		return engine.OverwriteAsk
	}
}

// confirmOverwrite prompts on stdin for one colliding path. Declined by
// default: only an explicit yes overwrites.
func confirmOverwrite(path string) bool {
	fmt.Fprint(os.Stderr, warnStyle.Render(fmt.Sprintf("A file already exists at %s. Overwrite? [y/N] ", path)))

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printSummary(download bool, s *engine.Summary) {
	verb := "Uploaded"
	header := "Upload Complete"
	if download {
		verb = "Downloaded"
		header = "Download Complete"
	}

	for _, path := range s.Skipped {
		fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("Skipping %s, file already exists", path)))
	}

	fmt.Fprintln(os.Stderr, headerStyle.Render(header))
	fmt.Fprintf(os.Stderr, "%s %s\n", fieldStyle.Render("Time Elapsed:"), s.Elapsed.Round(10*time.Millisecond))
	fmt.Fprintf(os.Stderr, "%s %d (%s)\n",
		fieldStyle.Render("Files "+verb+":"), s.Files, humanize.Bytes(uint64(s.Bytes)))
}
