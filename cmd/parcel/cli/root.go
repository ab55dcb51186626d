package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "parcel",
	Short: "Client for moving data in and out of the Parcel data platform",
	Long: `parcel transfers files and directory trees between your machine and
remote storage: parcel:// paths on the platform or raw s3:// locations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "https://api.parcel.bio", "base URL of the platform API")
	rootCmd.PersistentFlags().String("token", "", "API auth token")
	rootCmd.PersistentFlags().Int("workers", 0, "max concurrent transfer workers (0 = auto)")
	rootCmd.PersistentFlags().String("progress", "file", "progress rendering: none, total, or file")
	rootCmd.PersistentFlags().String("journal", "", "path to a transfer journal database (disabled when empty)")
	rootCmd.PersistentFlags().String("s3-endpoint", "", "custom S3 endpoint URL for s3:// paths (MinIO etc.)")
	rootCmd.PersistentFlags().String("s3-region", "", "AWS region override for s3:// paths")

	viper.SetEnvPrefix("PARCEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	//nolint:errcheck // flag names are static
	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("progress", rootCmd.PersistentFlags().Lookup("progress"))
	viper.BindPFlag("journal", rootCmd.PersistentFlags().Lookup("journal"))
	viper.BindPFlag("s3-endpoint", rootCmd.PersistentFlags().Lookup("s3-endpoint"))
	viper.BindPFlag("s3-region", rootCmd.PersistentFlags().Lookup("s3-region"))
}
