package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is stamped at build time with -ldflags "-X .../internal/cli.version=..."
var version = "dev"

// envPrefix namespaces overrides: CORROBORATE_JUDGE_ENABLED sets judge.enabled
const envPrefix = "CORROBORATE"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:     "corroborate",
	Version: version,
	Short:   "Evidence ledger and cross-check engine for entity research",
	Long: `Corroborate turns the output of research agents into a versioned ledger of
claims about one entity.

It classifies and cites sources, folds duplicate claims together, compares
what independent research branches found, and grades how well the result
is supported.

It does not decide what is true. An optional LLM judge can offer a second
opinion; that opinion is weighted, logged and never treated as ground truth.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the corroborate version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "corroborate %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.corroborate/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig layers .env files, the config file and CORROBORATE_* variables.
// A missing config file is fine; an unreadable one is reported.
func initConfig() {
	for _, f := range []string{".env", ".env.secret"} {
		_ = godotenv.Load(f)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		// as written by "config init"
		viper.SetConfigFile(filepath.Join(home, ".corroborate", "config.yaml"))
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case cfgFile == "" && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)):
		// no config file; defaults and environment apply
	default:
		fmt.Fprintf(os.Stderr, "⚠ config: %v\n", err)
	}
}
