// Package console is the lsabe command line: key setup, encryption, search and the storage service.
package console

import (
	"context"
	"fmt"
	"os"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/AUKUS561/LSABEMA/config"
	"github.com/AUKUS561/LSABEMA/logger"
	"github.com/AUKUS561/LSABEMA/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	Name        = "lsabe"
	Description = "Multi-authority lightweight searchable attribute-based encryption"
	Version     = "v0.1.0"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           Name,
		Short:         Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().StringP("config", "c", "", "custom configuration file")
	rootCmd.PersistentFlags().String("key-path", "", "key directory")
	rootCmd.PersistentFlags().String("data-path", "", "ciphertext directory")
	rootCmd.PersistentFlags().String("url", "", "storage service address")
	rootCmd.PersistentFlags().Int("max-keywords", 0, "keyword capacity of an index")
	rootCmd.PersistentFlags().String("log-dir", "", "log directory")
	rootCmd.AddCommand(
		Command_Version(),
		Command_Profile(),
		Command_GlobalSetup(),
		Command_AuthoritySetup(),
		Command_Keygen(),
		Command_Encrypt(),
		Command_Search(),
		Command_Clear(),
		Command_Serve(),
	)
	return rootCmd
}

// Execute runs the command line; it is called by main.main().
func Execute() {
	err := NewRootCmd().ExecuteContext(context.Background())
	if err != nil {
		fmt.Printf("\x1b[%dm[err]\x1b[0m %v\n", 41, err)
		os.Exit(1)
	}
}

func Command_Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Name+" "+Version)
		},
	}
}

func Command_Profile() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [path]",
		Short: "Generate profile template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fpath := config.DefaultProfile
			if len(args) == 1 {
				fpath = args[0]
			}
			if err := config.WriteTemplate(fpath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", fpath)
			return nil
		},
	}
}

// env is what every command needs: profile, logger, scheme and key directory.
type env struct {
	cfg   *config.Confile
	log   *zap.Logger
	lsabe *LSABE.LSABE
	keys  *storage.Keystore
}

func prepare(cmd *cobra.Command) (*env, error) {
	cfg := config.NewConfigFile()
	flags := cmd.Flags()
	if fpath, _ := flags.GetString("config"); fpath != "" {
		if err := cfg.Parse(fpath); err != nil {
			return nil, errors.Wrapf(err, "profile %s", fpath)
		}
	}
	if flags.Changed("key-path") {
		cfg.Keypath, _ = flags.GetString("key-path")
	}
	if flags.Changed("data-path") {
		cfg.Datapath, _ = flags.GetString("data-path")
	}
	if flags.Changed("url") {
		cfg.Url, _ = flags.GetString("url")
	}
	if flags.Changed("max-keywords") {
		cfg.Maxkeywords, _ = flags.GetInt("max-keywords")
	}
	if flags.Changed("log-dir") {
		cfg.Logdir, _ = flags.GetString("log-dir")
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logdir, cfg.Loglevel)
	if err != nil {
		return nil, err
	}
	keys, err := storage.NewKeystore(cfg.Keypath)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:   cfg,
		log:   log,
		lsabe: LSABE.NewLSABE(cfg.Maxkeywords),
		keys:  keys,
	}, nil
}

func (e *env) openStore() (*storage.CipherStore, error) {
	return storage.NewCipherStore(e.cfg.Datapath, 0, 0)
}
