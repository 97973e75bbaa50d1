package main

import (
	"fmt"
	"os"

	"github.com/etnz/termux-create-package/deb"
	"github.com/etnz/termux-create-package/manifest"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const description = `Create a Termux package from a JSON manifest file. Example of manifest:

{
  "name": "mypackage",
  "version": "0.1",
  "arch": "all",
  "maintainer": "@MyGithubNick",
  "description": "This is a hello world package",
  "homepage": "https://example.com",
  "depends": ["python"],
  "recommends": ["vim"],
  "suggests": ["vim-python"],
  "provides": ["vi"],
  "conflicts": ["vim-python-git"],
  "files" : {
    "hello-world.py": "bin/hello-world",
    "hello-world.1": "share/man/man1/hello-world.1"
  }
}

Only "name", "version" and "files" are mandatory. A manifest ending in .yaml
or .yml is read as YAML with the same fields.

"arch" defaults to "all" (a package without native code) and can be any of
arm/i686/aarch64/x86_64.

"files" maps paths of files to include (relative to the current directory) to
the paths where they are installed (relative to the prefix). Files are stored in
the order of the manifest.

Maintainer scripts named "preinst", "postinst", "prerm" and "postrm" placed next
to the manifest are included and run by the package manager on installation and
removal.

Flags can also be set with TERMUX_CREATE_PACKAGE_* environment variables
(e.g. TERMUX_CREATE_PACKAGE_OUTPUT_DIR). SOURCE_DATE_EPOCH sets the timestamp
stored in the archives.

The resulting .deb file can be installed by Termux users with:
  apt install ./package-file.deb`

// newRootCmd creates the root command, which builds a package.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "termux-create-package",
		Short:         "Create a Termux package from a manifest file",
		Long:          description,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			_, err = runBuild(cfg)
			return err
		},
	}

	rootCmd.Flags().String("manifest", "", "A JSON or YAML manifest file describing the package")
	rootCmd.Flags().String("prefix", manifest.DefaultPrefix, "Installation prefix the file paths are relative to")
	rootCmd.Flags().StringP("output-dir", "o", ".", "Directory the package is written to")
	rootCmd.Flags().String("sign-key", "", "Path to an OpenPGP private key used to write a detached .asc signature")
	rootCmd.Flags().String("sign-passphrase", "", "Passphrase of the signing key")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newInspectCmd())
	return rootCmd
}

// runBuild loads the manifest and writes the package described by cfg.
func runBuild(cfg *Config) (*deb.Output, error) {
	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	opts := manifest.Options{
		BaseDir:  wd,
		Prefix:   cfg.Prefix,
		ModTime:  cfg.ModTime,
		Listener: logEvent,
	}

	if cfg.SignKey != "" {
		key, err := os.ReadFile(cfg.SignKey)
		if err != nil {
			return nil, fmt.Errorf("reading signing key: %w", err)
		}
		signer, err := deb.NewSigner(key, cfg.SignPassphrase)
		if err != nil {
			return nil, fmt.Errorf("initializing signer: %w", err)
		}
		opts.Signer = signer
		logrus.Debug("OpenPGP signer initialized")
	}

	logrus.Infof("Building %s", m.Filename())
	return manifest.Build(m, cfg.OutputDir, opts)
}

// logEvent forwards build events to the logger.
func logEvent(e fmt.Stringer) {
	switch ev := e.(type) {
	case manifest.EventPackageWrite:
		logrus.WithFields(logrus.Fields{
			"size":           ev.Size,
			"installed_size": ev.InstalledSize,
			"sha256":         ev.SHA256,
		}).Infof("Wrote %s", ev.Path)
	case manifest.EventSignatureWrite:
		logrus.Infof("Wrote signature %s", ev.Path)
	default:
		logrus.Debug(e.String())
	}
}
