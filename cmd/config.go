package cmd

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
	"github.com/mcupdater/mcupdater/util"
)

const defaultConfigFile = "updater.yaml"

// applyConfigFile fills flags that were set neither on the command line nor
// from the environment. Keys are flag names, e.g. "backup-dir: backups".
// A missing file is an error only if required.
func applyConfigFile(flags *pflag.FlagSet, path string, required bool) error {
	if !required && !util.FileExists(path) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var merr *multierror.Error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == configFlag || f.Name == workDirFlag || !v.IsSet(f.Name) {
			return
		}
		if err := flags.Set(f.Name, v.GetString(f.Name)); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %s: %w", path, f.Name, err))
		}
	})
	return mcerrors.FormatErrorOrNil(merr)
}
