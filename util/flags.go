package util

import (
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to flag names to form their environment variable.
const EnvPrefix = "MCU_"

// SetFlagsFromEnvVars updates flags that were not given on the command line from
// systemd credentials or MCU_ prefixed environment variables, in that order.
func SetFlagsFromEnvVars(cmd *cobra.Command) {
	credsDir, present := os.LookupEnv("CREDENTIALS_DIRECTORY")

	visit := func(flags *pflag.FlagSet) {
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				return
			}
			name := FlagNameToUpper(f.Name)

			if present {
				data, e := os.ReadFile(path.Join(credsDir, name))
				if e == nil {
					err := flags.Set(f.Name, strings.TrimSuffix(string(data), "\n"))
					if err == nil {
						return
					}
					log.Infof("unable to configure flag %s using credential %s, err: %v", f.Name, name, err)
				}
			}

			// E.g. BACKUP_DIR -> MCU_BACKUP_DIR
			envName := EnvPrefix + name
			if value, varPresent := os.LookupEnv(envName); varPresent {
				if err := flags.Set(f.Name, value); err != nil {
					log.Infof("unable to configure flag %s using variable %s, err: %v", f.Name, envName, err)
				}
			}
		})
	}

	visit(cmd.PersistentFlags())
	visit(cmd.LocalNonPersistentFlags())
}

// FlagNameToUpper converts a flag name to its corresponding base env name
// replacing dashes by underscores and making the result uppercase
// E.g. backup-dir -> BACKUP_DIR
func FlagNameToUpper(cmdFlag string) string {
	return strings.ToUpper(strings.ReplaceAll(cmdFlag, "-", "_"))
}
