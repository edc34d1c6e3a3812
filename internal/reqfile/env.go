package reqfile

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"go.followtheprocess.codes/msg"
	"go.followtheprocess.codes/reqfile/internal/env"
)

// EnvOptions are the options passed to the env subcommand.
type EnvOptions struct {
	// Root is the project root.
	Root string

	// Name is the environment to show, empty lists the environment names.
	Name string

	// Debug enables debug logging.
	Debug bool
}

// Env implements the env subcommand.
//
// With no name it lists the environments defined in the project, otherwise
// it prints the variables of the named environment with private values
// taking precedence.
func (a App) Env(options EnvOptions) error {
	logger := a.logger.Prefixed("env").With(slog.String("root", options.Root))

	set, err := env.Load(options.Root)
	if err != nil {
		return err
	}

	names := set.Names()
	logger.Debug("Loaded environments", slog.Int("count", len(names)))

	if options.Name == "" {
		if len(names) == 0 {
			msg.Fwarn(a.stdout, "No environments defined in %s", env.Dir)
			return nil
		}

		for _, name := range names {
			fmt.Fprintln(a.stdout, name)
		}

		return nil
	}

	merged := set.Merged(options.Name)
	if merged == nil {
		return fmt.Errorf("no environment named %q, expected one of [%s]", options.Name, strings.Join(names, ", "))
	}

	for _, key := range slices.Sorted(maps.Keys(merged)) {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Text(key), merged[key])
	}

	return nil
}
