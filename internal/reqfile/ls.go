package reqfile

import (
	"fmt"
	"log/slog"
	"strings"

	"go.followtheprocess.codes/msg"
	"go.followtheprocess.codes/reqfile/internal/store"
)

// methodWidth is the column width request methods are padded to in listings.
const methodWidth = 7

// ListOptions are the options passed to the ls subcommand.
type ListOptions struct {
	// Root is the project root.
	Root string

	// Debug enables debug logging.
	Debug bool
}

// List implements the ls subcommand, printing every collection under the
// project root along with the requests it contains.
func (a App) List(options ListOptions) error {
	logger := a.logger.Prefixed("ls").With(slog.String("root", options.Root))

	s := store.New(options.Root)

	collections, err := s.Collections()
	if err != nil {
		return err
	}

	logger.Debug("Found collections", slog.Int("count", len(collections)))

	if len(collections) == 0 {
		msg.Fwarn(a.stdout, "No collections found in %s", s.Dir(""))
		return nil
	}

	for i, collection := range collections {
		entries, err := s.Entries(collection)
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Fprintln(a.stdout)
		}

		fmt.Fprintf(a.stdout, "%s %s\n", titleStyle.Text(strings.ReplaceAll(collection, "_", " ")), dimmed.Text(fmt.Sprintf("(%d)", len(entries))))

		for _, entry := range entries {
			fmt.Fprintf(a.stdout, "  %s %s\n", keyStyle.Text(fmt.Sprintf("%-*s", methodWidth, entry.Method)), entry.Name)
		}
	}

	return nil
}
