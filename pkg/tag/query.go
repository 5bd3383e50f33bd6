package tag

import (
	"context"
	"fmt"
	"strings"

	"github.com/macropower/charon/pkg/execs"
)

// QueryStrategy asks a metadata query tool (e.g.
// "mdls -raw -name kMDItemUserTags") for the tags. The file path is
// appended to the configured arguments.
type QueryStrategy struct {
	Command *execs.Command
}

// NewQueryStrategy creates a [QueryStrategy] running cmd.
func NewQueryStrategy(cmd *execs.Command) QueryStrategy {
	return QueryStrategy{Command: cmd}
}

func (QueryStrategy) Name() string {
	return "query"
}

func (s QueryStrategy) Tags(ctx context.Context, in *Input) ([]string, error) {
	if s.Command == nil || s.Command.Command == "" {
		return nil, nil
	}

	res, err := execs.NewExecutor(s.Command, in.Path).Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}

	return ParseQueryOutput(string(res.Stdout)), nil
}

// ParseQueryOutput parses a parenthesized, comma-separated list such as
//
//	(
//	    Invoices,
//	    "Client A"
//	)
//
// Surrounding parentheses and quotes are stripped, fields are trimmed, and
// empty fields are dropped. "(null)" yields nothing.
func ParseQueryOutput(out string) []string {
	out = strings.TrimSpace(out)
	if out == "" || out == "(null)" {
		return nil
	}

	out = strings.TrimPrefix(out, "(")
	out = strings.TrimSuffix(out, ")")

	var tags []string
	for field := range strings.SplitSeq(out, ",") {
		field = strings.TrimSpace(field)
		field = strings.Trim(field, `"`)
		field = strings.TrimSpace(field)

		if field == "" {
			continue
		}

		tags = append(tags, field)
	}

	return tags
}
