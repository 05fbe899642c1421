package compare

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"

	"github.com/spf13/cobra"
)

// editSession opens an editing session on comparison id, applies fn and
// saves the result before returning. Errors are printed to stderr and
// reported by the boolean result.
func editSession(cmd *cobra.Command, id int64, fn func(ctx context.Context, s *comparison.Session) error) bool {
	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return false
	}
	defer env.Close()

	ctx := context.Background()
	s, err := env.Service().Open(ctx, id)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error loading comparison: %v\n", err)
		return false
	}

	if err := fn(ctx, s); err != nil {
		s.Close(ctx)
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return false
	}
	if err := s.Close(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error saving comparison: %v\n", err)
		return false
	}
	return true
}
