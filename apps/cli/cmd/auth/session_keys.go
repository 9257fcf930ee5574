package auth

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	platformauth "github.com/zenGate-Global/hello-audit/platform/go/auth"
)

func sessionKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session-keys",
		Short: "Print fresh SESSION_HASH_KEY and SESSION_BLOCK_KEY values",
		RunE: func(cmd *cobra.Command, args []string) error {
			hashKey, blockKey := platformauth.GenerateSessionKeys()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SESSION_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hashKey))
			fmt.Fprintf(out, "SESSION_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(blockKey))
			return nil
		},
	}
}
