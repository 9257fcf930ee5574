package root

import (
	"github.com/zenGate-Global/hello-audit/apps/cli/cmd/auth"
)

func init() {
	Root().AddCommand(auth.Command())
}
