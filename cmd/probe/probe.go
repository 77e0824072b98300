package probe

import (
	"github.com/spf13/cobra"
	"github/chapool/hdwallet-provider/internal/util/command"
)

const (
	verboseFlag string = "verbose"
	addrFlag    string = "addr"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
}
