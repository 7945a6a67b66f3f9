package claimbuddy

import (
	"claimbuddy/internal/apps/common"

	"github.com/spf13/cobra"
)

func GetCommands(appCtx *common.Context) []*cobra.Command {
	return []*cobra.Command{
		NewClaimsCmd(appCtx),
		NewHealthCmd(appCtx),
		NewPoolCmd(appCtx),
		NewRunsCmd(appCtx),
	}
}
