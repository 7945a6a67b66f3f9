package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claimbuddy/internal/apps/common"
	"claimbuddy/internal/di"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"

	"github.com/spf13/cobra"
)

// BaseCommand provides common functionality for all commands
type BaseCommand struct {
	AppCtx  *common.Context
	Clients *di.ClientSet
	Logger  *logging.Logger
}

// NewBaseCommand builds the clients from the loaded config and returns a base for one command run
func NewBaseCommand(appCtx *common.Context, name string) (*BaseCommand, error) {
	clients, err := appCtx.Clients()
	if err != nil {
		return nil, err
	}
	return &BaseCommand{
		AppCtx:  appCtx,
		Clients: clients,
		Logger:  logging.NewDefaultLogger(name),
	}, nil
}

// HandleError logs err with its context and returns it so cobra exits non-zero
func (bc *BaseCommand) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var buddyErr *errors.BuddyError
	if stderrors.As(err, &buddyErr) {
		bc.Logger.Error("%s: %s", buddyErr.Type, buddyErr.Message)
		if len(buddyErr.Context) > 0 {
			bc.Logger.Debug("Error context: %+v", buddyErr.Context)
		}
		if buddyErr.Cause != nil {
			bc.Logger.Debug("Caused by: %v", buddyErr.Cause)
		}
	} else {
		bc.Logger.Error("Unexpected error: %v", err)
	}
	return err
}

// ExecuteWithContext runs fn with a context cancelled on SIGINT or SIGTERM
func (bc *BaseCommand) ExecuteWithContext(parent context.Context, fn func(context.Context) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bc.HandleError(fn(ctx))
}

// ApplyStringFlag copies a string flag into target only when the user set it
func ApplyStringFlag(cmd *cobra.Command, name string, target *string) {
	if cmd.Flags().Changed(name) {
		*target, _ = cmd.Flags().GetString(name)
	}
}

// ApplyIntFlag copies an int flag into target only when the user set it
func ApplyIntFlag(cmd *cobra.Command, name string, target *int) {
	if cmd.Flags().Changed(name) {
		*target, _ = cmd.Flags().GetInt(name)
	}
}

// ApplyDurationFlag copies a duration flag into target only when the user set it
func ApplyDurationFlag(cmd *cobra.Command, name string, target *time.Duration) {
	if cmd.Flags().Changed(name) {
		*target, _ = cmd.Flags().GetDuration(name)
	}
}

// Out is where user-facing output goes
func (bc *BaseCommand) Out() io.Writer {
	return bc.AppCtx.Out
}

// PrintSuccess prints a success message with consistent formatting
func (bc *BaseCommand) PrintSuccess(message string, args ...any) {
	fmt.Fprintf(bc.Out(), "%s%s\n", bc.AppCtx.GetPrefix(), fmt.Sprintf(message, args...))
}

// PrintInfo prints an info message with consistent formatting
func (bc *BaseCommand) PrintInfo(message string, args ...any) {
	fmt.Fprintf(bc.Out(), "%s%s\n", bc.AppCtx.GetPrefix(), fmt.Sprintf(message, args...))
}
