package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/aretw0/plume"
	"github.com/aretw0/plume/pkg/core"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the document open, autosaving and following outside changes",
		Long: `Open the document and keep it until interrupted. Changes are autosaved
every autosave_minutes. When another program rewrites the file it is
reloaded, unless there are unsaved changes here, which are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd)
		},
	}
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command) error {
	nb, err := a.open(ctx)
	if err != nil {
		return err
	}
	saver, err := plume.Autosave(ctx, nb, a.options()...)
	if err != nil {
		return err
	}
	src, err := plume.Watch(ctx, nb.Path(), a.options()...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Watching", nb.Path())

	for {
		select {
		case <-ctx.Done():
			if nb.Modified() {
				if err := nb.Save(context.WithoutCancel(ctx)); err != nil {
					return err
				}
			}
			if saver != nil {
				<-saver.Done()
			}
			return nil
		case e, ok := <-src.Events():
			if !ok {
				return nil
			}
			a.handleChange(ctx, cmd, nb, e)
		}
	}
}

func (a *app) handleChange(ctx context.Context, cmd *cobra.Command, nb *plume.Notebook, e lifecycle.Event) {
	ev, ok := e.(core.Event)
	if !ok {
		a.logger.Debug("ignoring event", "event", e.String())
		return
	}
	out := cmd.OutOrStdout()
	switch {
	case ev.Type == core.EventDelete:
		a.logger.Warn("document removed by another program", "path", nb.Path())
		fmt.Fprintln(out, "Removed:", nb.Path())
	case nb.Modified():
		a.logger.Warn("document changed elsewhere, keeping unsaved changes", "path", nb.Path())
	default:
		password := ""
		_ = nb.View(func(d *core.Document) error {
			password = d.Password()
			return nil
		})
		if err := nb.Reload(ctx, nb.Path(), password); err != nil {
			a.logger.Error("reload failed", "path", nb.Path(), "error", err)
			return
		}
		fmt.Fprintln(out, "Reloaded:", nb.Path())
	}
}
