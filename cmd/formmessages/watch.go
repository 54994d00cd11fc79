package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render whenever the flags file changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInputs(cmd)
			if err != nil {
				return err
			}
			if in.Flags == "" {
				return errors.New("--flags is required for watch")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := newSession(in, nil, log.StandardLogger())
			if err != nil {
				return err
			}
			defer s.close()
			s.await(ctx)

			return watchFlags(ctx, s, in.Flags, cmd)
		},
	}
	addInputFlags(cmd)
	return cmd
}

func watchFlags(ctx context.Context, s *session, path string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	reload := func() {
		flags, err := readFlags(path)
		if err != nil {
			log.WithError(err).Warn("flags file unreadable, keeping previous state")
			return
		}
		instructions := s.update(flags)
		if len(instructions) == 0 {
			log.Debug("flags changed without affecting messages")
			return
		}
		_, _ = fmt.Fprintln(out, "---")
		_ = printInstructions(out, instructions)
		_ = s.print(out)
	}
	reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.WithField("file", abs).Info("Watching flags file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("watch error")
		}
	}
}
