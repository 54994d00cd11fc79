package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the messages shown for a flags file",
		Example: `  formmessages render --include forms/messages.html --flags errors.json
  formmessages render -m inline.yaml -f errors.yaml --multiple`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInputs(cmd)
			if err != nil {
				return err
			}
			flags, err := readFlags(in.Flags)
			if err != nil {
				return err
			}

			s, err := newSession(in, nil, log.StandardLogger())
			if err != nil {
				return err
			}
			defer s.close()

			s.await(cmd.Context())
			s.update(flags)
			return s.print(cmd.OutOrStdout())
		},
	}
	addInputFlags(cmd)
	return cmd
}
