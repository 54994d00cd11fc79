package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formmessages/pkg/messages"
)

// prompter abstracts the terminal so the toggle loop can be tested.
type prompter interface {
	MultiSelect(message string, options, defaults []string) ([]string, error)
	Confirm(message string) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) MultiSelect(message string, options, defaults []string) ([]string, error) {
	var out []string
	prompt := &survey.MultiSelect{
		Message:  message,
		Options:  options,
		Default:  defaults,
		PageSize: 12,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (surveyPrompter) Confirm(message string) (bool, error) {
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &out); err != nil {
		return false, err
	}
	return out, nil
}

func interactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Toggle error flags and preview the messages",
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

			err = toggleLoop(s, surveyPrompter{}, flags, cmd)
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		},
	}
	addInputFlags(cmd)
	return cmd
}

func toggleLoop(s *session, p prompter, flags map[string]any, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	keys := s.controller.Entries().Keys()
	if len(keys) == 0 {
		return errors.New("no messages declared")
	}

	for {
		var defaults []string
		for _, key := range keys {
			if v, ok := flags[key]; ok && messages.Truthy(v) {
				defaults = append(defaults, key)
			}
		}
		sort.Strings(defaults)

		selected, err := p.MultiSelect("Which validators fail?", keys, defaults)
		if err != nil {
			return err
		}
		flags = make(map[string]any, len(selected))
		for _, key := range selected {
			flags[key] = true
		}

		s.update(flags)
		if _, err := fmt.Fprintln(out, "---"); err != nil {
			return err
		}
		if err := s.print(out); err != nil {
			return err
		}

		again, err := p.Confirm("Toggle again?")
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}
