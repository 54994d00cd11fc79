package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	formmessages "github.com/goliatone/go-formmessages"
	"github.com/goliatone/go-formmessages/pkg/catalog"
	"github.com/goliatone/go-formmessages/pkg/fetch"
	"github.com/goliatone/go-formmessages/pkg/lifecycle"
	"github.com/goliatone/go-formmessages/pkg/messages"
	"github.com/goliatone/go-formmessages/pkg/schedule"
)

type inputs struct {
	Include     string
	Messages    string
	Flags       string
	Multiple    bool
	BaseDir     string
	HTTP        bool
	HTTPTimeout time.Duration
	S3Region    string
	MaxBytes    int64
	Templates   string
}

func addInputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("include", "i", "", "template identifier to include (path, fs:name, http(s)://, s3://bucket/key)")
	flags.StringP("messages", "m", "", "inline messages file (markup, YAML or JSON catalog)")
	flags.StringP("flags", "f", "", "error flags file (JSON or YAML object)")
	flags.Bool("multiple", false, "show every matching message instead of the first")
	flags.String("base-dir", "", "directory relative template identifiers resolve against")
	flags.Bool("http", false, "allow http(s) template identifiers")
	flags.Duration("http-timeout", 10*time.Second, "timeout for http template requests")
	flags.String("s3-region", "", "enable anonymous s3:// template identifiers in this region")
	flags.Int64("max-bytes", 0, "maximum template size in bytes (0 uses the default)")
	flags.String("templates-dir", "", "directory inline messages load file templates from")
}

func readInputs(cmd *cobra.Command) (inputs, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return inputs{}, err
	}
	in := inputs{
		Include:     viper.GetString("include"),
		Messages:    viper.GetString("messages"),
		Flags:       viper.GetString("flags"),
		Multiple:    viper.GetBool("multiple"),
		BaseDir:     viper.GetString("base-dir"),
		HTTP:        viper.GetBool("http"),
		HTTPTimeout: viper.GetDuration("http-timeout"),
		S3Region:    viper.GetString("s3-region"),
		MaxBytes:    viper.GetInt64("max-bytes"),
		Templates:   viper.GetString("templates-dir"),
	}
	if in.Include == "" && in.Messages == "" {
		return inputs{}, fmt.Errorf("one of --include or --messages is required")
	}
	return in, nil
}

func (in inputs) loaderOptions() []fetch.LoaderOption {
	var opts []fetch.LoaderOption
	if in.BaseDir != "" {
		opts = append(opts, fetch.WithFileSystem(os.DirFS(in.BaseDir)))
	}
	if in.HTTP {
		opts = append(opts, fetch.WithHTTPFallback(in.HTTPTimeout))
	}
	if in.S3Region != "" {
		opts = append(opts, fetch.WithS3(s3.New(s3.Options{
			Region:      in.S3Region,
			Credentials: aws.AnonymousCredentials{},
		})))
	}
	if in.MaxBytes > 0 {
		opts = append(opts, fetch.WithMaxBytes(in.MaxBytes))
	}
	return opts
}

// session drives one controller on a manual turn queue so every command
// observes settled state after each step.
type session struct {
	include     string
	turns       *schedule.Queue
	coordinator *fetch.Coordinator
	controller  *lifecycle.Controller
	view        *lifecycle.ListView
	logger      log.FieldLogger

	class string
	last  []lifecycle.Instruction
}

func newSession(in inputs, fetcher fetch.Fetcher, logger log.FieldLogger) (*session, error) {
	s := &session{
		include: strings.TrimSpace(in.Include),
		turns:   schedule.NewQueue(),
		view:    &lifecycle.ListView{},
		logger:  logger,
	}
	if fetcher == nil {
		fetcher = formmessages.NewLoader(in.loaderOptions()...)
	}
	s.coordinator = fetch.New(fetcher, fetch.WithDispatcher(s.turns), fetch.WithLogger(logger))

	parser, err := catalog.NewParser(
		catalog.WithLogger(logger),
		catalog.WithTemplateDir(in.Templates),
	)
	if err != nil {
		return nil, err
	}

	mode := messages.ModeSingle
	if in.Multiple {
		mode = messages.ModeMultiple
	}

	var overrides messages.EntryList
	if in.Messages != "" {
		body, err := os.ReadFile(in.Messages)
		if err != nil {
			return nil, fmt.Errorf("read messages: %w", err)
		}
		doc, err := catalog.ParseDocument(body)
		if err != nil {
			return nil, err
		}
		if doc.Multiple {
			mode = messages.ModeMultiple
		}
		if overrides, err = parser.Local(doc.Declarations()...); err != nil {
			return nil, err
		}
	}

	s.controller, err = lifecycle.New(lifecycle.Config{
		Include:   s.include,
		Mode:      mode,
		Overrides: overrides,
	},
		lifecycle.WithCoordinator(s.coordinator),
		lifecycle.WithParser(parser),
		lifecycle.WithDispatcher(s.turns),
		lifecycle.WithLogger(logger),
		lifecycle.WithView(lifecycle.ViewFunc(func(instructions []lifecycle.Instruction) {
			s.last = instructions
			s.view.Apply(instructions)
		})),
		lifecycle.WithAnimator(lifecycle.AnimatorFunc(func(add, _ string) {
			s.class = add
		})),
	)
	if err != nil {
		return nil, err
	}
	if err := s.controller.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// await blocks until the include settled and runs the resulting turns.
func (s *session) await(ctx context.Context) {
	if s.include != "" {
		if _, err := s.coordinator.Get(ctx, s.include); err != nil {
			s.logger.WithError(err).Debug("include did not resolve")
		}
	}
	s.turns.Drain()
}

// update applies a flag snapshot and returns the instructions it produced.
func (s *session) update(flags any) []lifecycle.Instruction {
	s.last = nil
	s.controller.NotifyFlagsChanged(flags)
	s.turns.Drain()
	return s.last
}

func (s *session) close() {
	s.controller.Close()
}

func (s *session) print(w io.Writer) error {
	if err := s.controller.Err(); err != nil {
		if _, err := fmt.Fprintf(w, "# include unavailable: %v\n", err); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "class: %s\n", s.class); err != nil {
		return err
	}
	for _, item := range s.view.Items() {
		text := item.Text
		if item.Err != nil {
			text = "!" + item.Err.Error()
		}
		if _, err := fmt.Fprintf(w, "[%s] %s\n", item.Entry.Key, text); err != nil {
			return err
		}
	}
	return nil
}

func printInstructions(w io.Writer, instructions []lifecycle.Instruction) error {
	for _, ins := range instructions {
		if _, err := fmt.Fprintf(w, "%s %s @%d\n", ins.Op, ins.Entry.Key, ins.Index); err != nil {
			return err
		}
	}
	return nil
}

// readFlags loads a flag snapshot from a JSON (comments allowed) or YAML file.
func readFlags(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}
	return decodeFlags(body)
}

func decodeFlags(body []byte) (map[string]any, error) {
	flags := map[string]any{}
	if catalog.DetectFormat(body) == catalog.FormatJSON {
		if err := json.Unmarshal(jsonc.ToJSON(body), &flags); err != nil {
			return nil, fmt.Errorf("decode flags: %w", err)
		}
		return flags, nil
	}
	if err := yaml.Unmarshal(body, &flags); err != nil {
		return nil, fmt.Errorf("decode flags: %w", err)
	}
	return flags, nil
}
