package commands

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/qcdash/internal/core/config"
	"github.com/colonyops/qcdash/internal/printer"
	"github.com/colonyops/qcdash/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "qcdash config validate [options]",
				Description: "Validates the configuration file, checking urls, durations, glob patterns and milestone names.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	cfg, err := config.Read(cmd.flags.ConfigPath)
	if err != nil {
		return err
	}

	var problems []validationError
	if err := cfg.Validate(); err != nil {
		var fieldErrs criterio.FieldErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, validationError{Field: fe.Field, Message: fe.Err.Error()})
		}
	}

	if cmd.format == "json" {
		out := struct {
			Path   string            `json:"path"`
			Valid  bool              `json:"valid"`
			Errors []validationError `json:"errors,omitempty"`
		}{
			Path:   cmd.flags.ConfigPath,
			Valid:  len(problems) == 0,
			Errors: problems,
		}
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
			return err
		}
		if len(problems) > 0 {
			return cli.Exit("", 1)
		}
		return nil
	}

	for _, pr := range problems {
		p.Errorf("%s: %s", pr.Field, pr.Message)
	}

	p.Printf("")
	if len(problems) == 0 {
		p.Successf("Configuration is valid")
		return nil
	}

	p.Errorf("%d error(s) found in %s", len(problems), cmd.flags.ConfigPath)
	return cli.Exit("", 1)
}
