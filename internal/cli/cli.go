package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/sotgo/internal/app"
)

// EnvPrefix prefixes the environment variables that fill unset flags:
// -trace-dsn is read from SOTGO_TRACE_DSN.
const EnvPrefix = "SOTGO_"

const defaultEnvFile = ".env"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sotgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
sotgo - A stack-of-tasks whole-body controller.

Usage:
  sotgo [options] [CONTROLLER_PATH]

Arguments:
  CONTROLLER_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options not given on the command line are read from SOTGO_<NAME>
environment variables, then from the -env-file file.

Options:
`)
		flagSet.PrintDefaults()
	}

	controllerFlag := flagSet.String("controller", "", "Path to the controller file or directory.")
	cFlag := flagSet.String("c", "", "Path to the controller file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	cyclesFlag := flagSet.Int("cycles", 0, "Number of control cycles to run. 0 runs until interrupted.")
	periodFlag := flagSet.Duration("period", 0, "Control period, overriding the controller file. 0 keeps the file's.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health and introspection server. 0 is disabled.")
	telemetryFlag := flagSet.String("telemetry-url", "", "socket.io server receiving cycle reports. Empty is disabled.")
	traceBackendFlag := flagSet.String("trace-backend", "memory", "Cycle trace store. Options: 'memory', 'sqlite', 'postgres'.")
	traceDSNFlag := flagSet.String("trace-dsn", "", "Data source of the sqlite or postgres trace store.")
	envFileFlag := flagSet.String("env-file", defaultEnvFile, "File of KEY=value defaults.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if err := applyEnv(flagSet, *envFileFlag); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *controllerFlag != "" {
		path = *controllerFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Controller path determined.", "path", path)

	if path == "" {
		slog.Debug("No controller path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ControllerPath:  path,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		Cycles:          *cyclesFlag,
		Period:          *periodFlag,
		TelemetryURL:    *telemetryFlag,
		TraceBackend:    strings.ToLower(*traceBackendFlag),
		TraceDSN:        *traceDSNFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// applyEnv sets every flag left unset on the command line from the
// environment, then from envFile. A missing default .env file is ignored.
func applyEnv(flagSet *flag.FlagSet, envFile string) error {
	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	fileEnv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || set["env-file"] {
			return fmt.Errorf("reading env file %s: %w", envFile, err)
		}
		fileEnv = map[string]string{}
	}

	var errs []error
	flagSet.VisitAll(func(f *flag.Flag) {
		if set[f.Name] || f.Name == "c" || f.Name == "env-file" {
			return
		}
		key := EnvName(f.Name)
		value, ok := os.LookupEnv(key)
		if !ok {
			value, ok = fileEnv[key]
		}
		if !ok {
			return
		}
		if err := flagSet.Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("invalid value %q for %s: %w", value, key, err))
		}
	})
	return errors.Join(errs...)
}

// EnvName returns the environment variable backing flag name.
func EnvName(name string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
