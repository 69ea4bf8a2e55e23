package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "swagger2req.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool

	stdout io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swagger2req configuration file",
		Long:  "Scaffold a commented swagger2req configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
				stdout:     cmd.OutOrStdout(),
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}

	w := cfg.stdout
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
// Every key can also be set as SWAGGER2REQ_<KEY> (e.g. SWAGGER2REQ_IMPORT_PATH).
const sampleConfigYAML = `# swagger2req configuration (YAML)
# All fields are optional except input. Environment variables override
# config values; command-line flags override both. generate reads this
# file from the working directory when --config is not given.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: http://localhost:3000/api-json

# Directory receiving one <Controller>.ts file per controller.
# out: _apis

# Module the generated files import request helpers from.
# importPath: "@/request"

# How HTTP verbs become helper names: capitalize (Get), upper (GET), lower (get), none.
# verbTransform: capitalize

# Separator between controller and method name in operationId (UserController_update).
# separator: _

# Two operations mapping to the same function: overwrite (later wins) or error.
# onCollision: overwrite

# pongo2 template replacing the built-in route template.
# template: ./route.ts.tpl

# Only include operations with these tags (comma-separated or list).
# includeTags: [user,auth]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include these HTTP methods.
# methods: [get,post]

# Only include paths matching one of these regular expressions.
# paths: ["^/user"]

# Fail on OpenAPI validation errors instead of logging them.
# strict: false

# Preview planned outputs without writing files.
# dryRun: false

# Write even when the output directory holds files other than the
# generated <Controller>.ts files. Regenerating over earlier output never needs it.
# force: false

# Enable verbose logging.
# verbose: false
`
