package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2req/internal/codegen"
	"github.com/mark3labs/swagger2req/internal/emitter/tsemitter"
	"github.com/mark3labs/swagger2req/internal/generrors"
	"github.com/mark3labs/swagger2req/internal/logging"
	"github.com/mark3labs/swagger2req/internal/render"
	genspec "github.com/mark3labs/swagger2req/internal/spec"
)

const envPrefix = "SWAGGER2REQ_"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, environment and CLI overrides.
type GenerateConfig struct {
	Input         string
	Out           string
	ImportPath    string
	VerbTransform string
	Separator     string
	OnCollision   string
	Template      string
	IncludeTags   []string
	ExcludeTags   []string
	Methods       []string
	PathPatterns  []string
	ConfigPath    string
	Strict        bool
	DryRun        bool
	Force         bool
	Verbose       bool

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Out:           "_apis",
		ImportPath:    codegen.DefaultImportPath,
		VerbTransform: string(codegen.VerbCapitalize),
		Separator:     codegen.DefaultSeparator,
		OnCollision:   string(codegen.CollisionOverwrite),
	}
}

// envConfig mirrors GenerateConfig for SWAGGER2REQ_* variables. Unset
// variables leave pointers nil so they never mask config file values.
type envConfig struct {
	Input         *string  `env:"INPUT"`
	Out           *string  `env:"OUT"`
	ImportPath    *string  `env:"IMPORT_PATH"`
	VerbTransform *string  `env:"VERB_TRANSFORM"`
	Separator     *string  `env:"SEPARATOR"`
	OnCollision   *string  `env:"ON_COLLISION"`
	Template      *string  `env:"TEMPLATE"`
	IncludeTags   []string `env:"INCLUDE_TAGS"`
	ExcludeTags   []string `env:"EXCLUDE_TAGS"`
	Methods       []string `env:"METHODS"`
	PathPatterns  []string `env:"PATHS"`
	Strict        *bool    `env:"STRICT"`
	DryRun        *bool    `env:"DRY_RUN"`
	Force         *bool    `env:"FORCE"`
	Verbose       *bool    `env:"VERBOSE"`
}

var (
	generateRunner = runGenerate
	environ        = func() map[string]string { return env.ToMap(os.Environ()) }
	workingDir     = os.Getwd
)

// discoveredConfigFiles are looked up in the working directory when --config
// is not given, in this order.
var discoveredConfigFiles = []string{defaultConfigFile, "swagger2req.json"}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate TypeScript request functions from an OpenAPI/Swagger document",
		Long: "Generate one TypeScript module per controller, with one async request function per operation. " +
			"Options can be provided via flags, SWAGGER2REQ_* environment variables, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2req generate --input http://localhost:3000/api-json --out ./src/_apis
  swagger2req --config swagger2req.yaml generate --force --dry-run
  swagger2req generate   # reads ./swagger2req.yaml or ./swagger2req.json when present`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			cfg.stdout = cmd.OutOrStdout()
			cfg.stderr = cmd.ErrOrStderr()
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory for <Controller>.ts files (default _apis)")
	flags.String("import-path", "", "Module the generated files import request helpers from (default @/request)")
	flags.String("verb-transform", "", "How HTTP verbs become helper names (capitalize|upper|lower|none)")
	flags.String("separator", "", "Separator between controller and method in operationId (default _)")
	flags.String("on-collision", "", "What to do when two operations map to one function (overwrite|error)")
	flags.String("template", "", "Path to a pongo2 template replacing the built-in route template")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include these HTTP methods (post,get,put,delete,patch)")
	flags.StringSlice("paths", nil, "Only include paths matching one of these regular expressions")
	flags.Bool("strict", false, "Fail on OpenAPI validation errors instead of logging them")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Write even when the output directory holds files this run does not produce")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		configPath = discoverConfigFile()
	}
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateEnvOverrides(&cfg, environ()); err != nil {
		return nil, err
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func discoverConfigFile() string {
	wd, err := workingDir()
	if err != nil {
		return ""
	}
	for _, name := range discoveredConfigFiles {
		p := filepath.Join(wd, name)
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

func applyGenerateEnvOverrides(cfg *GenerateConfig, vars map[string]string) error {
	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Environment: vars, Prefix: envPrefix}); err != nil {
		return wrapUsageError(fmt.Sprintf("environment: %v", err), err)
	}
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&cfg.Input, ec.Input)
	setString(&cfg.Out, ec.Out)
	setString(&cfg.ImportPath, ec.ImportPath)
	setString(&cfg.VerbTransform, ec.VerbTransform)
	setString(&cfg.Separator, ec.Separator)
	setString(&cfg.OnCollision, ec.OnCollision)
	setString(&cfg.Template, ec.Template)
	if len(ec.IncludeTags) > 0 {
		cfg.IncludeTags = sanitizeTags(ec.IncludeTags)
	}
	if len(ec.ExcludeTags) > 0 {
		cfg.ExcludeTags = sanitizeTags(ec.ExcludeTags)
	}
	if len(ec.Methods) > 0 {
		cfg.Methods = sanitizeTags(ec.Methods)
	}
	if len(ec.PathPatterns) > 0 {
		cfg.PathPatterns = sanitizeTags(ec.PathPatterns)
	}
	setBool(&cfg.Strict, ec.Strict)
	setBool(&cfg.DryRun, ec.DryRun)
	setBool(&cfg.Force, ec.Force)
	setBool(&cfg.Verbose, ec.Verbose)
	return nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"input", &cfg.Input},
		{"out", &cfg.Out},
		{"import-path", &cfg.ImportPath},
		{"verb-transform", &cfg.VerbTransform},
		{"separator", &cfg.Separator},
		{"on-collision", &cfg.OnCollision},
		{"template", &cfg.Template},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(value)
	}

	sliceFlags := []struct {
		name string
		dst  *[]string
	}{
		{"include-tags", &cfg.IncludeTags},
		{"exclude-tags", &cfg.ExcludeTags},
		{"methods", &cfg.Methods},
		{"paths", &cfg.PathPatterns},
	}
	for _, f := range sliceFlags {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetStringSlice(f.name)
		if err != nil {
			return err
		}
		*f.dst = sanitizeTags(value)
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"strict", &cfg.Strict},
		{"dry-run", &cfg.DryRun},
		{"force", &cfg.Force},
		{"verbose", &cfg.Verbose},
	}
	for _, f := range boolFlags {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetBool(f.name)
		if err != nil {
			return err
		}
		*f.dst = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.ImportPath = strings.TrimSpace(c.ImportPath)
	c.VerbTransform = strings.ToLower(strings.TrimSpace(c.VerbTransform))
	c.OnCollision = strings.ToLower(strings.TrimSpace(c.OnCollision))
	c.Template = strings.TrimSpace(c.Template)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	for i, m := range c.Methods {
		c.Methods[i] = strings.ToLower(strings.TrimSpace(m))
	}
	c.Methods = sanitizeTags(c.Methods)
	c.PathPatterns = sanitizeTags(c.PathPatterns)

	defaults := defaultGenerateConfig()
	if c.Out == "" {
		c.Out = defaults.Out
	}
	if c.ImportPath == "" {
		c.ImportPath = defaults.ImportPath
	}
	if c.VerbTransform == "" {
		c.VerbTransform = defaults.VerbTransform
	}
	if c.Separator == "" {
		c.Separator = defaults.Separator
	}
	if c.OnCollision == "" {
		c.OnCollision = defaults.OnCollision
	}
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return &generrors.ConfigurationError{
			Field:   "input",
			Message: "a document source is required (--input, config file, or " + envPrefix + "INPUT)",
		}
	}

	if _, err := codegen.ParseVerbTransform(c.VerbTransform); err != nil {
		return &generrors.ConfigurationError{Field: "verbTransform", Message: err.Error()}
	}

	switch codegen.CollisionPolicy(c.OnCollision) {
	case codegen.CollisionOverwrite, codegen.CollisionError:
	default:
		return &generrors.ConfigurationError{
			Field:   "onCollision",
			Message: fmt.Sprintf("unsupported value %q (allowed: overwrite, error)", c.OnCollision),
		}
	}

	if _, err := parseMethods(c.Methods); err != nil {
		return &generrors.ConfigurationError{Field: "methods", Message: err.Error()}
	}
	for _, p := range c.PathPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return &generrors.ConfigurationError{Field: "paths", Message: fmt.Sprintf("invalid pattern %q: %v", p, err)}
		}
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	stdout, stderr := cfg.stdout, cfg.stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	level := "info"
	if cfg.Verbose {
		level = "debug"
	}
	log, err := logging.NewLogger(logging.Config{Component: "generate", Level: level, Output: stderr})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// 1) Load the document (file or http/https URL), converting Swagger 2.0
	doc, err := genspec.Load(ctx, cfg.Input,
		genspec.WithStrictValidation(cfg.Strict),
		genspec.WithLoaderLogger(log),
	)
	if err != nil {
		var se *genspec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			return wrapUsageError(msg, err)
		}
		return err
	}

	// 2) Route descriptors with tag, method and path filters
	methods, err := parseMethods(cfg.Methods)
	if err != nil {
		return err
	}
	routes, err := genspec.Assemble(ctx, doc,
		genspec.WithIncludeTags(cfg.IncludeTags),
		genspec.WithExcludeTags(cfg.ExcludeTags),
		genspec.WithMethods(methods),
		genspec.WithPathPatterns(cfg.PathPatterns),
		genspec.WithLogger(log),
	)
	if err != nil {
		return err
	}
	if len(routes) == 0 {
		log.Warn("document has no routes to generate", zap.String("input", cfg.Input))
	}

	// 3) Controller groups
	groups, err := codegen.Group(routes, codegen.GroupOptions{
		Separator:   cfg.Separator,
		OnCollision: codegen.CollisionPolicy(cfg.OnCollision),
		Logger:      log,
	})
	if err != nil {
		return err
	}

	// 4) Render
	renderer, err := loadRenderer(cfg.Template)
	if err != nil {
		return err
	}
	verbs, err := codegen.ParseVerbTransform(cfg.VerbTransform)
	if err != nil {
		return err
	}
	sources, err := codegen.Generate(ctx, groups, renderer, codegen.GenerateOptions{
		Context: codegen.ContextOptions{ImportPath: cfg.ImportPath, VerbTransform: verbs},
		Logger:  log,
	})
	if err != nil {
		return err
	}

	// 5) Write
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	res, err := tsemitter.Emit(ctx, sources, tsemitter.Options{
		OutDir: cfg.Out,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
		Logger: log,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(stdout, res.OutDir, paths)
	}
	log.Debug("generation finished",
		zap.Int("routes", len(routes)),
		zap.Int("controllers", len(groups)),
		zap.Bool("dryRun", cfg.DryRun))
	return nil
}

func parseMethods(names []string) ([]genspec.HttpMethod, error) {
	var out []genspec.HttpMethod
	for _, name := range names {
		m := genspec.HttpMethod(strings.ToLower(name))
		known := false
		for _, supported := range genspec.Methods {
			if m == supported {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unsupported method %q (allowed: post, get, put, delete, patch)", name)
		}
		out = append(out, m)
	}
	return out, nil
}

func loadRenderer(path string) (codegen.Renderer, error) {
	if path == "" {
		return render.Default()
	}
	return render.FromFile(path)
}

func printPlan(w io.Writer, outDir string, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	var ce *generrors.CollaboratorError
	if errors.As(err, &ce) && ce.Stage == "write" {
		return wrapUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, err), err)
	}
	return err
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	stringFields := map[string]*string{
		"input":         &cfg.Input,
		"out":           &cfg.Out,
		"rootdirectory": &cfg.Out,
		"importpath":    &cfg.ImportPath,
		"verbtransform": &cfg.VerbTransform,
		"separator":     &cfg.Separator,
		"oncollision":   &cfg.OnCollision,
		"template":      &cfg.Template,
	}
	listFields := map[string]*[]string{
		"includetags": &cfg.IncludeTags,
		"excludetags": &cfg.ExcludeTags,
		"methods":     &cfg.Methods,
		"paths":       &cfg.PathPatterns,
	}
	boolFields := map[string]*bool{
		"strict":  &cfg.Strict,
		"dryrun":  &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := stringFields[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := listFields[normalized]; ok {
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = sanitizeTags(list)
			continue
		}
		if dst, ok := boolFields[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
