package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gitscribe/cli/internal/backend"
	"gitscribe/cli/internal/config"
	"gitscribe/cli/internal/console"
	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/erruser"
	"gitscribe/cli/internal/git"
	"gitscribe/cli/internal/hook"
	"gitscribe/cli/internal/logging"
	"gitscribe/cli/internal/prompt"
	"gitscribe/cli/internal/run"
	"gitscribe/cli/internal/trace"
	"gitscribe/cli/internal/version"
)

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI. It is exported for testing.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, args, os.Stdout, os.Stderr)
}

// execute runs the command tree with the given writers and returns the exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// printError writes the user line, the underlying cause and the hint, if any.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	if u := errors.Unwrap(err); u != nil {
		fmt.Fprintf(w, "Details: %v\n", u)
	}
	if hint := erruser.HintOf(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gitscribe",
		Short:   "Write commit messages from staged changes with a language model",
		Version: version.String(),
	}
	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Log debug output (token estimates, per-file progress)")
	pf.BoolP("quiet", "q", false, "Only log warnings and errors")
	pf.Bool("trace", false, "Print prompts and model responses to stderr")
	pf.String("provider", "", "Summarization provider: openai, ollama or stub (overrides config and env)")
	pf.String("model", "", "Model name for the selected provider (overrides config and env)")
	pf.Duration("timeout", 0, "Per-request timeout, e.g. 30s (overrides config and env)")
	pf.Int("concurrency", 0, "Files summarized in parallel (overrides config and env)")
	pf.String("log-file", "", "Also write JSON logs to this rotating file")

	rootCmd.AddCommand(newPrepareCommitMsgCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd
}

func newPrepareCommitMsgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare-commit-msg [msg-file [source [sha]]]",
		Short: "Summarize the staged changes into git's commit message file",
		Long: "Run from .git/hooks/prepare-commit-msg. Git's hook arguments may be passed\n" +
			"positionally or through the flags below; flags win.",
		Args: cobra.MaximumNArgs(3),
		RunE: runPrepareCommitMsg,
	}
	cmd.Flags().String("commit-msg-file", "", "Path to the commit message file (hook argument 1)")
	cmd.Flags().String("commit-source", "", "Commit source: message, template, merge, squash or commit (hook argument 2)")
	cmd.Flags().String("commit-sha", "", "Commit SHA for the commit source (hook argument 3)")
	cmd.Flags().String("git-diff-content", "", "Read the diff from this file instead of the repository")
	return cmd
}

// hookArgs resolves git's three hook arguments from flags, falling back to positional args.
func hookArgs(cmd *cobra.Command, args []string) (msgFile, source, sha string) {
	positional := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	msgFile, _ = cmd.Flags().GetString("commit-msg-file")
	if msgFile == "" {
		msgFile = positional(0)
	}
	source, _ = cmd.Flags().GetString("commit-source")
	if !cmd.Flags().Changed("commit-source") {
		source = positional(1)
	}
	sha, _ = cmd.Flags().GetString("commit-sha")
	if sha == "" {
		sha = positional(2)
	}
	return msgFile, source, sha
}

func runPrepareCommitMsg(cmd *cobra.Command, args []string) error {
	msgFile, sourceArg, sha := hookArgs(cmd, args)
	src, err := hook.ParseSource(sourceArg)
	if err != nil {
		return erruser.WithHint("Unknown commit source "+strconv.Quote(sourceArg)+".",
			"Expected one of: message, template, merge, squash, commit.", err)
	}
	diffFile, _ := cmd.Flags().GetString("git-diff-content")

	// A diff file stands in for the repository, so repo config is not looked up either.
	app, err := setup(cmd, diffFile == "")
	if err != nil {
		return err
	}
	defer app.close()

	printer := console.New(cmd.OutOrStdout())
	opts := run.Options{
		CommitMsgFile: msgFile,
		Source:        src,
		CommitSHA:     sha,
		DiffFile:      diffFile,
		Provider:      app.cfg.Provider,
		Concurrency:   app.cfg.Concurrency,
		Ignore:        app.ignore(),
	}
	deps := run.Deps{
		NewBackend: app.newBackend,
		Source:     git.Extractor{Dir: app.dir},
		Reporter:   printer,
		Logger:     app.log,
	}
	res, err := run.PrepareCommitMsg(cmd.Context(), opts, deps)
	if err != nil {
		return err
	}
	if !res.Skipped && !res.Written {
		printer.Note("No staged changes to summarize; the commit message was left as is.")
	}
	return nil
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Verify configuration and that the provider can be reached",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	app, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer app.close()

	printer := console.New(cmd.OutOrStdout())
	repo := app.repoRoot
	if repo == "" {
		repo = "(not in a repository)"
	}
	printer.Field("Version", version.String())
	printer.Field("Repo", repo)
	printer.Field("Provider", app.cfg.Provider)
	if app.cfg.Provider != config.ProviderStub {
		printer.Field("Model", app.cfg.Model())
	}
	printer.Field("Timeout", app.cfg.Timeout.String())
	printer.Field("Retries", strconv.Itoa(app.cfg.MaxRetries))

	b, err := app.newBackend(cmd.Context())
	if err != nil {
		return err
	}
	printer.Note(fmt.Sprintf("%s backend OK", b))
	return nil
}

// app holds what every subcommand derives from flags and configuration.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	closer   io.Closer
	tracer   *trace.Tracer
	prompts  *prompt.Set
	dir      string
	repoRoot string
}

// setup loads configuration and builds the logger, prompts and tracer. With
// useRepo false the repository is never opened and only global config,
// env and flags apply.
func setup(cmd *cobra.Command, useRepo bool) (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, erruser.New("Could not determine current directory.", err)
	}
	repoRoot := ""
	if useRepo {
		if r, e := git.RepoRoot(cwd); e == nil {
			repoRoot = r
		}
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{RepoRoot: repoRoot, Overrides: overridesFromFlags(cmd)})
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	log, closer := logging.New(logging.Options{
		Verbose: verbose,
		Quiet:   quiet,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})

	promptFile := cfg.PromptFile
	if promptFile != "" && !filepath.IsAbs(promptFile) && repoRoot != "" {
		promptFile = filepath.Join(repoRoot, promptFile)
	}
	prompts, err := prompt.Load(promptFile)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	var tracer *trace.Tracer
	if on, _ := cmd.Flags().GetBool("trace"); on {
		tracer = trace.New(cmd.ErrOrStderr())
	}
	log.Debug().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model()).
		Str("repo_root", repoRoot).
		Int("concurrency", cfg.Concurrency).
		Msg("configuration loaded")

	return &app{
		cfg:      cfg,
		log:      log,
		closer:   closer,
		tracer:   tracer,
		prompts:  prompts,
		dir:      cwd,
		repoRoot: repoRoot,
	}, nil
}

func (a *app) close() {
	_ = a.closer.Close()
}

func (a *app) newBackend(ctx context.Context) (backend.Backend, error) {
	return backend.New(ctx, a.cfg, backend.Options{
		Logger:  a.log,
		Tracer:  a.tracer,
		Prompts: a.prompts,
	})
}

// ignore is the built-in lockfile list plus file_ignore from config.
func (a *app) ignore() []string {
	return append(slices.Clone(diff.DefaultIgnore), a.cfg.FileIgnore...)
}

// overridesFromFlags returns config overrides for the persistent flags the user set.
func overridesFromFlags(cmd *cobra.Command) *config.Overrides {
	flags := cmd.Flags()
	var o config.Overrides
	set := false
	if flags.Changed("provider") {
		v, _ := flags.GetString("provider")
		o.Provider = &v
		set = true
	}
	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		o.Model = &v
		set = true
	}
	if flags.Changed("timeout") {
		v, _ := flags.GetDuration("timeout")
		o.Timeout = &v
		set = true
	}
	if flags.Changed("concurrency") {
		v, _ := flags.GetInt("concurrency")
		o.Concurrency = &v
		set = true
	}
	if flags.Changed("log-file") {
		v, _ := flags.GetString("log-file")
		o.LogFile = &v
		set = true
	}
	if !set {
		return nil
	}
	return &o
}
