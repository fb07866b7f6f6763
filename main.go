package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/illarion/sealsheet/cmd"
	"github.com/illarion/sealsheet/internal/config"
	"github.com/illarion/sealsheet/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "encrypt":
		runEncrypt(ctx, os.Args[2:])
	case "decrypt":
		runDecrypt(ctx, os.Args[2:])
	case "init":
		runInit(ctx, os.Args[2:])
	case "add":
		runAdd(ctx, os.Args[2:])
	case "show":
		runShow(ctx, os.Args[2:])
	case "export":
		runExport(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet returns a flag set carrying the flags every command accepts
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.StringP("archive", "a", config.DefaultConfig().Archive, "Archive file name in the current directory")
	fs.Int("workers", config.DefaultConfig().Workers, "Records sealed or opened in parallel")
	fs.Usage = func() { printCommandHelp(name) }
	return fs
}

// setup parses args and resolves configuration and logging for a command
func setup(fs *pflag.FlagSet, args []string) *cmd.Env {
	if err := fs.Parse(args); err != nil {
		cmd.HandleError(err)
	}

	cfg, err := config.Load(".", fs)
	if err != nil {
		cmd.HandleError(err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		cmd.HandleError(err)
	}
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}

	return cmd.NewEnv(cfg, logger)
}

func addIterationsFlag(fs *pflag.FlagSet) {
	fs.IntP("iterations", "i", config.DefaultConfig().Iterations, "PBKDF2 iteration count")
}

func codecInput(fs *pflag.FlagSet, text *string) cmd.Input {
	in := cmd.Input{Text: *text, HasText: fs.Changed("text")}
	if len(fs.Args()) > 1 {
		fmt.Fprintln(os.Stderr, "Error: at most one FILE argument")
		os.Exit(1)
	}
	if len(fs.Args()) == 1 {
		if in.HasText {
			fmt.Fprintln(os.Stderr, "Error: --text and FILE are mutually exclusive")
			os.Exit(1)
		}
		in.File = fs.Arg(0)
	}
	return in
}

func runEncrypt(_ context.Context, args []string) {
	fs := newFlagSet("encrypt")
	addIterationsFlag(fs)
	text := fs.StringP("text", "t", "", "Text to encrypt instead of FILE or stdin")
	env := setup(fs, args)

	cmd.Encrypt(env, codecInput(fs, text))
}

func runDecrypt(_ context.Context, args []string) {
	fs := newFlagSet("decrypt")
	addIterationsFlag(fs)
	text := fs.StringP("text", "t", "", "Encrypted text instead of FILE or stdin")
	env := setup(fs, args)

	cmd.Decrypt(env, codecInput(fs, text))
}

func runInit(_ context.Context, args []string) {
	fs := newFlagSet("init")
	addIterationsFlag(fs)
	env := setup(fs, args)

	cmd.Init(env)
}

func runAdd(ctx context.Context, args []string) {
	fs := newFlagSet("add")
	force := fs.Bool("force", false, "Replace conflicting sealed records")
	keepExisting := fs.Bool("keep-existing", false, "Keep sealed versions on conflict")
	keepBoth := fs.Bool("keep-both", false, "Seal conflicting records under a new key")
	env := setup(fs, args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sealsheet add [--force|--keep-existing|--keep-both] <file.json>")
		os.Exit(1)
	}
	cmd.Add(ctx, env, fs.Arg(0), *force, *keepExisting, *keepBoth)
}

func runShow(ctx context.Context, args []string) {
	fs := newFlagSet("show")
	env := setup(fs, args)

	cmd.Show(ctx, env, fs.Args())
}

func runExport(ctx context.Context, args []string) {
	fs := newFlagSet("export")
	output := fs.StringP("output", "o", "", "Write lines to a file in the current directory")
	env := setup(fs, args)

	cmd.Export(ctx, env, *output, fs.Args())
}

func runRm(ctx context.Context, args []string) {
	fs := newFlagSet("rm")
	env := setup(fs, args)

	cmd.Remove(ctx, env, fs.Args())
}

func runLs(ctx context.Context, args []string) {
	fs := newFlagSet("ls")
	env := setup(fs, args)

	cmd.Ls(ctx, env)
}

func runStatus(ctx context.Context, args []string) {
	fs := newFlagSet("status")
	env := setup(fs, args)

	cmd.Status(ctx, env)
}

func runDiff(ctx context.Context, args []string) {
	fs := newFlagSet("diff")
	env := setup(fs, args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sealsheet diff <file.json>")
		os.Exit(1)
	}
	cmd.Diff(ctx, env, fs.Arg(0))
}

func runPasswd(ctx context.Context, args []string) {
	fs := newFlagSet("passwd")
	addIterationsFlag(fs)
	env := setup(fs, args)

	// only an explicit flag changes the archive's iteration count
	iterations := 0
	if fs.Changed("iterations") {
		iterations = env.Config.Iterations
	}
	cmd.Passwd(ctx, env, iterations)
}

func runCompact(ctx context.Context, args []string) {
	fs := newFlagSet("compact")
	env := setup(fs, args)

	cmd.Compact(ctx, env)
}

func runKeyring(_ context.Context, args []string) {
	fs := newFlagSet("keyring")
	env := setup(fs, args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sealsheet keyring <save|delete|status>")
		os.Exit(1)
	}

	switch fs.Arg(0) {
	case "save":
		cmd.KeyringSave(env)
	case "delete":
		cmd.KeyringDelete(env)
	case "status":
		cmd.KeyringStatus(env)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", fs.Arg(0))
		os.Exit(1)
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sealsheet completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("sealsheet - password records sealed into printable, OpenSSL-compatible lines")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sealsheet <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  encrypt     Encrypt text, a file or stdin")
	fmt.Println("  decrypt     Decrypt an encrypted text")
	fmt.Println("  init        Create a .sealsheet archive in current directory")
	fmt.Println("  add         Seal the records of a JSON export")
	fmt.Println("  show        Decrypt and print records")
	fmt.Println("  export      Print sealed lines for the paper sheet")
	fmt.Println("  rm          Remove records from the archive")
	fmt.Println("  ls          List sealed records")
	fmt.Println("  status      Show archive status")
	fmt.Println("  diff        Compare sealed records with a JSON export")
	fmt.Println("  passwd      Change archive password")
	fmt.Println("  compact     Compact archive to reclaim disk space")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  sealsheet init                   # Create new archive")
	fmt.Println("  sealsheet add export.json        # Seal every record of an export")
	fmt.Println("  sealsheet export -o sheet.txt    # Lines to print")
	fmt.Println("  sealsheet decrypt -t U2FsdGVk... # Open one line from the sheet")
	fmt.Println()
	fmt.Println("Configuration: .sealsheet.yaml, ~/.config/sealsheet/config.yaml, SEALSHEET_* variables.")
	fmt.Println("Use 'sealsheet help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "encrypt":
		fmt.Println("sealsheet encrypt [-i N] [-t TEXT | FILE]")
		fmt.Println()
		fmt.Println("Encrypts TEXT, FILE or stdin and prints one base64 line.")
		fmt.Println("The output opens with:")
		fmt.Println("  openssl enc -d -aes-256-cbc -pbkdf2 -iter N -base64 -A -k PASSWORD")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -i, --iterations N   PBKDF2 iterations (default 10000)")
		fmt.Println("  -t, --text TEXT      Encrypt TEXT instead of a file")
	case "decrypt":
		fmt.Println("sealsheet decrypt [-i N] [-t TEXT | FILE]")
		fmt.Println()
		fmt.Println("Decrypts a line produced by 'sealsheet encrypt', 'sealsheet export'")
		fmt.Println("or 'openssl enc -aes-256-cbc -pbkdf2 -base64 -A'.")
		fmt.Println("Line breaks and spaces inside the text are ignored.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -i, --iterations N   PBKDF2 iterations used to encrypt (default 10000)")
		fmt.Println("  -t, --text TEXT      Decrypt TEXT instead of a file")
	case "init":
		fmt.Println("sealsheet init [-i N]")
		fmt.Println()
		fmt.Println("Creates a .sealsheet archive in the current directory.")
		fmt.Println("Prompts for a password that will be used for encryption.")
		fmt.Println("The password is not stored anywhere unless you save it to the keyring.")
	case "add":
		fmt.Println("sealsheet add [--force|--keep-existing|--keep-both] <file.json>")
		fmt.Println()
		fmt.Println("Seals every record of a password manager JSON export.")
		fmt.Println("Accepts an array of records or a tree of groups with entries.")
		fmt.Println("Records are keyed by Title; untitled records become untitled-N.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force          Replace sealed records that differ")
		fmt.Println("  --keep-existing  Keep sealed records that differ")
		fmt.Println("  --keep-both      Seal differing records under \"key (N)\"")
		fmt.Println()
		fmt.Println("Interactive mode (default) offers for each conflict:")
		fmt.Println("  [k] Keep sealed version")
		fmt.Println("  [r] Replace with source version")
		fmt.Println("  [b] Keep both")
		fmt.Println("  [d] Show diff")
	case "show":
		fmt.Println("sealsheet show [<key> [key...]]")
		fmt.Println()
		fmt.Println("Decrypts and prints records. Keys may be glob patterns.")
	case "export":
		fmt.Println("sealsheet export [-o FILE] [<key> [key...]]")
		fmt.Println()
		fmt.Println("Prints one 'key<TAB>encrypted' line per record, ready for printing.")
		fmt.Println("Does not require a password.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -o, --output FILE   Write to FILE (mode 0600) instead of stdout")
	case "rm":
		fmt.Println("sealsheet rm <key> [key...]")
		fmt.Println()
		fmt.Println("Removes records from the archive. Keys may be glob patterns.")
	case "ls":
		fmt.Println("sealsheet ls")
		fmt.Println()
		fmt.Println("Lists sealed records. Does not require a password.")
	case "status":
		fmt.Println("sealsheet status")
		fmt.Println()
		fmt.Println("Shows record count, encryption details, plaintext sources")
		fmt.Println("and git integration. Does not require a password.")
	case "diff":
		fmt.Println("sealsheet diff <file.json>")
		fmt.Println()
		fmt.Println("Compares sealed records with the records of a JSON export.")
	case "passwd":
		fmt.Println("sealsheet passwd [-i N]")
		fmt.Println()
		fmt.Println("Changes the archive password and re-seals every record.")
		fmt.Println("With -i, the iteration count changes as well.")
	case "compact":
		fmt.Println("sealsheet compact")
		fmt.Println()
		fmt.Println("Compacts the archive to reclaim unused disk space.")
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("sealsheet keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Stores the archive password in the OS keyring, removes it,")
		fmt.Println("or reports whether it is stored.")
	case "completion":
		fmt.Println("sealsheet completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(sealsheet completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(sealsheet completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  sealsheet completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
