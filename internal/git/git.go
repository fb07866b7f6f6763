package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitStatus describes how the archive and its plaintext sources relate to git
type GitStatus struct {
	IsRepo           bool
	ArchiveTracked   bool
	TrackedSources   []string // plaintext exports committed to git (bad)
	UnignoredSources []string // plaintext exports not covered by .gitignore
	IgnoredSources   []string
}

func run(ctx context.Context, workDir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = workDir
	return cmd.Output()
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(ctx context.Context, workDir string) bool {
	_, err := run(ctx, workDir, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(ctx context.Context, workDir, path string) bool {
	out, err := run(ctx, workDir, "ls-files", "--", path)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(out))) > 0
}

// IsIgnored checks if a path is ignored by any .gitignore
func IsIgnored(ctx context.Context, workDir, path string) bool {
	// exit code 0 means ignored
	_, err := run(ctx, workDir, "check-ignore", "-q", "--", path)
	return err == nil
}

// CheckGitIntegration inspects the archive file and the plaintext sources
// records were added from.
func CheckGitIntegration(ctx context.Context, workDir, archive string, sources []string) (*GitStatus, error) {
	status := &GitStatus{}
	if !IsGitRepo(ctx, workDir) {
		return status, nil
	}
	status.IsRepo = true
	status.ArchiveTracked = IsTracked(ctx, workDir, archive)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if IsTracked(ctx, workDir, src) {
			status.TrackedSources = append(status.TrackedSources, src)
		}
		if IsIgnored(ctx, workDir, src) {
			status.IgnoredSources = append(status.IgnoredSources, src)
		} else {
			status.UnignoredSources = append(status.UnignoredSources, src)
		}
	}

	return status, nil
}

// FormatGitStatus renders status for `sealsheet status`
func FormatGitStatus(status *GitStatus, archive string) string {
	if status == nil || !status.IsRepo {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nGit Integration:\n")

	if status.ArchiveTracked {
		fmt.Fprintf(&b, "   ok: %s is tracked by git\n", archive)
	} else {
		fmt.Fprintf(&b, "   warning: %s not tracked (run: git add %s)\n", archive, archive)
	}

	tracked := make(map[string]bool, len(status.TrackedSources))
	for _, src := range status.TrackedSources {
		tracked[src] = true
		fmt.Fprintf(&b, "   error: plaintext source %s is tracked by git (run: git rm --cached %s)\n", src, src)
	}

	for _, src := range status.UnignoredSources {
		if !tracked[src] {
			fmt.Fprintf(&b, "   warning: plaintext source %s not in .gitignore\n", src)
		}
	}
	if len(status.UnignoredSources) == 0 && len(status.IgnoredSources) > 0 {
		fmt.Fprintf(&b, "   ok: %d plaintext source(s) in .gitignore\n", len(status.IgnoredSources))
	}

	return b.String()
}
