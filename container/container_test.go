package container

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveCommandNameExpandsEnv(t *testing.T) {
	t.Setenv("SHELL", "/bin/bash")

	if got := resolveCommandName("SHELL"); got != "/bin/bash" {
		t.Fatalf("resolveCommandName(SHELL) = %q, want /bin/bash", got)
	}
}

func TestResolveCommandNameLiteralFallback(t *testing.T) {
	os.Unsetenv("NO_SUCH_DEVENV_VAR")

	if got := resolveCommandName("NO_SUCH_DEVENV_VAR"); got != "NO_SUCH_DEVENV_VAR" {
		t.Fatalf("resolveCommandName = %q, want the literal name", got)
	}
}

func TestCommandArgvFallsBackToName(t *testing.T) {
	if got := commandArgv("/bin/sh", nil); len(got) != 1 || got[0] != "/bin/sh" {
		t.Fatalf("commandArgv = %v, want [/bin/sh]", got)
	}

	argv := []string{"echo", "hi"}
	if got := commandArgv("echo", argv); len(got) != 2 || got[0] != "echo" || got[1] != "hi" {
		t.Fatalf("commandArgv = %v, want %v", got, argv)
	}
}

func TestInitTargetsOrder(t *testing.T) {
	want := []string{
		"/usr/lib/systemd/systemd",
		"/lib/systemd/systemd",
		"/sbin/init",
	}

	if len(initTargets) != len(want) {
		t.Fatalf("initTargets has %d entries, want %d", len(initTargets), len(want))
	}

	for i, target := range want {
		if initTargets[i] != target {
			t.Fatalf("initTargets[%d] = %q, want %q", i, initTargets[i], target)
		}
	}
}

func TestIsReentry(t *testing.T) {
	cases := []struct {
		args []string
		want bool
	}{
		{[]string{"devenv", reentryToken, "/", "/home/user/.devenv"}, true},
		{[]string{"devenv", "run", "echo", "hi"}, false},
		{[]string{"devenv", reentryToken}, false},
		{[]string{"devenv"}, false},
	}

	for _, c := range cases {
		if got := IsReentry(c.args); got != c.want {
			t.Errorf("IsReentry(%v) = %v, want %v", c.args, got, c.want)
		}
	}
}

func TestSaneEnvironmentPassesShellThrough(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	t.Setenv("MYSHELL", "/bin/fish")

	env := saneEnvironment("MYSHELL")

	if !containsEnv(env, "SHELL=/bin/zsh") {
		t.Fatalf("environment misses SHELL: %v", env)
	}

	if !containsEnv(env, "MYSHELL=/bin/fish") {
		t.Fatalf("environment misses the extra variable: %v", env)
	}

	if !containsPrefix(env, "PATH=") {
		t.Fatalf("environment misses PATH: %v", env)
	}
}

func TestSaneEnvironmentSkipsUnsetAndDuplicates(t *testing.T) {
	os.Unsetenv("NO_SUCH_DEVENV_VAR")
	t.Setenv("TERM", "xterm")

	env := saneEnvironment("NO_SUCH_DEVENV_VAR", "TERM", "TERM")

	if containsPrefix(env, "NO_SUCH_DEVENV_VAR=") {
		t.Fatalf("unset variable leaked into the environment: %v", env)
	}

	count := 0

	for _, e := range env {
		if strings.HasPrefix(e, "TERM=") {
			count++
		}
	}

	if count != 1 {
		t.Fatalf("TERM appears %d times, want once: %v", count, env)
	}
}

func TestInstallBinary(t *testing.T) {
	root := t.TempDir()

	if err := installBinary(root); err != nil {
		t.Fatalf("installBinary: %v", err)
	}

	st, err := os.Stat(filepath.Join(root, "usr", "bin", "devenv"))
	if err != nil {
		t.Fatalf("stat copied binary: %v", err)
	}

	if st.Size() == 0 {
		t.Fatalf("copied binary is empty")
	}

	if st.Mode().Perm()&0o0111 == 0 {
		t.Fatalf("copied binary is not executable: %v", st.Mode())
	}
}

func containsEnv(env []string, want string) bool {
	for _, e := range env {
		if e == want {
			return true
		}
	}

	return false
}

func containsPrefix(env []string, prefix string) bool {
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}

	return false
}
