package repos

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auri/internal/executor/executortest"
)

const pacmanConf = `
[options]
HoldPkg     = pacman glibc
Architecture = auto

[cachyos]
Include = /etc/pacman.d/cachyos-mirrorlist

[core]
Include = /etc/pacman.d/mirrorlist

[extra]
Include = /etc/pacman.d/mirrorlist

#[multilib]
#Include = /etc/pacman.d/mirrorlist

[Chaotic-AUR]
Include = /etc/pacman.d/chaotic-mirrorlist

[mylocal]
Server = file:///srv/repo

[core]
`

func TestActiveRepositoriesOrderAndDedup(t *testing.T) {
	names, err := ActiveRepositories(strings.NewReader(pacmanConf))
	require.NoError(t, err)
	assert.Equal(t, []string{"cachyos", "core", "extra", "chaotic-aur", "mylocal"}, names)
}

func TestActiveRepositoriesToleratesPacmanSyntax(t *testing.T) {
	conf := `# header comment
[options]
Color
ILoveCandy
ParallelDownloads = 5
IgnorePkg   =

[core]
Server = https://a.example/$repo/os/$arch
Server = https://b.example/$repo/os/$arch
; alternative comment style

[multilib]
Include = /etc/pacman.d/mirrorlist
[CORE]
`
	names, err := ActiveRepositories(strings.NewReader(conf))
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "multilib"}, names)

	names, err = ActiveRepositories(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBindKeyringsRestrictsToTrustTable(t *testing.T) {
	names := []string{"cachyos", "core", "mylocal", "blackarch"}
	assert.Equal(t, []Binding{
		{Repo: "cachyos", Keyring: "cachyos-keyring"},
		{Repo: "core", Keyring: "archlinux-keyring"},
		{Repo: "blackarch", Keyring: "blackarch-keyring"},
	}, BindKeyrings(names))
	assert.Equal(t, []string{"mylocal"}, Unbound(names))
	assert.Empty(t, BindKeyrings(nil))
}

func TestRefreshCommands(t *testing.T) {
	assert.Equal(t, []string{
		"pacman -Sy --noconfirm cachyos-keyring archlinux-keyring",
		"pacman-key --init",
		"pacman-key --populate cachyos",
		"pacman-key --populate archlinux",
		"pacman-key --refresh-keys",
	}, RefreshCommands([]string{"cachyos-keyring", "archlinux-keyring"}))
}

type answers struct {
	replies []string
	prompts []string
}

func (a *answers) ReadLine(prompt string) (string, error) {
	a.prompts = append(a.prompts, prompt)
	if len(a.replies) == 0 {
		return "", nil
	}
	r := a.replies[0]
	a.replies = a.replies[1:]
	return r, nil
}

func writeConf(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pacman.conf")
	require.NoError(t, os.WriteFile(path, []byte(pacmanConf), 0o644))
	return path
}

func TestReconcilerRefreshesOnlyConfirmed(t *testing.T) {
	fake := executortest.New()
	r := &Reconciler{PacmanConf: writeConf(t), Exec: fake}
	// cachyos: y, core: n, extra: Y, chaotic-aur: n
	op := &answers{replies: []string{"y", "n", " Y ", "n"}}
	var out []string
	plan, status, err := r.Run(context.Background(), op, func(l string) { out = append(out, l) })
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Len(t, op.prompts, 4, "one question per bound repository")
	assert.Equal(t, []string{"cachyos-keyring", "archlinux-keyring"}, plan.Confirmed)
	assert.Equal(t, RefreshCommands([]string{"cachyos-keyring", "archlinux-keyring"}), fake.Commands())
	assert.Contains(t, strings.Join(out, "\n"), "[mylocal]")
}

func TestReconcilerNothingConfirmedRunsNothing(t *testing.T) {
	fake := executortest.New()
	r := &Reconciler{PacmanConf: writeConf(t), Exec: fake}
	_, status, err := r.Run(context.Background(), &answers{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, fake.Calls)
}

func TestReconcilerReportsFirstFailure(t *testing.T) {
	fake := executortest.New()
	fake.Exits["--refresh-keys"] = 2
	r := &Reconciler{PacmanConf: writeConf(t), Exec: fake}
	_, status, err := r.Run(context.Background(), &answers{replies: []string{"y"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, status)
}

func TestReconcilerMissingConf(t *testing.T) {
	r := &Reconciler{PacmanConf: filepath.Join(t.TempDir(), "missing.conf"), Exec: executortest.New()}
	_, _, err := r.Run(context.Background(), &answers{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPO_READ")
}
