// Package repos reconciles the active pacman repositories with the keyring
// packages that sign them.
package repos

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"auri/internal/executor"
)

// trustTable maps repository section names onto keyring packages.
var trustTable = map[string]string{
	"arch":        "archlinux-keyring",
	"core":        "archlinux-keyring",
	"extra":       "archlinux-keyring",
	"multilib":    "archlinux-keyring",
	"cachyos":     "cachyos-keyring",
	"chaotic":     "chaotic-keyring",
	"chaotic-aur": "chaotic-keyring",
	"blackarch":   "blackarch-keyring",
	"archstrike":  "archstrike-keyring",
}

// Binding ties an active repository to its keyring package.
type Binding struct {
	Repo    string `json:"repo"`
	Keyring string `json:"keyring"`
}

// ActiveRepositories lists section names from pacman.conf content in order of
// first appearance. The global [options] section is not a repository.
func ActiveRepositories(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("REPO_PARSE: %w", err)
	}
	// Include and Server repeat inside a section; Color and friends carry
	// no value.
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:            true,
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("REPO_PARSE: %w", err)
	}
	names := []string{}
	seen := map[string]struct{}{}
	for _, section := range f.SectionStrings() {
		if section == ini.DefaultSection {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(section))
		if name == "" || name == "options" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// ReadActiveRepositories parses the pacman configuration at path.
func ReadActiveRepositories(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("REPO_READ: %w", err)
	}
	defer f.Close()
	return ActiveRepositories(f)
}

// BindKeyrings keeps the names present in the trust table, in input order.
func BindKeyrings(names []string) []Binding {
	out := []Binding{}
	for _, name := range names {
		if kr, ok := trustTable[name]; ok {
			out = append(out, Binding{Repo: name, Keyring: kr})
		}
	}
	return out
}

// Unbound returns the names that have no trusted keyring.
func Unbound(names []string) []string {
	out := []string{}
	for _, name := range names {
		if _, ok := trustTable[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Operator answers the per-repository question.
type Operator interface {
	ReadLine(prompt string) (string, error)
}

// Reconciler asks about every binding and refreshes the confirmed keyrings.
type Reconciler struct {
	PacmanConf string
	Exec       executor.Executor
}

// Plan is what the operator saw and chose.
type Plan struct {
	Active    []string  `json:"active"`
	Bindings  []Binding `json:"bindings"`
	Unbound   []string  `json:"unbound"`
	Confirmed []string  `json:"confirmed"`
}

func (r *Reconciler) Inspect() (Plan, error) {
	active, err := ReadActiveRepositories(r.PacmanConf)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Active: active, Bindings: BindKeyrings(active), Unbound: Unbound(active), Confirmed: []string{}}, nil
}

// Run asks through op and installs the confirmed keyrings. The returned
// status is the first non-zero exit among the refresh commands.
func (r *Reconciler) Run(ctx context.Context, op Operator, onLine executor.LineFunc) (Plan, int, error) {
	plan, err := r.Inspect()
	if err != nil {
		return plan, 1, err
	}
	say := func(s string) {
		if onLine != nil {
			onLine(s)
		}
	}
	for _, name := range plan.Unbound {
		say(fmt.Sprintf("No trusted keyring known for [%s]; skipped.", name))
	}
	seen := map[string]struct{}{}
	for _, b := range plan.Bindings {
		answer, err := op.ReadLine(fmt.Sprintf("Update keyring for %s (%s)? (y/n): ", b.Repo, b.Keyring))
		if err != nil {
			return plan, 1, err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			continue
		}
		if _, ok := seen[b.Keyring]; ok {
			continue
		}
		seen[b.Keyring] = struct{}{}
		plan.Confirmed = append(plan.Confirmed, b.Keyring)
	}
	if len(plan.Confirmed) == 0 {
		say("No keyrings selected.")
		return plan, 0, nil
	}
	status := 0
	for _, command := range RefreshCommands(plan.Confirmed) {
		code, err := r.Exec.Execute(ctx, command, onLine)
		if err != nil {
			return plan, code, err
		}
		if code != 0 && status == 0 {
			status = code
		}
	}
	return plan, status, nil
}

// RefreshCommands is the install/init/populate/refresh sequence for keyrings.
func RefreshCommands(keyrings []string) []string {
	cmds := []string{
		"pacman -Sy --noconfirm " + strings.Join(keyrings, " "),
		"pacman-key --init",
	}
	for _, kr := range keyrings {
		cmds = append(cmds, "pacman-key --populate "+strings.TrimSuffix(kr, "-keyring"))
	}
	return append(cmds, "pacman-key --refresh-keys")
}
