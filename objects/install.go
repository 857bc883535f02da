package objects

import (
	"context"
	"errors"
	"fmt"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/command"
	"github.com/robbyt/go-rbridge/rsyntax"
)

// DefaultBioconductorScript is the installer script sourced before biocLite is called.
const DefaultBioconductorScript = "http://bioconductor.org/biocLite.R"

// Installer produces the commands that install a package.
type Installer interface {
	InstallCommands(pkg string) []command.Command
}

// InstallerFunc adapts a function to Installer.
type InstallerFunc func(pkg string) []command.Command

func (f InstallerFunc) InstallCommands(pkg string) []command.Command {
	return f(pkg)
}

// CRAN installs with install.packages. An empty Repos uses the interpreter's configured
// mirror.
type CRAN struct {
	Repos string
}

func (c CRAN) InstallCommands(pkg string) []command.Command {
	params := []command.Param{command.Positional(rsyntax.String(pkg))}
	if c.Repos != "" {
		params = append(params, command.Named("repos", rsyntax.String(c.Repos)))
	}
	return []command.Command{command.Invoke("install.packages", params...)}
}

// Bioconductor sources the biocLite script and then installs through biocLite.
type Bioconductor struct {
	ScriptURL string
}

func (b Bioconductor) InstallCommands(pkg string) []command.Command {
	script := b.ScriptURL
	if script == "" {
		script = DefaultBioconductorScript
	}
	return []command.Command{
		command.Invoke("source", command.Positional(rsyntax.String(script))),
		command.Invoke("biocLite", command.Positional(rsyntax.String(pkg))),
	}
}

func (d PackageDependency) installer() Installer {
	if d.Installer == nil {
		return CRAN{}
	}
	return d.Installer
}

// Install runs the installer's commands in order, stopping at the first failure. The
// commands are visible so the installation is recorded in the transcript.
func (d PackageDependency) Install(ctx context.Context, ev Evaluator) error {
	if ev == nil {
		return ErrNilEvaluator
	}
	for _, cmd := range d.installer().InstallCommands(d.Name) {
		if _, err := ev.Evaluate(ctx, cmd); err != nil {
			if errors.Is(err, bridge.ErrEvaluation) {
				return fmt.Errorf("installing package %s: %w", d.Name, err)
			}
			return err
		}
	}
	return nil
}
