// Package nixexpr serializes a manifest into a Nix expression consumable by
// callPackage. Output is byte-stable: emitting the same manifest twice
// always yields identical bytes, so the generated file can be checked in
// and diffed meaningfully.
package nixexpr

import (
	"path"
	"strings"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/zerr"
)

// header lines prefix every generated expression. The lockfile fingerprint
// line is appended at emit time.
const header = `# This file was autogenerated by burrow; do not edit it by hand.
# Regenerate it with ` + "`burrow convert`" + ` after the lockfile changes.
`

// Emitter implements ports.Emitter for the Nix language.
type Emitter struct{}

// NewEmitter creates a new Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit renders the manifest as a Nix expression. Every non-local entry must
// carry an integrity hash by now; a missing hash means prefetching was
// skipped and the expression would not be hermetic. The one exception is a
// git entry on a host without revision archives, which is emitted with an
// empty hash so the first build reports the value to pin.
func (e *Emitter) Emit(m *domain.Manifest) ([]byte, error) {
	for i := range m.Entries {
		entry := &m.Entries[i]
		if err := entry.Descriptor.Verify(); err != nil {
			err = zerr.Wrap(err, domain.ErrEmissionFailed.Error())
			err = zerr.With(err, "id", entry.ID)
			return nil, zerr.With(err, "hint", "run burrow convert with prefetching enabled")
		}
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("# lockfile: " + m.Fingerprint + "\n")
	b.WriteString("{ fetchurl, fetchgit, runCommand, coreutils, gnutar }:\n\n")
	b.WriteString("rec {\n")

	e.writePackages(&b, m)
	e.writeSkips(&b, m)
	e.writeNodeModules(&b, m)

	b.WriteString("}\n")
	return []byte(b.String()), nil
}

func (e *Emitter) writePackages(b *strings.Builder, m *domain.Manifest) {
	b.WriteString("  packages = {\n")
	for i := range m.Entries {
		entry := &m.Entries[i]
		b.WriteString("    " + quote(entry.ID) + " = {\n")
		b.WriteString("      name = " + quote(entry.Name) + ";\n")
		b.WriteString("      version = " + quote(entry.Version) + ";\n")
		e.writeSrc(b, entry)
		e.writeDeps(b, entry)
		e.writeBinaries(b, entry)
		b.WriteString("    };\n")
	}
	b.WriteString("  };\n")
}

func (e *Emitter) writeSrc(b *strings.Builder, entry *domain.ManifestEntry) {
	d := entry.Descriptor
	switch d.Kind {
	case domain.FetchRegistry:
		b.WriteString("      src = fetchurl {\n")
		b.WriteString("        url = " + quote(d.URL) + ";\n")
		b.WriteString("        hash = " + quote(d.Integrity) + ";\n")
		b.WriteString("      };\n")
	case domain.FetchGit:
		if d.ArchiveURL != "" {
			b.WriteString("      src = fetchurl {\n")
			b.WriteString("        url = " + quote(d.ArchiveURL) + ";\n")
			b.WriteString("        hash = " + quote(d.Integrity) + ";\n")
			b.WriteString("      };\n")
			return
		}
		b.WriteString("      src = fetchgit {\n")
		b.WriteString("        url = " + quote(d.URL) + ";\n")
		b.WriteString("        rev = " + quote(d.Revision) + ";\n")
		b.WriteString("        hash = " + quote(d.Integrity) + ";\n")
		b.WriteString("      };\n")
	case domain.FetchLocalPath:
		b.WriteString("      src = " + localPath(d.Path) + ";\n")
	}
}

func (e *Emitter) writeDeps(b *strings.Builder, entry *domain.ManifestEntry) {
	if len(entry.Dependencies) == 0 {
		b.WriteString("      deps = [ ];\n")
		return
	}
	b.WriteString("      deps = [\n")
	for _, dep := range entry.Dependencies {
		b.WriteString("        " + quote(dep) + "\n")
	}
	b.WriteString("      ];\n")
}

func (e *Emitter) writeBinaries(b *strings.Builder, entry *domain.ManifestEntry) {
	if len(entry.Binaries) == 0 {
		b.WriteString("      binaries = { };\n")
		return
	}
	b.WriteString("      binaries = {\n")
	for _, bin := range entry.Binaries {
		b.WriteString("        " + quote(bin.Name) + " = " + quote(bin.Path) + ";\n")
	}
	b.WriteString("      };\n")
}

func (e *Emitter) writeSkips(b *strings.Builder, m *domain.Manifest) {
	if len(m.Skipped) == 0 {
		return
	}
	b.WriteString("\n")
	for _, skip := range m.Skipped {
		b.WriteString("  # skipped (" + skip.Kind.String() + ", unresolved): " +
			skip.Name + " requested by " + skip.RequestedBy + "\n")
	}
}

// writeNodeModules emits the runCommand derivation that reconstructs the
// node_modules tree from the fetched sources. The script lines are derived
// from the sorted entries, so the derivation is as stable as the manifest.
func (e *Emitter) writeNodeModules(b *strings.Builder, m *domain.Manifest) {
	b.WriteString("\n  nodeModules = runCommand \"burrow-node-modules\" { buildInputs = [ gnutar coreutils ]; } ''\n")
	b.WriteString("    mkdir -p $out/node_modules/.bin\n")

	for i := range m.Entries {
		entry := &m.Entries[i]
		src := "${packages." + quote(entry.ID) + ".src}"
		for _, install := range entry.InstallPaths {
			dest := "$out/node_modules/" + script(install)
			switch {
			case entry.Descriptor.Kind == domain.FetchRegistry,
				entry.Descriptor.Kind == domain.FetchGit && entry.Descriptor.ArchiveURL != "":
				b.WriteString("    mkdir -p " + dest + "\n")
				b.WriteString("    tar -xzf " + src + " --strip-components=1 -C " + dest + "\n")
			case entry.Descriptor.Kind == domain.FetchGit:
				b.WriteString("    mkdir -p " + dest + "\n")
				b.WriteString("    cp -r " + src + "/. " + dest + "/\n")
			case entry.Descriptor.Kind == domain.FetchLocalPath:
				if parent := path.Dir(install); parent != "." {
					b.WriteString("    mkdir -p $out/node_modules/" + script(parent) + "\n")
				}
				b.WriteString("    ln -s " + src + " " + dest + "\n")
			}
		}
		for _, bin := range entry.Binaries {
			for _, install := range entry.InstallPaths {
				if strings.Contains(install, "/"+domain.ModulesDirName+"/") {
					// Nested resolutions do not own top-level bin names.
					continue
				}
				b.WriteString("    ln -s ../" + script(install) + "/" + script(bin.Path) +
					" $out/node_modules/.bin/" + script(bin.Name) + "\n")
			}
		}
	}

	b.WriteString("  '';\n")
}

// quote renders a Nix double-quoted string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"' || s[i] == '\\':
			b.WriteByte('\\')
			b.WriteByte(s[i])
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			b.WriteString("\\$")
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

// localPath renders a workspace-relative Nix path literal.
func localPath(p string) string {
	if p == "" || p == "." {
		return "./."
	}
	return "./" + p
}

// script escapes a fragment for use inside an indented-string shell script.
func script(s string) string {
	s = strings.ReplaceAll(s, "''", "'''")
	return strings.ReplaceAll(s, "${", "''${")
}
