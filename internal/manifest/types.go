package manifest

// Kind identifies a recognized manifest format.
type Kind string

const (
	KindRequirements  Kind = "requirements"
	KindPackageJSON   Kind = "package_json"
	KindPyProject     Kind = "pyproject"
	KindCargo         Kind = "cargo"
	KindGoMod         Kind = "go_mod"
	KindDockerfile    Kind = "dockerfile"
	KindDockerCompose Kind = "docker_compose"
)

// File is a located manifest within a repository.
type File struct {
	// Path is relative to the repository root.
	Path string
	Kind Kind
}

// Entry is one declared dependency recovered from a manifest.
// Version is empty when the manifest does not pin one (container base
// images, script-detected tools).
type Entry struct {
	Name    string
	Version string

	// Source is the manifest filename the entry came from, e.g.
	// "package.json".
	Source string
}

// kindByFilename maps recognized manifest filenames to their kind.
var kindByFilename = map[string]Kind{
	"requirements.txt":   KindRequirements,
	"package.json":       KindPackageJSON,
	"pyproject.toml":     KindPyProject,
	"Cargo.toml":         KindCargo,
	"go.mod":             KindGoMod,
	"Dockerfile":         KindDockerfile,
	"docker-compose.yml": KindDockerCompose,
}
