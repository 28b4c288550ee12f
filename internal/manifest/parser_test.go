package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirements(t *testing.T) {
	content := `# comment
fastapi>=0.110.0
Uvicorn[standard]==0.29.0

-r base.txt
not a valid line !!!
requests
`
	entries := Parse(File{Path: "requirements.txt", Kind: KindRequirements}, content)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Name: "fastapi", Version: "0.110.0", Source: "requirements.txt"}, entries[0])
	assert.Equal(t, "uvicorn", entries[1].Name)
	assert.Equal(t, "0.29.0", entries[1].Version)
	assert.Equal(t, Entry{Name: "requests", Source: "requirements.txt"}, entries[2])
}

func TestParseRequirements_TrailingComments(t *testing.T) {
	content := "django>=4.2  # pinned\nrequests # keep in sync with prod\n"
	entries := Parse(File{Path: "requirements.txt", Kind: KindRequirements}, content)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "django", Version: "4.2", Source: "requirements.txt"}, entries[0])
	assert.Equal(t, Entry{Name: "requests", Source: "requirements.txt"}, entries[1])
}

func TestParseRequirements_MalformedLinesSkipped(t *testing.T) {
	content := "==broken\nflask==3.0.0\n   \npydantic>=2.0\n"
	entries := Parse(File{Path: "requirements.txt", Kind: KindRequirements}, content)
	require.Len(t, entries, 2)
	assert.Equal(t, "flask", entries[0].Name)
	assert.Equal(t, "pydantic", entries[1].Name)
}

func TestParsePackageJSON(t *testing.T) {
	content := `{
		"dependencies": {"express": "^4.18.0", "Zod": "~3.22.1"},
		"devDependencies": {"typescript": "5.3.3"},
		"scripts": {"build": "webpack --mode production", "test": "jest"}
	}`
	entries := Parse(File{Path: "package.json", Kind: KindPackageJSON}, content)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.Contains(t, byName, "express")
	assert.Equal(t, "4.18.0", byName["express"].Version)
	require.Contains(t, byName, "zod")
	assert.Equal(t, "3.22.1", byName["zod"].Version)
	require.Contains(t, byName, "typescript")
	assert.Contains(t, byName, "webpack")
	assert.Contains(t, byName, "jest")
}

func TestParsePackageJSON_InvalidJSON(t *testing.T) {
	entries := Parse(File{Path: "package.json", Kind: KindPackageJSON}, "{not json")
	assert.Empty(t, entries)
}

func TestParsePackageJSON_Deterministic(t *testing.T) {
	content := `{"dependencies": {"b": "1", "a": "2", "c": "3"}}`
	first := Parse(File{Path: "package.json", Kind: KindPackageJSON}, content)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Parse(File{Path: "package.json", Kind: KindPackageJSON}, content))
	}
}

func TestParsePyProject(t *testing.T) {
	content := `
[build-system]
requires = ["hatchling"]

[project]
dependencies = [
    "fastapi>=0.110",
    "sqlalchemy[asyncio]>=2.0",
]

[project.optional-dependencies]
dev = ["pytest==8.1.1"]
`
	entries := Parse(File{Path: "pyproject.toml", Kind: KindPyProject}, content)
	require.Len(t, entries, 4)
	assert.Equal(t, Entry{Name: "fastapi", Version: "0.110", Source: "pyproject.toml"}, entries[0])
	assert.Equal(t, Entry{Name: "sqlalchemy", Version: "2.0", Source: "pyproject.toml"}, entries[1])
	assert.Equal(t, Entry{Name: "pytest", Version: "8.1.1", Source: "pyproject.toml"}, entries[2])
	assert.Equal(t, Entry{Name: "hatchling", Source: "pyproject.toml"}, entries[3])
}

func TestParsePyProject_InvalidTOML(t *testing.T) {
	entries := Parse(File{Path: "pyproject.toml", Kind: KindPyProject}, "[project\nbroken")
	assert.Empty(t, entries)
}

func TestParseCargo(t *testing.T) {
	content := `
[dependencies]
serde = { version = "1.0", features = ["derive"] }
tokio = "1.36"
local-thing = { path = "../thing" }

[dev-dependencies]
criterion = "0.5"
`
	entries := Parse(File{Path: "Cargo.toml", Kind: KindCargo}, content)
	require.Len(t, entries, 4)
	assert.Equal(t, Entry{Name: "local-thing", Source: "Cargo.toml"}, entries[0])
	assert.Equal(t, Entry{Name: "serde", Version: "1.0", Source: "Cargo.toml"}, entries[1])
	assert.Equal(t, Entry{Name: "tokio", Version: "1.36", Source: "Cargo.toml"}, entries[2])
	assert.Equal(t, Entry{Name: "criterion", Version: "0.5", Source: "Cargo.toml"}, entries[3])
}

func TestParseGoMod(t *testing.T) {
	content := `module github.com/acme/widget

go 1.24

require github.com/spf13/cobra v1.8.0

require (
	github.com/jmoiron/sqlx v1.4.0
	go.uber.org/zap v1.27.0 // indirect
)
`
	entries := Parse(File{Path: "go.mod", Kind: KindGoMod}, content)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Name: "cobra", Version: "v1.8.0", Source: "go.mod"}, entries[0])
	assert.Equal(t, Entry{Name: "sqlx", Version: "v1.4.0", Source: "go.mod"}, entries[1])
	assert.Equal(t, Entry{Name: "zap", Version: "v1.27.0", Source: "go.mod"}, entries[2])
}

func TestParseDockerfile(t *testing.T) {
	content := `# syntax=docker/dockerfile:1
FROM --platform=linux/amd64 ghcr.io/acme/python:3.12-slim AS build
RUN pip install -r requirements.txt && apt-get update
RUN pip install extra
FROM scratch
`
	entries := Parse(File{Path: "Dockerfile", Kind: KindDockerfile}, content)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Name: "python", Source: "Dockerfile"}, entries[0])
	assert.Equal(t, Entry{Name: "pip", Source: "Dockerfile"}, entries[1])
	assert.Equal(t, Entry{Name: "apt-get", Source: "Dockerfile"}, entries[2])
}

func TestParseDockerfile_ImagesCarryNoVersion(t *testing.T) {
	entries := Parse(File{Path: "Dockerfile", Kind: KindDockerfile}, "FROM python:3.12-slim\n")
	require.Len(t, entries, 1)
	assert.Equal(t, "python", entries[0].Name)
	assert.Empty(t, entries[0].Version)
}

func TestParseDockerCompose(t *testing.T) {
	content := `
services:
  db:
    image: "postgres:16"
  cache:
    image: redis
  app:
    build: .
`
	entries := Parse(File{Path: "docker-compose.yml", Kind: KindDockerCompose}, content)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "postgres", Source: "docker-compose.yml"}, entries[0])
	assert.Equal(t, Entry{Name: "redis", Source: "docker-compose.yml"}, entries[1])
}

func TestParse_UnknownKind(t *testing.T) {
	assert.Nil(t, Parse(File{Path: "x", Kind: Kind("mystery")}, "anything"))
}
