package render

// builtinTemplates maps template filename to content.
var builtinTemplates = map[string]string{
	"justfile":       justfileTemplate,
	"gitignore":      gitignoreTemplate,
	"pyproject.toml": pyprojectTemplate,
}

const justfileTemplate = `# Tasks for {{project}}. Run ` + "`just --list`" + ` to see them.

default:
    @just --list
{{#if uv}}
# Install all dependency groups
install:
    uv sync --all-groups
{{/if}}{{#if ruff}}
# Format and lint
lint:
    uv run ruff format .
    uv run ruff check --fix .
{{/if}}{{#if mypy}}
# Type check
typecheck:
    uv run mypy .
{{/if}}{{#if pre_commit}}
# Run every pre-commit hook on all files
hooks:
    uv run pre-commit run --all-files
{{/if}}{{#if check}}
# Everything CI runs
check:{{check}}
{{/if}}`

const gitignoreTemplate = `# Byte-compiled / optimized files
__pycache__/
*.py[cod]
*$py.class

# Distribution / packaging
build/
dist/
*.egg-info/
.eggs/

# Virtual environments
.venv/
venv/
env/

# Tool caches
.mypy_cache/
.ruff_cache/
.pytest_cache/
.coverage
htmlcov/

# Editors
.idea/
.vscode/
*.swp
.DS_Store
`

const pyprojectTemplate = `[project]
name = "{{name}}"
version = "0.1.0"
requires-python = ">={{python}}"
dependencies = []
`
