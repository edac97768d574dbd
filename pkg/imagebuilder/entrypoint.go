package imagebuilder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const (
	handlerFilename    = "handler.py"
	entrypointFilename = "dockerd-entrypoint.py"
)

var handlerTemplate = template.Must(template.New(handlerFilename).Parse(`"""Inference handler generated by superai. Do not edit."""
from superai.meta_ai.serving import ModelService

from {{.Module}} import {{.Class}}

service = ModelService({{.Class}})


def handle(data, context):
    return service.handle(data, context)
`))

var lambdaHandlerTemplate = template.Must(template.New(handlerFilename).Parse(`"""Lambda inference handler generated by superai. Do not edit."""
from superai.meta_ai.serving import LambdaModelService

from {{.Module}} import {{.Class}}

service = LambdaModelService({{.Class}}, ai_cache={{.AICache}})


def handler(event, context):
    return service.handle(event, context)
`))

var entrypointTemplate = template.Must(template.New(entrypointFilename).Parse(`"""Serving entrypoint generated by superai. Do not edit."""
import subprocess
import sys


def main():
    subprocess.check_call(
        [
            "model-server",
            "--workers={{.WorkerCount}}",
            "--handler=handler:handle",
        ]
    )


if __name__ == "__main__":
    sys.exit(main())
`))

// prepareEntrypoint writes the orchestrator-specific bootstrap files into the
// build context. Container-serving targets get a handler and a server
// entrypoint; lambda targets get a handler with the AI cache size baked in;
// Kubernetes targets need no files because the manifest supplies the
// entrypoint at runtime, so their entrypoint class is never inspected.
// Existing files are overwritten.
func (b *Builder) prepareEntrypoint(lambdaAICache int, workerCount int) error {
	switch {
	case b.orchestrator.ServesContainers():
		module, class, err := splitEntrypointClass(b.entrypointClass)
		if err != nil {
			return err
		}
		if err := renderFile(filepath.Join(b.location, handlerFilename), handlerTemplate, map[string]interface{}{
			"Module": module,
			"Class":  class,
		}); err != nil {
			return err
		}
		return renderFile(filepath.Join(b.location, entrypointFilename), entrypointTemplate, map[string]interface{}{
			"WorkerCount": workerCount,
		})
	case b.orchestrator.LambdaMode():
		module, class, err := splitEntrypointClass(b.entrypointClass)
		if err != nil {
			return err
		}
		return renderFile(filepath.Join(b.location, handlerFilename), lambdaHandlerTemplate, map[string]interface{}{
			"Module":  module,
			"Class":   class,
			"AICache": lambdaAICache,
		})
	case b.orchestrator.K8sMode():
		// Manifest-based invocation, nothing to write.
		return nil
	default:
		return fmt.Errorf("entrypoint preparation is not implemented for orchestrator %q", b.orchestrator)
	}
}

// splitEntrypointClass splits a dotted class path like "my_model.MyModel"
// into its module and class name.
func splitEntrypointClass(entrypointClass string) (module string, class string, err error) {
	i := strings.LastIndex(entrypointClass, ".")
	if i <= 0 || i == len(entrypointClass)-1 {
		return "", "", fmt.Errorf("entrypoint class %q must be a dotted path like \"my_model.MyModel\"", entrypointClass)
	}
	return entrypointClass[:i], entrypointClass[i+1:], nil
}

func renderFile(path string, tmpl *template.Template, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}
