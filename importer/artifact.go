package importer

import (
	"strings"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
)

// Field labels reported by UNKNOWN_ARTIFACT.
const (
	FieldArtifactName    = "Artifact name"
	FieldArtifactVersion = "Artifact version"
	FieldArtifactScope   = "Artifact scope"
)

// CheckArtifact verifies a against the known artifacts. Version and scope
// are matched among artifacts of the same name, scope case-insensitively.
// An unknown name is reported alone.
func CheckArtifact(a graph.Artifact, known []graph.Artifact) error {
	var nameMatch, versionMatch, scopeMatch bool
	for _, k := range known {
		if k.Name != a.Name {
			continue
		}
		nameMatch = true
		if k.Version == a.Version {
			versionMatch = true
		}
		if strings.EqualFold(k.Scope, a.Scope) {
			scopeMatch = true
		}
	}

	var fields []string
	switch {
	case !nameMatch:
		fields = append(fields, FieldArtifactName)
	default:
		if !versionMatch {
			fields = append(fields, FieldArtifactVersion)
		}
		if !scopeMatch {
			fields = append(fields, FieldArtifactScope)
		}
	}
	if len(fields) > 0 {
		return errors.UnknownArtifact(fields)
	}
	return nil
}
