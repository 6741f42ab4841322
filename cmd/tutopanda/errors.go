package main

import "github.com/keremk/tutopanda/internal/errkind"

func isManifestNotFound(err error) bool {
	return errkind.Is(err, errkind.ManifestNotFound)
}
