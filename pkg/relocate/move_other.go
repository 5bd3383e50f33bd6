//go:build !linux

package relocate

func renameNoReplace(source, target string) error {
	return linkAndRemove(source, target)
}
