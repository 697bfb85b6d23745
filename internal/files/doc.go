// Package files writes session artifacts to a local output directory for the
// CLI.
//
// Manager resolves every name against its base directory and refuses names
// that would escape it. Writes go to a temporary file in the same directory
// and are renamed into place, so a reader never sees a half written PDF.
//
// Example usage:
//
//	manager, err := files.NewManager("./ud", logger)
//	if err != nil {
//	    return err
//	}
//	path, err := manager.WriteFile("plot.png", png)
package files
