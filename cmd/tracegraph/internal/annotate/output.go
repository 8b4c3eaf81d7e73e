// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package annotate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteOutput writes text to path, or to stdout when path is empty.
//
// File output is written to a temporary file in the target directory and
// renamed into place, so a failed run never leaves a truncated graph.
func WriteOutput(text, path string, stdout io.Writer) error {
	if path == "" {
		if stdout == nil {
			return fmt.Errorf("%w: no output writer", ErrOutputWrite)
		}
		if _, err := io.WriteString(stdout, text); err != nil {
			return fmt.Errorf("%w: stdout: %w", ErrOutputWrite, err)
		}
		return nil
	}
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputWrite, path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
