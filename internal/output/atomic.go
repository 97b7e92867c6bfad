package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// staged is a fully written temp file waiting to replace target.
type staged struct {
	target string
	tmp    string
}

// stage renders into a temp file next to target so the later rename stays on one filesystem.
func stage(target string, render func(io.Writer) error) (staged, error) {
	f, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return staged{}, err
	}
	s := staged{target: target, tmp: f.Name()}

	buf := bufio.NewWriter(f)
	err = render(buf)
	if err == nil {
		err = buf.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(s.tmp, 0o644)
	}
	if err != nil {
		_ = os.Remove(s.tmp)
		return staged{}, err
	}
	return s, nil
}

func discard(files []staged) {
	for _, s := range files {
		_ = os.Remove(s.tmp)
	}
}

// commit swaps every staged file into place. Existing targets are first moved to
// .bak; if any swap fails, every target already replaced is restored from its
// backup so readers see either the old set or the new set.
func commit(files []staged, rename func(string, string) error) error {
	type swapped struct {
		target    string
		hadBackup bool
	}
	var done []swapped

	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			sw := done[i]
			if sw.hadBackup {
				_ = os.Rename(sw.target+".bak", sw.target)
			} else {
				_ = os.Remove(sw.target)
			}
		}
	}

	for i, s := range files {
		bak := s.target + ".bak"
		_ = os.Remove(bak)

		hadBackup := false
		if _, err := os.Stat(s.target); err == nil {
			if err := rename(s.target, bak); err != nil {
				rollback()
				discard(files[i:])
				return fmt.Errorf("back up %s: %w", s.target, err)
			}
			hadBackup = true
		}

		if err := rename(s.tmp, s.target); err != nil {
			if hadBackup {
				_ = os.Rename(bak, s.target)
			}
			rollback()
			discard(files[i:])
			return fmt.Errorf("replace %s: %w", s.target, err)
		}
		done = append(done, swapped{target: s.target, hadBackup: hadBackup})
	}

	for _, sw := range done {
		if sw.hadBackup {
			_ = os.Remove(sw.target + ".bak")
		}
	}
	return nil
}
