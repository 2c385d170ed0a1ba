package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// WriteJson writes JSON object to a file creating parent directories if required
// The output JSON is pretty-formatted
func WriteJson(ctx context.Context, file string, obj interface{}) error {
	bs, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	return WriteBytes(ctx, file, bs)
}

// ReadJson reads a JSON file into res
func ReadJson(file string, res interface{}) error {
	bs, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, res)
}

// WriteBytes writes bytes to a file using atomic write (temp file + rename).
// Readers never observe a partially written file.
func WriteBytes(ctx context.Context, file string, bs []byte) error {
	if ctx.Err() != nil {
		return fmt.Errorf("write bytes start: %w", ctx.Err())
	}

	dir, name := filepath.Split(file)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".*"+name)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tempFileName := tempFile.Name()

	defer func() {
		if _, err := os.Stat(tempFileName); err == nil {
			_ = os.Remove(tempFileName)
		}
	}()

	if _, err := tempFile.Write(bs); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tempFileName, err)
	}

	if err := os.Chmod(tempFileName, 0o644); err != nil {
		return fmt.Errorf("set permissions on %s: %w", tempFileName, err)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("after temp file: %w", ctx.Err())
	}

	if err := os.Rename(tempFileName, file); err != nil {
		return fmt.Errorf("move %s to %s: %w", tempFileName, file, err)
	}

	return nil
}

// CopyDir recursively copies src into dst. dst must not exist yet.
// Regular files keep their mode, symlinks are recreated as links.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("destination %s: %w", dst, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return copyDir(src, dst, srcInfo.Mode().Perm())
}

func copyDir(src, dst string, perm os.FileMode) error {
	if err := os.Mkdir(dst, perm); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcfp := filepath.Join(src, entry.Name())
		dstfp := filepath.Join(dst, entry.Name())

		info, err := os.Lstat(srcfp)
		if err != nil {
			return fmt.Errorf("couldn't get fileInfo; %v", err)
		}

		switch mode := info.Mode(); {
		case mode&os.ModeSymlink != 0:
			err = copySymLink(srcfp, dstfp)
		case mode.IsDir():
			err = copyDir(srcfp, dstfp, mode.Perm())
		case mode.IsRegular():
			err = CopyFileContents(srcfp, dstfp)
			if err == nil {
				err = os.Chmod(dstfp, mode.Perm())
			}
		default:
			log.Debugf("skipping special file %s", srcfp)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to copy from %s to %s: %w", srcfp, dstfp, err)
		}
	}
	return nil
}

// CopyFileContents copies contents of the given src file to the dst file
func CopyFileContents(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return
	}
	defer func() {
		cErr := out.Close()
		if err == nil {
			err = cErr
		}
	}()
	if _, err = io.Copy(out, in); err != nil {
		return
	}
	err = out.Sync()
	return
}

func copySymLink(source, dest string) error {
	link, err := os.Readlink(source)
	if err != nil {
		return err
	}
	return os.Symlink(link, dest)
}
