package fsx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// 测试可替换，用来模拟 rename 失败。
var renameFunc = os.Rename

// ExistsError 表示输出文件已存在且调用方没有要求覆盖。
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("输出文件已存在：%q（使用 --force 覆盖）", e.Path)
}

func (e *ExistsError) Unwrap() error { return os.ErrExist }

// NotFileError 表示输出路径已被目录或特殊文件占用，--force 也不会替换它。
type NotFileError struct {
	Path string
	Mode os.FileMode
}

func (e *NotFileError) Error() string {
	kind := "特殊文件"
	if e.Mode.IsDir() {
		kind = "目录"
	}
	return fmt.Sprintf("输出路径 %q 是%s，不是普通文件", e.Path, kind)
}

// WriteFileAtomic 把一次抓取结果写到 path：先写同目录临时文件，再 rename 到位。
//
// replace=false 时目标已存在即返回 *ExistsError；目标不是普通文件时返回 *NotFileError。
// 父目录不存在时会被创建。
func WriteFileAtomic(path string, data []byte, replace bool) error {
	dst := filepath.Clean(path)
	if fi, err := os.Lstat(dst); err == nil {
		if !fi.Mode().IsRegular() {
			return &NotFileError{Path: dst, Mode: fi.Mode()}
		}
		if !replace {
			return &ExistsError{Path: dst}
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	// os.File.Write 在短写时必然返回错误。
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := renameFunc(tmp.Name(), dst); err != nil {
		return err
	}
	syncDir(dir)
	return nil
}

// syncDir 让 rename 落盘；失败不影响结果。
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
